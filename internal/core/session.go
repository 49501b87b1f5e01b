package core

import "github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"

// MemberSession binds an authenticated user to its transport endpoints.
// The session registry stores only user ids; targeted sends go through this.
type MemberSession interface {
	User() domain.User
	Control() ControlConn
	// Media is nil for clients that receive media as datagrams.
	Media() MediaSink
}
