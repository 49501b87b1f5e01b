//go:generate mockgen -source=conn.go -destination=../mocks/mock_conn.go -package=mocks
//go:generate mockgen -source=media.go -destination=../mocks/mock_media.go -package=mocks

package core

import (
	"errors"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// ControlConn abstracts a client's control transport.
// Owned by the adapter; the adapter must Close() it.
type ControlConn interface {
	// TrySend queues m without blocking. It fails with ErrBackpressure when the
	// outbound queue is full and ErrConnClosed after Close.
	TrySend(m protocol.Message) error
	Close()
	RemoteAddr() string
}
