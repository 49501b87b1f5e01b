// Package protocol defines the control-plane messages exchanged with clients.
// Every message kind is its own struct; the wire form is a JSON envelope
// {"type": kind, "data": {...}} carried in one length-prefixed frame.
package protocol

import (
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
)

type Kind string

// Client to server.
const (
	KindLogin                Kind = "login"
	KindLogout               Kind = "logout"
	KindCreateSession        Kind = "create_session"
	KindJoinSession          Kind = "join_session"
	KindLeaveSession         Kind = "leave_session"
	KindChat                 Kind = "chat"
	KindPresenterRequest     Kind = "presenter_request"
	KindStopPresenting       Kind = "stop_presenting"
	KindMediaStatusUpdate    Kind = "media_status_update"
	KindHostPermissionToggle Kind = "host_permission_toggle"
	KindKickUser             Kind = "kick_user"
	KindFileOffer            Kind = "file_offer"
	KindFileRequest          Kind = "file_request"
	KindListParticipants     Kind = "list_participants"
	KindHeartbeat            Kind = "heartbeat"
)

// Server to client.
const (
	KindLoginOK               Kind = "login_ok"
	KindSessionCreated        Kind = "session_created"
	KindSessionJoined         Kind = "session_joined"
	KindUserJoined            Kind = "user_joined"
	KindUserLeft              Kind = "user_left"
	KindHostChanged           Kind = "host_changed"
	KindChatMessage           Kind = "chat_message"
	KindPresenterGranted      Kind = "presenter_granted"
	KindPresenterDenied       Kind = "presenter_denied"
	KindPresenterChanged      Kind = "presenter_changed"
	KindMediaStatus           Kind = "media_status"
	KindPermissionChanged     Kind = "permission_changed"
	KindUserPermissionUpdated Kind = "user_permission_updated"
	KindKicked                Kind = "kicked"
	KindUserKicked            Kind = "user_kicked"
	KindFileAvailable         Kind = "file_available"
	KindFileInfo              Kind = "file_info"
	KindParticipants          Kind = "participants"
	KindHeartbeatAck          Kind = "heartbeat_ack"
	KindLeft                  Kind = "left"
	KindError                 Kind = "error"
)

type Message interface {
	Kind() Kind
}

type Login struct {
	Name string `json:"name"`
}

type Logout struct{}

// CreateSession may carry Name so an unauthenticated client can log in and
// create in one step. An empty SessionID asks the server to pick one.
type CreateSession struct {
	SessionID domain.SessionID `json:"session_id,omitempty"`
	Name      string           `json:"name,omitempty"`
}

type JoinSession struct {
	SessionID domain.SessionID `json:"session_id"`
	Name      string           `json:"name,omitempty"`
}

type LeaveSession struct{}

type Chat struct {
	Message string `json:"message"`
}

type PresenterRequest struct{}

type StopPresenting struct{}

type MediaStatusUpdate struct {
	VideoEnabled bool `json:"video_enabled"`
	AudioEnabled bool `json:"audio_enabled"`
}

type HostPermissionToggle struct {
	TargetID   domain.UserID `json:"target_id"`
	Permission string        `json:"permission"`
	Enabled    bool          `json:"enabled"`
}

type KickUser struct {
	TargetID domain.UserID `json:"target_id"`
}

type FileOffer struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type FileRequest struct {
	FileID string `json:"file_id"`
}

type ListParticipants struct{}

type Heartbeat struct{}

type LoginOK struct {
	UserID   domain.UserID `json:"user_id"`
	Name     string        `json:"name"`
	ServerID string        `json:"server_id"`
}

type SessionCreated struct {
	SessionID      domain.SessionID `json:"session_id"`
	AlreadyHosting bool             `json:"already_hosting,omitempty"`
}

type SessionJoined struct {
	Session domain.SessionSnapshot `json:"session"`
	// Requested is set when the server joined an alias of the requested id.
	Requested domain.SessionID `json:"requested,omitempty"`
}

type UserJoined struct {
	SessionID domain.SessionID   `json:"session_id"`
	User      domain.Participant `json:"user"`
}

type UserLeft struct {
	SessionID domain.SessionID `json:"session_id"`
	UserID    domain.UserID    `json:"user_id"`
}

type HostChanged struct {
	SessionID domain.SessionID `json:"session_id"`
	HostID    domain.UserID    `json:"host_id"`
}

type ChatMessage struct {
	SessionID domain.SessionID `json:"session_id"`
	Entry     domain.ChatEntry `json:"entry"`
}

type PresenterGranted struct{}

type PresenterDenied struct {
	Reason      string        `json:"reason"`
	PresenterID domain.UserID `json:"presenter_id,omitempty"`
}

// PresenterChanged with a zero PresenterID means nobody is presenting.
type PresenterChanged struct {
	SessionID   domain.SessionID `json:"session_id"`
	PresenterID domain.UserID    `json:"presenter_id"`
}

type MediaStatus struct {
	UserID       domain.UserID `json:"user_id"`
	VideoEnabled bool          `json:"video_enabled"`
	AudioEnabled bool          `json:"audio_enabled"`
}

type PermissionChanged struct {
	Permissions domain.Permissions `json:"permissions"`
	By          domain.UserID      `json:"by"`
}

type UserPermissionUpdated struct {
	UserID      domain.UserID      `json:"user_id"`
	Permissions domain.Permissions `json:"permissions"`
}

type Kicked struct {
	SessionID domain.SessionID `json:"session_id"`
	By        domain.UserID    `json:"by"`
}

type UserKicked struct {
	SessionID domain.SessionID `json:"session_id"`
	UserID    domain.UserID    `json:"user_id"`
}

type FileAvailable struct {
	File domain.FileInfo `json:"file"`
}

type FileInfo struct {
	File domain.FileInfo `json:"file"`
}

type Participants struct {
	SessionID    domain.SessionID     `json:"session_id"`
	Participants []domain.Participant `json:"participants"`
}

type HeartbeatAck struct {
	ServerTime time.Time `json:"server_time"`
}

type Left struct {
	SessionID domain.SessionID `json:"session_id"`
}

type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeUnauthenticated  ErrorCode = "unauthenticated"
	CodeNotInSession     ErrorCode = "not_in_session"
	CodeSessionExists    ErrorCode = "session_exists"
	CodeSessionNotFound  ErrorCode = "session_not_found"
	CodeAlreadyInSession ErrorCode = "already_in_session"
	CodeNotHost          ErrorCode = "not_host"
	CodeNotPresenter     ErrorCode = "not_presenter"
	CodeUnknownUser      ErrorCode = "unknown_user"
	CodeUnknownFile      ErrorCode = "unknown_file"
	CodeUnknownType      ErrorCode = "unknown_type"
	CodeRateLimited      ErrorCode = "rate_limited"
)

// Error is the typed rejection sent only to the requester.
type Error struct {
	Code      ErrorCode        `json:"code"`
	Message   string           `json:"message"`
	Request   Kind             `json:"request,omitempty"`
	SessionID domain.SessionID `json:"session_id,omitempty"`
	Hint      string           `json:"hint,omitempty"`
}

func (Login) Kind() Kind { return KindLogin }
func (Logout) Kind() Kind { return KindLogout }
func (CreateSession) Kind() Kind { return KindCreateSession }
func (JoinSession) Kind() Kind { return KindJoinSession }
func (LeaveSession) Kind() Kind { return KindLeaveSession }
func (Chat) Kind() Kind { return KindChat }
func (PresenterRequest) Kind() Kind { return KindPresenterRequest }
func (StopPresenting) Kind() Kind { return KindStopPresenting }
func (MediaStatusUpdate) Kind() Kind { return KindMediaStatusUpdate }
func (HostPermissionToggle) Kind() Kind { return KindHostPermissionToggle }
func (KickUser) Kind() Kind { return KindKickUser }
func (FileOffer) Kind() Kind { return KindFileOffer }
func (FileRequest) Kind() Kind { return KindFileRequest }
func (ListParticipants) Kind() Kind { return KindListParticipants }
func (Heartbeat) Kind() Kind { return KindHeartbeat }
func (LoginOK) Kind() Kind { return KindLoginOK }
func (SessionCreated) Kind() Kind { return KindSessionCreated }
func (SessionJoined) Kind() Kind { return KindSessionJoined }
func (UserJoined) Kind() Kind { return KindUserJoined }
func (UserLeft) Kind() Kind { return KindUserLeft }
func (HostChanged) Kind() Kind { return KindHostChanged }
func (ChatMessage) Kind() Kind { return KindChatMessage }
func (PresenterGranted) Kind() Kind { return KindPresenterGranted }
func (PresenterDenied) Kind() Kind { return KindPresenterDenied }
func (PresenterChanged) Kind() Kind { return KindPresenterChanged }
func (MediaStatus) Kind() Kind { return KindMediaStatus }
func (PermissionChanged) Kind() Kind { return KindPermissionChanged }
func (UserPermissionUpdated) Kind() Kind { return KindUserPermissionUpdated }
func (Kicked) Kind() Kind { return KindKicked }
func (UserKicked) Kind() Kind { return KindUserKicked }
func (FileAvailable) Kind() Kind { return KindFileAvailable }
func (FileInfo) Kind() Kind { return KindFileInfo }
func (Participants) Kind() Kind { return KindParticipants }
func (HeartbeatAck) Kind() Kind { return KindHeartbeatAck }
func (Left) Kind() Kind { return KindLeft }
func (Error) Kind() Kind { return KindError }

var factories = map[Kind]func() Message{
	KindLogin:                 func() Message { return &Login{} },
	KindLogout:                func() Message { return &Logout{} },
	KindCreateSession:         func() Message { return &CreateSession{} },
	KindJoinSession:           func() Message { return &JoinSession{} },
	KindLeaveSession:          func() Message { return &LeaveSession{} },
	KindChat:                  func() Message { return &Chat{} },
	KindPresenterRequest:      func() Message { return &PresenterRequest{} },
	KindStopPresenting:        func() Message { return &StopPresenting{} },
	KindMediaStatusUpdate:     func() Message { return &MediaStatusUpdate{} },
	KindHostPermissionToggle:  func() Message { return &HostPermissionToggle{} },
	KindKickUser:              func() Message { return &KickUser{} },
	KindFileOffer:             func() Message { return &FileOffer{} },
	KindFileRequest:           func() Message { return &FileRequest{} },
	KindListParticipants:      func() Message { return &ListParticipants{} },
	KindHeartbeat:             func() Message { return &Heartbeat{} },
	KindLoginOK:               func() Message { return &LoginOK{} },
	KindSessionCreated:        func() Message { return &SessionCreated{} },
	KindSessionJoined:         func() Message { return &SessionJoined{} },
	KindUserJoined:            func() Message { return &UserJoined{} },
	KindUserLeft:              func() Message { return &UserLeft{} },
	KindHostChanged:           func() Message { return &HostChanged{} },
	KindChatMessage:           func() Message { return &ChatMessage{} },
	KindPresenterGranted:      func() Message { return &PresenterGranted{} },
	KindPresenterDenied:       func() Message { return &PresenterDenied{} },
	KindPresenterChanged:      func() Message { return &PresenterChanged{} },
	KindMediaStatus:           func() Message { return &MediaStatus{} },
	KindPermissionChanged:     func() Message { return &PermissionChanged{} },
	KindUserPermissionUpdated: func() Message { return &UserPermissionUpdated{} },
	KindKicked:                func() Message { return &Kicked{} },
	KindUserKicked:            func() Message { return &UserKicked{} },
	KindFileAvailable:         func() Message { return &FileAvailable{} },
	KindFileInfo:              func() Message { return &FileInfo{} },
	KindParticipants:          func() Message { return &Participants{} },
	KindHeartbeatAck:          func() Message { return &HeartbeatAck{} },
	KindLeft:                  func() Message { return &Left{} },
	KindError:                 func() Message { return &Error{} },
}
