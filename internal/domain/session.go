package domain

import "time"

type SessionID string

// ChatEntry is one line of a session transcript.
type ChatEntry struct {
	ID         string    `json:"id"`
	Sender     UserID    `json:"sender"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sent_at"`
}

// FileInfo is the metadata of a shared file. The bytes travel elsewhere.
type FileInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Uploader   UserID    `json:"uploader"`
	UploadedAt time.Time `json:"timestamp"`
}

// Participant is a read-only view of a member (no transport fields).
type Participant struct {
	User        User        `json:"user"`
	Permissions Permissions `json:"permissions"`
	Media       MediaStatus `json:"media"`
	JoinedAt    time.Time   `json:"joined_at"`
}

// SessionSnapshot is a consistent copy of a session taken under the registry lock.
type SessionSnapshot struct {
	ID           SessionID     `json:"id"`
	Host         UserID        `json:"host_id"`
	Presenter    UserID        `json:"presenter_id,omitempty"`
	Participants []Participant `json:"participants"`
	History      []ChatEntry   `json:"history,omitempty"`
	Files        []FileInfo    `json:"files,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type SessionInfo struct {
	ID               SessionID `json:"id"`
	Host             UserID    `json:"host_id"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}
