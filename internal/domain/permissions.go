package domain

import "errors"

var ErrUnknownPermission = errors.New("unknown permission")

// Permission names a host-toggleable flag of a participant.
type Permission string

const (
	PermVideo       Permission = "video"
	PermAudio       Permission = "audio"
	PermScreenShare Permission = "screen_share"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermVideo, PermAudio, PermScreenShare:
		return p, nil
	}
	return "", ErrUnknownPermission
}

// Permissions is the per-participant record held by a session.
type Permissions struct {
	VideoEnabled       bool `json:"video_enabled"`
	AudioEnabled       bool `json:"audio_enabled"`
	ScreenShareEnabled bool `json:"screen_share_enabled"`
	IsHost             bool `json:"is_host"`
}

func DefaultPermissions() Permissions {
	return Permissions{VideoEnabled: true, AudioEnabled: true, ScreenShareEnabled: true}
}

func HostPermissions() Permissions {
	p := DefaultPermissions()
	p.IsHost = true
	return p
}

// With returns a copy with one flag changed.
func (p Permissions) With(perm Permission, enabled bool) Permissions {
	switch perm {
	case PermVideo:
		p.VideoEnabled = enabled
	case PermAudio:
		p.AudioEnabled = enabled
	case PermScreenShare:
		p.ScreenShareEnabled = enabled
	}
	return p
}

// MediaStatus is what a participant reports about its own devices.
// It is display-only; Permissions is what the relay enforces.
type MediaStatus struct {
	VideoEnabled bool `json:"video_enabled"`
	AudioEnabled bool `json:"audio_enabled"`
}
