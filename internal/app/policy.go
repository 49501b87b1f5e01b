package app

import "github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropMessage
	KickMember
)

// Policy decides what happens to a peer whose outbound control queue is full.
type Policy interface {
	OnBackPressure(member core.MemberSession) BackpressureAction
}

// SimplePolicy disconnects slow members.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.MemberSession) BackpressureAction {
	return KickMember
}

// LenientPolicy drops the message and keeps the member connected.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(core.MemberSession) BackpressureAction {
	return DropMessage
}

func PolicyByName(name string) Policy {
	if name == "drop" {
		return LenientPolicy{}
	}
	return SimplePolicy{}
}
