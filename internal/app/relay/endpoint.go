package relay

import (
	"net/netip"
	"sync/atomic"
)

type EndpointState int32

const (
	EndpointOk EndpointState = iota
	EndpointDelete
)

// Endpoint is the last address a user sent media of one kind from.
type Endpoint struct {
	Addr  netip.AddrPort
	state atomic.Int32 // Zero by default (EndpointOk)
}

func NewEndpoint(addr netip.AddrPort) *Endpoint {
	return &Endpoint{Addr: addr}
}

func (e *Endpoint) GetState() EndpointState {
	return EndpointState(e.state.Load())
}

func (e *Endpoint) MarkDelete() {
	e.state.Store(int32(EndpointDelete))
}
