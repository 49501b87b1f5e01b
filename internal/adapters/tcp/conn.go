package tcp

import (
	"sync"
	"sync/atomic"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/core"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
)

type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn is a control client over TCP. It implements core.ControlConn.
type Conn struct {
	ch     *protocol.Channel
	remote string
	send   chan protocol.Message
	done   chan struct{}
	once   sync.Once
	state  atomic.Int32
}

func newConn(ch *protocol.Channel, queue int) *Conn {
	if queue < 1 {
		queue = 1
	}
	return &Conn{
		ch:     ch,
		remote: ch.RemoteAddr().String(),
		send:   make(chan protocol.Message, queue),
		done:   make(chan struct{}),
	}
}

func (c *Conn) TrySend(m protocol.Message) error {
	select {
	case <-c.done:
		return core.ErrConnClosed
	default:
	}
	select {
	case c.send <- m:
		return nil
	case <-c.done:
		return core.ErrConnClosed
	default:
		return core.ErrBackpressure
	}
}

func (c *Conn) Close() {
	c.once.Do(func() {
		c.setState(StateClosed)
		close(c.done)
		_ = c.ch.Close()
	})
}

func (c *Conn) RemoteAddr() string { return c.remote }

func (c *Conn) State() State { return State(c.state.Load()) }

func (c *Conn) setState(s State) { c.state.Store(int32(s)) }
