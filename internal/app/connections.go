package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/core"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

type ConnState int32

const (
	StateUnauthenticated ConnState = iota
	StateActive
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Peer is one accepted control connection and the user behind it once logged in.
type Peer struct {
	conn   core.ControlConn
	media  core.MediaSink
	cancel context.CancelFunc

	mu    sync.RWMutex
	state ConnState
	user  domain.User
}

func NewPeer(conn core.ControlConn, media core.MediaSink, cancel context.CancelFunc) *Peer {
	return &Peer{conn: conn, media: media, cancel: cancel}
}

func (p *Peer) User() domain.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user
}

func (p *Peer) State() ConnState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Peer) Control() core.ControlConn { return p.conn }
func (p *Peer) Media() core.MediaSink { return p.media }

// Cancel stops the peer's pumps; the adapter then runs disconnect cleanup.
func (p *Peer) Cancel() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Connections tracks logged-in peers by user id and hands out user ids.
type Connections struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]*Peer
	nextID atomic.Uint32
}

func NewConnections() *Connections {
	return &Connections{byUser: make(map[domain.UserID]*Peer)}
}

// Login moves p to ACTIVE under a fresh user id. Logging in again returns
// the existing identity unchanged.
func (c *Connections) Login(p *Peer, name string) (domain.User, error) {
	name, err := domain.NormalizeUsername(name)
	if err != nil {
		return domain.User{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateClosed:
		return domain.User{}, core.ErrConnClosed
	case StateActive:
		return p.user, nil
	}
	p.user = domain.User{ID: domain.UserID(c.nextID.Add(1)), Username: name}
	p.state = StateActive

	c.mu.Lock()
	c.byUser[p.user.ID] = p
	c.mu.Unlock()
	log.Info().Str("module", "app.connections").Stringer("user", p.user.ID).Str("name", name).Str("remote", p.conn.RemoteAddr()).Msg("logged in")
	return p.user, nil
}

// Close marks p CLOSED and unbinds it. It reports true only for the first call,
// so cleanup paths racing on the same peer run once.
func (c *Connections) Close(p *Peer) (domain.User, bool) {
	p.mu.Lock()
	prev := p.state
	p.state = StateClosed
	user := p.user
	p.mu.Unlock()
	if prev == StateClosed {
		return user, false
	}
	if prev == StateActive {
		c.mu.Lock()
		if c.byUser[user.ID] == p {
			delete(c.byUser, user.ID)
		}
		c.mu.Unlock()
		log.Info().Str("module", "app.connections").Stringer("user", user.ID).Msg("unbound")
	}
	return user, true
}

func (c *Connections) Get(id domain.UserID) (*Peer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byUser[id]
	return p, ok
}

func (c *Connections) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byUser)
}

// MediaSink returns the in-band media sink of user id, or nil.
func (c *Connections) MediaSink(id domain.UserID) core.MediaSink {
	p, ok := c.Get(id)
	if !ok {
		return nil
	}
	return p.media
}
