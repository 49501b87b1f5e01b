// Package relay forwards media datagrams from one participant to the rest of
// its session. Delivery is fire-and-forget: no acks, no retransmission and no
// reordering; a slow path loses old packets rather than delaying new ones.
package relay

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/core"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultQueueSize = 2

var ErrUnknownSender = errors.New("sender is not in a session")

// RouteSource is the read path into the session registry.
type RouteSource interface {
	MediaRoute(sender domain.UserID) (app.MediaRoute, bool)
}

// SinkLookup finds transport-level media sinks for users that have one.
type SinkLookup interface {
	MediaSink(user domain.UserID) core.MediaSink
}

type Stats struct {
	Received      uint64 `json:"received"`
	Malformed     uint64 `json:"malformed"`
	Unrouted      uint64 `json:"unrouted"`
	Registrations uint64 `json:"registrations"`
	Evicted       uint64 `json:"evicted"`
	Muted         uint64 `json:"muted"`
	Forwarded     uint64 `json:"forwarded"`
	WriteErrors   uint64 `json:"write_errors"`
	Streams       int    `json:"streams"`
	Endpoints     int    `json:"endpoints"`
}

type counters struct {
	received, malformed, unrouted, registrations atomic.Uint64
	evicted, muted, forwarded, writeErrors       atomic.Uint64
}

type Manager struct {
	ctx       context.Context
	routes    RouteSource
	sinks     SinkLookup
	queueSize int

	mu        sync.RWMutex
	streams   map[mediaKey]*Stream
	endpoints map[mediaKey]*Endpoint
	writers   map[domain.MediaKind]core.PacketWriter

	stats counters
}

type Option func(*Manager)

func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

func WithSinks(s SinkLookup) Option {
	return func(m *Manager) { m.sinks = s }
}

// NewManager binds all stream goroutines to ctx.
func NewManager(ctx context.Context, routes RouteSource, opts ...Option) *Manager {
	m := &Manager{
		ctx:       ctx,
		routes:    routes,
		queueSize: DefaultQueueSize,
		streams:   make(map[mediaKey]*Stream),
		endpoints: make(map[mediaKey]*Endpoint),
		writers:   make(map[domain.MediaKind]core.PacketWriter),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AttachWriter sets the socket used to send datagrams of kind.
func (m *Manager) AttachWriter(kind domain.MediaKind, w core.PacketWriter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writers[kind] = w
}

// Ingest accepts one datagram. from is the source address, or the zero value
// when the packet arrived over a client's own transport. The returned error
// only classifies the drop; callers never reply to it.
func (m *Manager) Ingest(kind domain.MediaKind, from netip.AddrPort, datagram []byte) error {
	m.stats.received.Add(1)
	pkt, err := Parse(kind, datagram)
	if err != nil {
		m.stats.malformed.Add(1)
		return err
	}
	if _, ok := m.routes.MediaRoute(pkt.Sender); !ok {
		m.stats.unrouted.Add(1)
		return ErrUnknownSender
	}
	key := mediaKey{user: pkt.Sender, kind: kind}
	if from.IsValid() && !m.learn(key, from) {
		m.stats.unrouted.Add(1)
		return ErrUnknownSender
	}
	if len(pkt.Payload) == 0 {
		m.stats.registrations.Add(1)
		return nil
	}
	s, ok := m.stream(key)
	if !ok {
		m.stats.unrouted.Add(1)
		return ErrUnknownSender
	}
	if s.queue.Push(pkt) {
		m.stats.evicted.Add(1)
	}
	return nil
}

// routed must be called with m.mu held for writing. Forget runs after the
// registry drops a user, so a sender still routed here cannot have been
// forgotten yet.
func (m *Manager) routed(user domain.UserID) bool {
	_, ok := m.routes.MediaRoute(user)
	return ok
}

func (m *Manager) learn(key mediaKey, addr netip.AddrPort) bool {
	m.mu.RLock()
	ep, ok := m.endpoints[key]
	m.mu.RUnlock()
	if ok && ep.Addr == addr && ep.GetState() == EndpointOk {
		return true
	}
	m.mu.Lock()
	if !m.routed(key.user) {
		m.mu.Unlock()
		return false
	}
	m.endpoints[key] = NewEndpoint(addr)
	m.mu.Unlock()
	log.Debug().Str("module", "relay").Stringer("user", key.user).Stringer("kind", key.kind).Str("addr", addr.String()).Msg("media endpoint learned")
	return true
}

func (m *Manager) stream(key mediaKey) (*Stream, bool) {
	m.mu.RLock()
	s, ok := m.streams[key]
	m.mu.RUnlock()
	if ok {
		return s, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.streams[key]; ok {
		return s, true
	}
	if !m.routed(key.user) {
		return nil, false
	}
	logger := log.With().
		Str("module", "relay").
		Stringer("sender", key.user).
		Stringer("kind", key.kind).
		Logger()
	ctx, cancel := context.WithCancel(m.ctx)
	s = newStream(key, m.queueSize, cancel)
	m.streams[key] = s
	logger.Info().Msg("starting stream loop")
	go s.loop(ctx, m, &logger)
	return s, true
}

func allowed(p domain.Permissions, kind domain.MediaKind) bool {
	switch kind {
	case domain.MediaAudio:
		return p.AudioEnabled
	case domain.MediaVideo:
		return p.VideoEnabled
	}
	return false
}

// forward sends pkt to every other participant of the sender's session.
// Mute is enforced here, on the sender's permissions, so a muted sender's
// packets reach nobody.
func (m *Manager) forward(pkt Packet, logger *zerolog.Logger) {
	route, ok := m.routes.MediaRoute(pkt.Sender)
	if !ok {
		m.stats.unrouted.Add(1)
		return
	}
	if !allowed(route.Sender, pkt.Kind) {
		m.stats.muted.Add(1)
		return
	}

	m.mu.RLock()
	w := m.writers[pkt.Kind]
	targets := make([]*Endpoint, len(route.Recipients))
	for i, dst := range route.Recipients {
		targets[i] = m.endpoints[mediaKey{user: dst, kind: pkt.Kind}]
	}
	m.mu.RUnlock()

	var dirty []mediaKey
	for i, dst := range route.Recipients {
		if dst == pkt.Sender {
			continue
		}
		if ep := targets[i]; ep != nil && w != nil && ep.GetState() == EndpointOk {
			if _, err := w.WriteToUDPAddrPort(pkt.Raw, ep.Addr); err != nil {
				logger.Warn().Err(err).Stringer("dst", dst).Msg("relay write error, dropping endpoint")
				m.stats.writeErrors.Add(1)
				ep.MarkDelete()
				dirty = append(dirty, mediaKey{user: dst, kind: pkt.Kind})
			} else {
				m.stats.forwarded.Add(1)
			}
		}
		if m.sinks == nil {
			continue
		}
		if sink := m.sinks.MediaSink(dst); sink != nil {
			if err := sink.TrySendMedia(pkt.Kind, pkt.Raw); err != nil {
				m.stats.writeErrors.Add(1)
				continue
			}
			m.stats.forwarded.Add(1)
		}
	}

	// Cleanup is done outside the RLock.
	if len(dirty) > 0 {
		m.cleanupDeleted(dirty)
	}
}

func (m *Manager) cleanupDeleted(dirty []mediaKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range dirty {
		if ep, ok := m.endpoints[key]; ok && ep.GetState() == EndpointDelete {
			delete(m.endpoints, key)
		}
	}
}

// Forget stops user's streams and drops its endpoints.
func (m *Manager) Forget(user domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kind := range []domain.MediaKind{domain.MediaVideo, domain.MediaAudio} {
		key := mediaKey{user: user, kind: kind}
		if s, ok := m.streams[key]; ok {
			s.cancel()
			delete(m.streams, key)
		}
		if ep, ok := m.endpoints[key]; ok {
			ep.MarkDelete()
			delete(m.endpoints, key)
		}
	}
	log.Debug().Str("module", "relay").Stringer("user", user).Msg("forgot media state")
}

// HasStream reports whether a forwarding loop exists for user's media of kind.
func (m *Manager) HasStream(user domain.UserID, kind domain.MediaKind) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.streams[mediaKey{user: user, kind: kind}]
	return ok
}

// Endpoint returns the learned address of user for kind.
func (m *Manager) Endpoint(user domain.UserID, kind domain.MediaKind) (netip.AddrPort, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ep, ok := m.endpoints[mediaKey{user: user, kind: kind}]
	if !ok {
		return netip.AddrPort{}, false
	}
	return ep.Addr, true
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	streams, endpoints := len(m.streams), len(m.endpoints)
	m.mu.RUnlock()
	return Stats{
		Received:      m.stats.received.Load(),
		Malformed:     m.stats.malformed.Load(),
		Unrouted:      m.stats.unrouted.Load(),
		Registrations: m.stats.registrations.Load(),
		Evicted:       m.stats.evicted.Load(),
		Muted:         m.stats.muted.Load(),
		Forwarded:     m.stats.forwarded.Load(),
		WriteErrors:   m.stats.writeErrors.Load(),
		Streams:       streams,
		Endpoints:     endpoints,
	}
}
