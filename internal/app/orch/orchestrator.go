// Package orch routes control messages between connected peers and the
// session registry, and turns registry outcomes into notifications.
package orch

import (
	"errors"
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/relay"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/core"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Conns    *app.Connections
	Policy   app.Policy
	Relays   *relay.Manager
	// Attempts throttles create_session and join_session per connection.
	Attempts *app.RateLimiter[*app.Peer]
	// ServerID is the identity clients should join; sent as the hint on a join miss.
	ServerID string
	Now      func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Handle processes one decoded message from p. Until p logs in only login,
// create_session, join_session and heartbeat are accepted.
func (o *Orchestrator) Handle(p *app.Peer, m protocol.Message) {
	switch msg := m.(type) {
	case *protocol.Heartbeat:
		o.deliver(p, &protocol.HeartbeatAck{ServerTime: o.now()})
		return
	case *protocol.Login:
		o.login(p, msg.Name, msg.Kind())
		return
	case *protocol.CreateSession:
		o.createSession(p, msg)
		return
	case *protocol.JoinSession:
		o.joinSession(p, msg)
		return
	}

	switch p.State() {
	case app.StateActive:
	case app.StateClosed:
		return
	default:
		o.reject(p, m.Kind(), protocol.CodeUnauthenticated, "log in first")
		return
	}

	user := p.User()
	switch msg := m.(type) {
	case *protocol.Logout:
		o.leave(user.ID)
		p.Cancel()
	case *protocol.LeaveSession:
		o.leaveSession(p, user)
	case *protocol.Chat:
		o.chat(p, user, msg)
	case *protocol.PresenterRequest:
		o.requestPresenter(p, user)
	case *protocol.StopPresenting:
		o.stopPresenting(p, user)
	case *protocol.MediaStatusUpdate:
		o.mediaStatus(p, user, msg)
	case *protocol.HostPermissionToggle:
		o.togglePermission(p, user, msg)
	case *protocol.KickUser:
		o.kick(p, user, msg)
	case *protocol.FileOffer:
		o.fileOffer(p, user, msg)
	case *protocol.FileRequest:
		o.fileRequest(p, user, msg)
	case *protocol.ListParticipants:
		o.listParticipants(p, user)
	default:
		o.reject(p, m.Kind(), protocol.CodeUnknownType, "unsupported message type")
	}
}

// HandleDecodeError answers a frame that could not be decoded. The
// connection stays open.
func (o *Orchestrator) HandleDecodeError(p *app.Peer, err error) {
	var de *protocol.DecodeError
	kind := protocol.Kind("")
	if errors.As(err, &de) {
		kind = de.Type
	}
	code := protocol.CodeBadRequest
	if errors.Is(err, protocol.ErrUnknownType) {
		code = protocol.CodeUnknownType
	}
	log.Debug().Str("module", "orch").Str("remote", p.Control().RemoteAddr()).Err(err).Msg("undecodable message")
	o.reject(p, kind, code, err.Error())
}

// OnDisconnect runs the cleanup for a closed connection. Only the first call
// per peer has any effect.
func (o *Orchestrator) OnDisconnect(p *app.Peer) {
	user, first := o.Conns.Close(p)
	if o.Attempts != nil {
		o.Attempts.Forget(p)
	}
	if !first || user.ID == 0 {
		return
	}
	o.leave(user.ID)
	log.Info().Str("module", "orch").Stringer("user", user.ID).Msg("peer disconnected")
}

func (o *Orchestrator) login(p *app.Peer, name string, req protocol.Kind) bool {
	user, err := o.Conns.Login(p, name)
	if err != nil {
		if errors.Is(err, core.ErrConnClosed) {
			return false
		}
		o.reject(p, req, protocol.CodeBadRequest, err.Error())
		return false
	}
	if req == protocol.KindLogin {
		o.deliver(p, &protocol.LoginOK{UserID: user.ID, Name: user.Username, ServerID: o.ServerID})
	}
	return true
}

// ensureLogin logs p in with name if it is not active yet.
func (o *Orchestrator) ensureLogin(p *app.Peer, name string, req protocol.Kind) bool {
	switch p.State() {
	case app.StateActive:
		return true
	case app.StateClosed:
		return false
	}
	if name == "" {
		o.reject(p, req, protocol.CodeUnauthenticated, "log in first or include a name")
		return false
	}
	if !o.login(p, name, req) {
		return false
	}
	u := p.User()
	o.deliver(p, &protocol.LoginOK{UserID: u.ID, Name: u.Username, ServerID: o.ServerID})
	return true
}

func (o *Orchestrator) allowAttempt(p *app.Peer, req protocol.Kind) bool {
	if o.Attempts == nil || o.Attempts.Allow(p) {
		return true
	}
	o.reject(p, req, protocol.CodeRateLimited, "too many attempts, slow down")
	return false
}

func (o *Orchestrator) reject(p *app.Peer, req protocol.Kind, code protocol.ErrorCode, msg string) {
	o.deliver(p, &protocol.Error{Code: code, Message: msg, Request: req})
}

// deliver queues m for p and applies the backpressure policy when p's
// outbound queue is full.
func (o *Orchestrator) deliver(p *app.Peer, m protocol.Message) {
	err := p.Control().TrySend(m)
	if err == nil || errors.Is(err, core.ErrConnClosed) {
		return
	}
	if !errors.Is(err, core.ErrBackpressure) {
		log.Warn().Str("module", "orch").Err(err).Str("type", string(m.Kind())).Msg("send failed")
		return
	}
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(p) {
	case app.KickMember:
		log.Warn().Str("module", "orch").Stringer("user", p.User().ID).Str("type", string(m.Kind())).Msg("slow peer, disconnecting")
		p.Cancel()
	case app.DropMessage, app.NoAction:
		log.Debug().Str("module", "orch").Stringer("user", p.User().ID).Str("type", string(m.Kind())).Msg("slow peer, message dropped")
	}
}

func (o *Orchestrator) sendTo(id domain.UserID, m protocol.Message) {
	if p, ok := o.Conns.Get(id); ok {
		o.deliver(p, m)
	}
}

// broadcast sends m to every id except skip (zero skips nobody).
func (o *Orchestrator) broadcast(ids []domain.UserID, skip domain.UserID, m protocol.Message) {
	for _, id := range ids {
		if id != skip {
			o.sendTo(id, m)
		}
	}
}

// room sends m to all participants of user's session except skip.
func (o *Orchestrator) room(user, skip domain.UserID, m protocol.Message) {
	if _, ids, ok := o.Registry.RoomMates(user); ok {
		o.broadcast(ids, skip, m)
	}
}

func codeFor(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, app.ErrNotInSession):
		return protocol.CodeNotInSession
	case errors.Is(err, app.ErrNotHost):
		return protocol.CodeNotHost
	case errors.Is(err, app.ErrNotParticipant):
		return protocol.CodeUnknownUser
	case errors.Is(err, app.ErrNotPresenter):
		return protocol.CodeNotPresenter
	case errors.Is(err, app.ErrSessionExists):
		return protocol.CodeSessionExists
	case errors.Is(err, app.ErrSessionNotFound):
		return protocol.CodeSessionNotFound
	case errors.Is(err, app.ErrAlreadyInSession):
		return protocol.CodeAlreadyInSession
	case errors.Is(err, app.ErrUnknownFile):
		return protocol.CodeUnknownFile
	}
	return protocol.CodeBadRequest
}
