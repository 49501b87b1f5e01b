package orch

import (
	"errors"
	"strings"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) createSession(p *app.Peer, msg *protocol.CreateSession) {
	if !o.allowAttempt(p, msg.Kind()) || !o.ensureLogin(p, msg.Name, msg.Kind()) {
		return
	}
	user := p.User()
	if cur, ok := o.Registry.SessionOf(user.ID); ok {
		if o.Registry.IsHost(user.ID, cur) {
			o.deliver(p, &protocol.SessionCreated{SessionID: cur, AlreadyHosting: true})
			return
		}
		o.reject(p, msg.Kind(), protocol.CodeAlreadyInSession, app.ErrAlreadyInSession.Error())
		return
	}

	id := domain.SessionID(strings.TrimSpace(string(msg.SessionID)))
	if id == "" {
		id = domain.SessionID(uuid.NewString())
	}
	if err := o.Registry.Create(id, user); err != nil {
		o.deliver(p, &protocol.Error{Code: codeFor(err), Message: err.Error(), Request: msg.Kind(), SessionID: id})
		return
	}
	o.deliver(p, &protocol.SessionCreated{SessionID: id})
}

func (o *Orchestrator) joinSession(p *app.Peer, msg *protocol.JoinSession) {
	if !o.allowAttempt(p, msg.Kind()) || !o.ensureLogin(p, msg.Name, msg.Kind()) {
		return
	}
	user := p.User()
	requested := domain.SessionID(strings.TrimSpace(string(msg.SessionID)))
	if requested == "" {
		o.reject(p, msg.Kind(), protocol.CodeBadRequest, "session_id required")
		return
	}
	_, wasMember := o.Registry.SessionOf(user.ID)

	id, err := o.Registry.Join(requested, user)
	if err != nil {
		reply := &protocol.Error{Code: codeFor(err), Message: err.Error(), Request: msg.Kind(), SessionID: requested}
		if errors.Is(err, app.ErrSessionNotFound) {
			reply.Hint = o.ServerID
		}
		o.deliver(p, reply)
		return
	}

	snap, ok := o.Registry.Snapshot(id)
	if !ok {
		// Emptied and destroyed between Join and Snapshot.
		o.reject(p, msg.Kind(), protocol.CodeSessionNotFound, app.ErrSessionNotFound.Error())
		return
	}
	joined := &protocol.SessionJoined{Session: snap}
	if id != requested {
		joined.Requested = requested
	}
	o.deliver(p, joined)

	if wasMember {
		return
	}
	if me, ok := o.Registry.Participant(id, user.ID); ok {
		o.broadcast(o.Registry.GetParticipants(id), user.ID, &protocol.UserJoined{SessionID: id, User: me})
	}
}

func (o *Orchestrator) leaveSession(p *app.Peer, user domain.User) {
	res, ok := o.leave(user.ID)
	if !ok {
		o.reject(p, protocol.KindLeaveSession, protocol.CodeNotInSession, app.ErrNotInSession.Error())
		return
	}
	o.deliver(p, &protocol.Left{SessionID: res.SessionID})
}

// leave removes user from its session, drops its media state and notifies
// the participants that remain.
func (o *Orchestrator) leave(user domain.UserID) (app.LeaveResult, bool) {
	res, ok := o.Registry.Leave(user)
	if o.Relays != nil {
		o.Relays.Forget(user)
	}
	if !ok {
		return res, false
	}
	o.broadcast(res.Remaining, 0, &protocol.UserLeft{SessionID: res.SessionID, UserID: user})
	o.announceRoleChanges(res)
	return res, true
}

func (o *Orchestrator) announceRoleChanges(res app.LeaveResult) {
	if res.NewHost != 0 {
		o.broadcast(res.Remaining, 0, &protocol.HostChanged{SessionID: res.SessionID, HostID: res.NewHost})
		if perms, ok := o.Registry.Permissions(res.SessionID, res.NewHost); ok {
			o.sendTo(res.NewHost, &protocol.PermissionChanged{Permissions: perms})
		}
	}
	if res.PresenterCleared {
		o.broadcast(res.Remaining, 0, &protocol.PresenterChanged{SessionID: res.SessionID})
	}
}

// kick removes the target from the host's session. The target's connection
// stays open; it may join again.
func (o *Orchestrator) kick(p *app.Peer, host domain.User, msg *protocol.KickUser) {
	res, err := o.Registry.Kick(host.ID, msg.TargetID)
	if err != nil {
		o.reject(p, msg.Kind(), codeFor(err), err.Error())
		return
	}
	if o.Relays != nil {
		o.Relays.Forget(msg.TargetID)
	}
	o.sendTo(msg.TargetID, &protocol.Kicked{SessionID: res.SessionID, By: host.ID})
	o.broadcast(res.Remaining, 0, &protocol.UserKicked{SessionID: res.SessionID, UserID: msg.TargetID})
	o.announceRoleChanges(res)
	log.Info().Str("module", "orch").Str("session", string(res.SessionID)).Stringer("host", host.ID).Stringer("user", msg.TargetID).Msg("user kicked")
}

func (o *Orchestrator) chat(p *app.Peer, user domain.User, msg *protocol.Chat) {
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		o.reject(p, msg.Kind(), protocol.CodeBadRequest, "empty message")
		return
	}
	now := o.now()
	entry := domain.ChatEntry{
		ID:      ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Message: text,
		SentAt:  now,
	}
	id, entry, err := o.Registry.AppendChat(user.ID, entry)
	if err != nil {
		o.reject(p, msg.Kind(), codeFor(err), err.Error())
		return
	}
	o.room(user.ID, 0, &protocol.ChatMessage{SessionID: id, Entry: entry})
}

func (o *Orchestrator) fileOffer(p *app.Peer, user domain.User, msg *protocol.FileOffer) {
	name := strings.TrimSpace(msg.Filename)
	if name == "" || msg.Size < 0 {
		o.reject(p, msg.Kind(), protocol.CodeBadRequest, "filename and a non-negative size are required")
		return
	}
	f := domain.FileInfo{
		ID:         uuid.NewString(),
		Filename:   name,
		Size:       msg.Size,
		UploadedAt: o.now(),
	}
	_, f, err := o.Registry.AddFile(user.ID, f)
	if err != nil {
		o.reject(p, msg.Kind(), codeFor(err), err.Error())
		return
	}
	o.room(user.ID, 0, &protocol.FileAvailable{File: f})
}

func (o *Orchestrator) fileRequest(p *app.Peer, user domain.User, msg *protocol.FileRequest) {
	f, err := o.Registry.File(user.ID, msg.FileID)
	if err != nil {
		o.reject(p, msg.Kind(), codeFor(err), err.Error())
		return
	}
	o.deliver(p, &protocol.FileInfo{File: f})
}

func (o *Orchestrator) listParticipants(p *app.Peer, user domain.User) {
	id, ok := o.Registry.SessionOf(user.ID)
	if !ok {
		o.reject(p, protocol.KindListParticipants, protocol.CodeNotInSession, app.ErrNotInSession.Error())
		return
	}
	snap, ok := o.Registry.Snapshot(id)
	if !ok {
		o.reject(p, protocol.KindListParticipants, protocol.CodeNotInSession, app.ErrNotInSession.Error())
		return
	}
	o.deliver(p, &protocol.Participants{SessionID: id, Participants: snap.Participants})
}
