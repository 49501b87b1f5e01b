package orch

import (
	"errors"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
	"github.com/rs/zerolog/log"
)

const reasonPresenterBusy = "another participant is presenting"

func (o *Orchestrator) requestPresenter(p *app.Peer, user domain.User) {
	id, granted, current, err := o.Registry.RequestPresenter(user.ID)
	switch {
	case errors.Is(err, app.ErrScreenShareDisabled):
		o.deliver(p, &protocol.PresenterDenied{Reason: err.Error(), PresenterID: current})
		return
	case err != nil:
		o.reject(p, protocol.KindPresenterRequest, codeFor(err), err.Error())
		return
	case !granted:
		o.deliver(p, &protocol.PresenterDenied{Reason: reasonPresenterBusy, PresenterID: current})
		return
	}
	o.deliver(p, &protocol.PresenterGranted{})
	o.room(user.ID, user.ID, &protocol.PresenterChanged{SessionID: id, PresenterID: user.ID})
}

func (o *Orchestrator) stopPresenting(p *app.Peer, user domain.User) {
	id, err := o.Registry.StopPresenting(user.ID)
	if err != nil {
		o.reject(p, protocol.KindStopPresenting, codeFor(err), err.Error())
		return
	}
	o.room(user.ID, 0, &protocol.PresenterChanged{SessionID: id})
}

// mediaStatus records what the user says it is sending. It is informational;
// forwarding is gated by the host-controlled permissions.
func (o *Orchestrator) mediaStatus(p *app.Peer, user domain.User, msg *protocol.MediaStatusUpdate) {
	st := domain.MediaStatus{VideoEnabled: msg.VideoEnabled, AudioEnabled: msg.AudioEnabled}
	if _, err := o.Registry.SetMediaStatus(user.ID, st); err != nil {
		o.reject(p, msg.Kind(), codeFor(err), err.Error())
		return
	}
	o.room(user.ID, 0, &protocol.MediaStatus{UserID: user.ID, VideoEnabled: st.VideoEnabled, AudioEnabled: st.AudioEnabled})
}

func (o *Orchestrator) togglePermission(p *app.Peer, host domain.User, msg *protocol.HostPermissionToggle) {
	perm, err := domain.ParsePermission(msg.Permission)
	if err != nil {
		o.reject(p, msg.Kind(), protocol.CodeBadRequest, err.Error())
		return
	}
	change, err := o.Registry.HostSetPermission(host.ID, msg.TargetID, perm, msg.Enabled)
	if err != nil {
		o.reject(p, msg.Kind(), codeFor(err), err.Error())
		return
	}
	o.sendTo(msg.TargetID, &protocol.PermissionChanged{Permissions: change.Permissions, By: host.ID})
	o.room(host.ID, 0, &protocol.UserPermissionUpdated{UserID: msg.TargetID, Permissions: change.Permissions})
	if change.PresenterCleared {
		o.room(host.ID, 0, &protocol.PresenterChanged{SessionID: change.SessionID})
	}
	log.Info().Str("module", "orch").Str("session", string(change.SessionID)).Stringer("host", host.ID).Stringer("user", msg.TargetID).Str("permission", string(perm)).Bool("enabled", msg.Enabled).Msg("permission toggled")
}
