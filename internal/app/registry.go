package app

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultHistoryLimit = 100

var (
	ErrSessionExists       = errors.New("session already exists")
	ErrSessionNotFound     = errors.New("session not found")
	ErrAlreadyInSession    = errors.New("user already in a session")
	ErrNotInSession        = errors.New("user not in a session")
	ErrNotParticipant      = errors.New("target is not a participant of the session")
	ErrNotHost             = errors.New("only the host can perform this action")
	ErrNotPresenter        = errors.New("user is not the presenter")
	ErrScreenShareDisabled = errors.New("screen sharing disabled by host")
	ErrSelfTarget          = errors.New("host cannot target itself")
	ErrUnknownFile         = errors.New("unknown file")
)

type session struct {
	id           domain.SessionID
	host         domain.UserID
	participants []domain.UserID
	presenter    domain.UserID
	perms        map[domain.UserID]domain.Permissions
	media        map[domain.UserID]domain.MediaStatus
	joinedAt     map[domain.UserID]time.Time
	history      []domain.ChatEntry
	files        []domain.FileInfo
	createdAt    time.Time
}

func (s *session) has(u domain.UserID) bool {
	_, ok := s.perms[u]
	return ok
}

// LeaveResult describes what a departure changed, for notifications.
type LeaveResult struct {
	SessionID domain.SessionID
	User      domain.UserID
	// NewHost is non-zero when the host role moved to another participant.
	NewHost          domain.UserID
	PresenterCleared bool
	Destroyed        bool
	Remaining        []domain.UserID
}

// MediaRoute is the read-only view the relay needs for one sender.
type MediaRoute struct {
	SessionID  domain.SessionID
	Sender     domain.Permissions
	Recipients []domain.UserID
}

// Registry is the in-memory table of sessions. One mutex guards everything;
// participant counts are LAN-sized so contention stays low.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[domain.SessionID]*session
	memberOf     map[domain.UserID]domain.SessionID
	users        map[domain.UserID]domain.User
	aliases      map[domain.SessionID]struct{}
	historyLimit int
	now          func() time.Time
}

type RegistryOption func(*Registry)

// WithAliases declares session ids that name the same machine
// ("localhost", "127.0.0.1", the server address). See Join.
func WithAliases(ids ...string) RegistryOption {
	return func(r *Registry) {
		for _, id := range ids {
			if id != "" {
				r.aliases[domain.SessionID(id)] = struct{}{}
			}
		}
	}
}

func WithHistoryLimit(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.historyLimit = n
		}
	}
}

func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions:     make(map[domain.SessionID]*session),
		memberOf:     make(map[domain.UserID]domain.SessionID),
		users:        make(map[domain.UserID]domain.User),
		aliases:      make(map[domain.SessionID]struct{}),
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create installs a new session hosted by host.
func (r *Registry) Create(id domain.SessionID, host domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return ErrSessionExists
	}
	if _, ok := r.memberOf[host.ID]; ok {
		return ErrAlreadyInSession
	}
	now := r.now()
	r.sessions[id] = &session{
		id:           id,
		host:         host.ID,
		participants: []domain.UserID{host.ID},
		perms:        map[domain.UserID]domain.Permissions{host.ID: domain.HostPermissions()},
		media:        map[domain.UserID]domain.MediaStatus{},
		joinedAt:     map[domain.UserID]time.Time{host.ID: now},
		createdAt:    now,
	}
	r.memberOf[host.ID] = id
	r.users[host.ID] = host
	log.Info().Str("module", "app.registry").Str("session", string(id)).Stringer("host", host.ID).Msg("session created")
	return nil
}

// Join adds user to the session and returns the id actually joined.
// Joining a session the user is already in succeeds without changes.
//
// When id is unknown but is one of the configured aliases and exactly one
// existing session also carries an alias id, that session is joined instead.
func (r *Registry) Join(id domain.SessionID, user domain.User) (domain.SessionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s, ok = r.resolveAliasLocked(id)
		if !ok {
			return "", ErrSessionNotFound
		}
		log.Warn().Str("module", "app.registry").Str("requested", string(id)).Str("session", string(s.id)).Msg("joined session through alias")
	}
	if cur, in := r.memberOf[user.ID]; in {
		if cur == s.id {
			return s.id, nil
		}
		return "", ErrAlreadyInSession
	}
	s.participants = append(s.participants, user.ID)
	s.perms[user.ID] = domain.DefaultPermissions()
	s.joinedAt[user.ID] = r.now()
	r.memberOf[user.ID] = s.id
	r.users[user.ID] = user
	log.Info().Str("module", "app.registry").Str("session", string(s.id)).Stringer("user", user.ID).Msg("participant joined")
	return s.id, nil
}

func (r *Registry) resolveAliasLocked(id domain.SessionID) (*session, bool) {
	if _, ok := r.aliases[id]; !ok {
		return nil, false
	}
	var found *session
	for sid, s := range r.sessions {
		if _, ok := r.aliases[sid]; !ok {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = s
	}
	return found, found != nil
}

// Leave removes user from its session. ok is false when the user had none.
func (r *Registry) Leave(user domain.UserID) (LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(user)
}

func (r *Registry) leaveLocked(user domain.UserID) (LeaveResult, bool) {
	id, ok := r.memberOf[user]
	if !ok {
		return LeaveResult{}, false
	}
	s := r.sessions[id]
	res := LeaveResult{SessionID: id, User: user}

	s.participants = slices.DeleteFunc(s.participants, func(u domain.UserID) bool { return u == user })
	delete(s.perms, user)
	delete(s.media, user)
	delete(s.joinedAt, user)
	delete(r.memberOf, user)
	delete(r.users, user)

	if s.presenter == user {
		s.presenter = 0
		res.PresenterCleared = true
	}

	if len(s.participants) == 0 {
		delete(r.sessions, id)
		res.Destroyed = true
		log.Info().Str("module", "app.registry").Str("session", string(id)).Msg("session destroyed")
		return res, true
	}

	if s.host == user {
		next := s.participants[0]
		s.host = next
		p := s.perms[next]
		p.IsHost = true
		s.perms[next] = p
		res.NewHost = next
		log.Info().Str("module", "app.registry").Str("session", string(id)).Stringer("host", next).Msg("host transferred")
	}
	res.Remaining = slices.Clone(s.participants)
	log.Info().Str("module", "app.registry").Str("session", string(id)).Stringer("user", user).Msg("participant left")
	return res, true
}

func (r *Registry) IsHost(user domain.UserID, id domain.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return ok && s.host == user
}

func (r *Registry) GetHost(id domain.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return 0, false
	}
	return s.host, true
}

// GetParticipants returns participants in join order, or nil for an unknown session.
func (r *Registry) GetParticipants(id domain.SessionID) []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	return slices.Clone(s.participants)
}

func (r *Registry) SessionOf(user domain.UserID) (domain.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.memberOf[user]
	return id, ok
}

// RoomMates returns the session of user and every participant including user.
func (r *Registry) RoomMates(user domain.UserID) (domain.SessionID, []domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.memberOf[user]
	if !ok {
		return "", nil, false
	}
	return id, slices.Clone(r.sessions[id].participants), true
}

func (r *Registry) Permissions(id domain.SessionID, user domain.UserID) (domain.Permissions, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.Permissions{}, false
	}
	p, ok := s.perms[user]
	return p, ok
}

func (r *Registry) SetPermission(id domain.SessionID, target domain.UserID, perm domain.Permission, enabled bool) (domain.Permissions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.Permissions{}, ErrSessionNotFound
	}
	return r.setPermissionLocked(s, target, perm, enabled)
}

func (r *Registry) setPermissionLocked(s *session, target domain.UserID, perm domain.Permission, enabled bool) (domain.Permissions, error) {
	p, ok := s.perms[target]
	if !ok {
		return domain.Permissions{}, ErrNotParticipant
	}
	p = p.With(perm, enabled)
	s.perms[target] = p
	log.Info().Str("module", "app.registry").Str("session", string(s.id)).Stringer("user", target).Str("permission", string(perm)).Bool("enabled", enabled).Msg("permission updated")
	return p, nil
}

// PermissionChange is the outcome of a host toggling a participant's flag.
type PermissionChange struct {
	SessionID        domain.SessionID
	Permissions      domain.Permissions
	PresenterCleared bool
}

// HostSetPermission applies a permission change on behalf of actor, checking
// under the same lock that actor hosts the target's session.
// Revoking screen sharing from the current presenter also ends the presentation.
func (r *Registry) HostSetPermission(actor, target domain.UserID, perm domain.Permission, enabled bool) (PermissionChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.hostSessionLocked(actor)
	if err != nil {
		return PermissionChange{}, err
	}
	p, err := r.setPermissionLocked(s, target, perm, enabled)
	if err != nil {
		return PermissionChange{}, err
	}
	res := PermissionChange{SessionID: s.id, Permissions: p}
	if perm == domain.PermScreenShare && !enabled && s.presenter == target {
		s.presenter = 0
		res.PresenterCleared = true
	}
	return res, nil
}

// Kick removes target from actor's session. Only the host may kick, and not itself.
func (r *Registry) Kick(actor, target domain.UserID) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.hostSessionLocked(actor)
	if err != nil {
		return LeaveResult{}, err
	}
	if actor == target {
		return LeaveResult{}, ErrSelfTarget
	}
	if !s.has(target) {
		return LeaveResult{}, ErrNotParticipant
	}
	res, _ := r.leaveLocked(target)
	return res, nil
}

func (r *Registry) hostSessionLocked(actor domain.UserID) (*session, error) {
	id, ok := r.memberOf[actor]
	if !ok {
		return nil, ErrNotInSession
	}
	s := r.sessions[id]
	if s.host != actor {
		return nil, ErrNotHost
	}
	return s, nil
}

func (r *Registry) memberSessionLocked(actor domain.UserID) (*session, error) {
	id, ok := r.memberOf[actor]
	if !ok {
		return nil, ErrNotInSession
	}
	return r.sessions[id], nil
}

// RequestPresenter grants the presenter role to actor if nobody holds it.
// When denied, current is the existing presenter.
func (r *Registry) RequestPresenter(actor domain.UserID) (id domain.SessionID, granted bool, current domain.UserID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.memberSessionLocked(actor)
	if err != nil {
		return "", false, 0, err
	}
	if !s.perms[actor].ScreenShareEnabled {
		return s.id, false, s.presenter, ErrScreenShareDisabled
	}
	if s.presenter != 0 && s.presenter != actor {
		return s.id, false, s.presenter, nil
	}
	s.presenter = actor
	log.Info().Str("module", "app.registry").Str("session", string(s.id)).Stringer("presenter", actor).Msg("presenter granted")
	return s.id, true, actor, nil
}

// StopPresenting clears the presenter role if actor holds it.
func (r *Registry) StopPresenting(actor domain.UserID) (domain.SessionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.memberSessionLocked(actor)
	if err != nil {
		return "", err
	}
	if s.presenter != actor {
		return s.id, ErrNotPresenter
	}
	s.presenter = 0
	log.Info().Str("module", "app.registry").Str("session", string(s.id)).Stringer("user", actor).Msg("presenter released")
	return s.id, nil
}

func (r *Registry) Presenter(id domain.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.presenter == 0 {
		return 0, false
	}
	return s.presenter, true
}

// AppendChat records entry in actor's session transcript, keeping the most recent messages.
func (r *Registry) AppendChat(actor domain.UserID, entry domain.ChatEntry) (domain.SessionID, domain.ChatEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.memberSessionLocked(actor)
	if err != nil {
		return "", entry, err
	}
	entry.Sender = actor
	entry.SenderName = r.users[actor].Username
	s.history = append(s.history, entry)
	if over := len(s.history) - r.historyLimit; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
	return s.id, entry, nil
}

func (r *Registry) History(id domain.SessionID) []domain.ChatEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	return slices.Clone(s.history)
}

// AddFile registers shared file metadata in actor's session.
func (r *Registry) AddFile(actor domain.UserID, f domain.FileInfo) (domain.SessionID, domain.FileInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.memberSessionLocked(actor)
	if err != nil {
		return "", f, err
	}
	f.Uploader = actor
	s.files = append(s.files, f)
	log.Info().Str("module", "app.registry").Str("session", string(s.id)).Str("file", f.ID).Str("filename", f.Filename).Msg("file registered")
	return s.id, f, nil
}

// File looks up file metadata visible to actor.
func (r *Registry) File(actor domain.UserID, fileID string) (domain.FileInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, err := r.memberSessionLocked(actor)
	if err != nil {
		return domain.FileInfo{}, err
	}
	for _, f := range s.files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return domain.FileInfo{}, ErrUnknownFile
}

func (r *Registry) SetMediaStatus(actor domain.UserID, st domain.MediaStatus) (domain.SessionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.memberSessionLocked(actor)
	if err != nil {
		return "", err
	}
	s.media[actor] = st
	return s.id, nil
}

// MediaRoute resolves where a sender's media goes. It never mutates state.
func (r *Registry) MediaRoute(sender domain.UserID) (MediaRoute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.memberOf[sender]
	if !ok {
		return MediaRoute{}, false
	}
	s := r.sessions[id]
	route := MediaRoute{
		SessionID:  id,
		Sender:     s.perms[sender],
		Recipients: make([]domain.UserID, 0, len(s.participants)-1),
	}
	for _, u := range s.participants {
		if u != sender {
			route.Recipients = append(route.Recipients, u)
		}
	}
	return route, true
}

func (r *Registry) participantLocked(s *session, u domain.UserID) domain.Participant {
	return domain.Participant{
		User:        r.users[u],
		Permissions: s.perms[u],
		Media:       s.media[u],
		JoinedAt:    s.joinedAt[u],
	}
}

// Participant returns the view of one member of a session.
func (r *Registry) Participant(id domain.SessionID, u domain.UserID) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || !s.has(u) {
		return domain.Participant{}, false
	}
	return r.participantLocked(s, u), true
}

func (r *Registry) Snapshot(id domain.SessionID) (domain.SessionSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.SessionSnapshot{}, false
	}
	snap := domain.SessionSnapshot{
		ID:           s.id,
		Host:         s.host,
		Presenter:    s.presenter,
		Participants: make([]domain.Participant, 0, len(s.participants)),
		History:      slices.Clone(s.history),
		Files:        slices.Clone(s.files),
		CreatedAt:    s.createdAt,
	}
	for _, u := range s.participants {
		snap.Participants = append(snap.Participants, r.participantLocked(s, u))
	}
	return snap, true
}

func (r *Registry) List() []domain.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, domain.SessionInfo{
			ID:               s.id,
			Host:             s.host,
			ParticipantCount: len(s.participants),
			CreatedAt:        s.createdAt,
		})
	}
	slices.SortFunc(out, func(a, b domain.SessionInfo) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}
