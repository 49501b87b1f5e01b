package app

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
)

func user(id domain.UserID) domain.User {
	return domain.User{ID: id, Username: fmt.Sprintf("user-%d", id)}
}

func hostCount(t *testing.T, r *Registry, id domain.SessionID) int {
	t.Helper()
	snap, ok := r.Snapshot(id)
	if !ok {
		t.Fatalf("session %q missing", id)
	}
	n := 0
	for _, p := range snap.Participants {
		if p.Permissions.IsHost {
			n++
			if p.User.ID != snap.Host {
				t.Fatalf("is_host set on %d but host is %d", p.User.ID, snap.Host)
			}
		}
	}
	return n
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()
	if err := r.Create("S1", user(1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Create("S1", user(2)); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("duplicate create err = %v", err)
	}
	if err := r.Create("S2", user(1)); !errors.Is(err, ErrAlreadyInSession) {
		t.Fatalf("second session for host err = %v", err)
	}
	if !r.IsHost(1, "S1") {
		t.Fatal("creator is not host")
	}
	if got := r.GetParticipants("S1"); !slices.Equal(got, []domain.UserID{1}) {
		t.Fatalf("participants = %v", got)
	}
	p, _ := r.Permissions("S1", 1)
	if p != domain.HostPermissions() {
		t.Fatalf("host permissions = %+v", p)
	}
}

func TestRegistryJoin(t *testing.T) {
	r := NewRegistry()
	_ = r.Create("S1", user(1))

	if _, err := r.Join("nope", user(2)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("join unknown err = %v", err)
	}
	for i := 0; i < 2; i++ {
		got, err := r.Join("S1", user(2))
		if err != nil || got != "S1" {
			t.Fatalf("join #%d = %q, %v", i, got, err)
		}
	}
	if got := r.GetParticipants("S1"); !slices.Equal(got, []domain.UserID{1, 2}) {
		t.Fatalf("participants = %v, want no duplicate", got)
	}
	p, _ := r.Permissions("S1", 2)
	if p != domain.DefaultPermissions() {
		t.Fatalf("joiner permissions = %+v", p)
	}

	_ = r.Create("S2", user(3))
	if _, err := r.Join("S2", user(2)); !errors.Is(err, ErrAlreadyInSession) {
		t.Fatalf("join second session err = %v", err)
	}
}

func TestRegistryJoinAlias(t *testing.T) {
	r := NewRegistry(WithAliases("localhost", "127.0.0.1", "192.168.1.20"))
	_ = r.Create("192.168.1.20", user(1))

	got, err := r.Join("localhost", user(2))
	if err != nil || got != "192.168.1.20" {
		t.Fatalf("alias join = %q, %v", got, err)
	}

	if _, err := r.Join("10.9.9.9", user(3)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("non-alias miss err = %v", err)
	}

	_ = r.Create("127.0.0.1", user(4))
	if _, err := r.Join("localhost", user(5)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("ambiguous alias err = %v", err)
	}
}

func TestRegistryLeaveTransfersHost(t *testing.T) {
	r := NewRegistry()
	_ = r.Create("S1", user(1))
	_, _ = r.Join("S1", user(2))
	_, _ = r.Join("S1", user(3))

	res, ok := r.Leave(1)
	if !ok || res.SessionID != "S1" || res.NewHost != 2 || res.Destroyed {
		t.Fatalf("leave = %+v, %v", res, ok)
	}
	if h, _ := r.GetHost("S1"); h != 2 {
		t.Fatalf("host = %d, want 2", h)
	}
	if n := hostCount(t, r, "S1"); n != 1 {
		t.Fatalf("%d hosts after transfer", n)
	}
	if _, ok := r.Permissions("S1", 1); ok {
		t.Fatal("leaver kept permission record")
	}

	res, _ = r.Leave(3)
	if res.NewHost != 0 {
		t.Fatalf("non-host leave moved host: %+v", res)
	}
	res, _ = r.Leave(2)
	if !res.Destroyed {
		t.Fatal("empty session not destroyed")
	}
	if _, ok := r.GetHost("S1"); ok {
		t.Fatal("destroyed session still present")
	}
	if _, ok := r.Leave(2); ok {
		t.Fatal("leave without session reported ok")
	}
}

func TestRegistryJoinLeaveReplay(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 200; round++ {
		r := NewRegistry()
		_ = r.Create("S", user(1))
		members := map[domain.UserID]bool{1: true}
		for step := 0; step < 40; step++ {
			u := domain.UserID(rng.IntN(8) + 1)
			if rng.IntN(2) == 0 {
				if _, err := r.Join("S", user(u)); err != nil {
					if len(members) == 0 && errors.Is(err, ErrSessionNotFound) {
						_ = r.Create("S", user(u))
						members[u] = true
						continue
					}
					t.Fatalf("round %d join %d: %v", round, u, err)
				}
				members[u] = true
			} else {
				r.Leave(u)
				delete(members, u)
			}
			got := r.GetParticipants("S")
			if len(got) != len(members) {
				t.Fatalf("round %d: participants %v, want %v", round, got, members)
			}
			for _, id := range got {
				if !members[id] {
					t.Fatalf("round %d: unexpected participant %d", round, id)
				}
			}
			if len(members) > 0 {
				if n := hostCount(t, r, "S"); n != 1 {
					t.Fatalf("round %d: %d hosts", round, n)
				}
			}
		}
	}
}

func TestRegistryConcurrentPresenterRequest(t *testing.T) {
	for i := 0; i < 100; i++ {
		r := NewRegistry()
		_ = r.Create("S1", user(1))
		_, _ = r.Join("S1", user(2))
		_, _ = r.Join("S1", user(3))

		var wg sync.WaitGroup
		results := make([]bool, 2)
		for j, u := range []domain.UserID{2, 3} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, granted, _, err := r.RequestPresenter(u)
				if err != nil {
					t.Errorf("request: %v", err)
				}
				results[j] = granted
			}()
		}
		wg.Wait()
		if results[0] == results[1] {
			t.Fatalf("iteration %d: granted = %v, want exactly one", i, results)
		}
	}
}

func TestRegistryPresenterLifecycle(t *testing.T) {
	r := NewRegistry()
	_ = r.Create("S1", user(1))
	_, _ = r.Join("S1", user(2))

	if _, err := r.StopPresenting(2); !errors.Is(err, ErrNotPresenter) {
		t.Fatalf("stop without role err = %v", err)
	}
	if _, granted, _, _ := r.RequestPresenter(2); !granted {
		t.Fatal("first request denied")
	}
	_, granted, cur, _ := r.RequestPresenter(1)
	if granted || cur != 2 {
		t.Fatalf("second request granted=%v current=%d", granted, cur)
	}
	res, _ := r.Leave(2)
	if !res.PresenterCleared {
		t.Fatal("presenter not cleared on leave")
	}
	if _, ok := r.Presenter("S1"); ok {
		t.Fatal("presenter still set")
	}

	_, _ = r.Join("S1", user(3))
	_, _, _, _ = r.RequestPresenter(3)
	change, err := r.HostSetPermission(1, 3, domain.PermScreenShare, false)
	if err != nil || !change.PresenterCleared {
		t.Fatalf("revoke screen share = %+v, %v", change, err)
	}
	if _, _, _, err := r.RequestPresenter(3); !errors.Is(err, ErrScreenShareDisabled) {
		t.Fatalf("request with screen share disabled err = %v", err)
	}
}

func TestRegistryHostOnlyOperations(t *testing.T) {
	r := NewRegistry()
	_ = r.Create("S1", user(1))
	_, _ = r.Join("S1", user(2))
	_, _ = r.Join("S1", user(3))
	_ = r.Create("S2", user(9))

	if _, err := r.HostSetPermission(2, 3, domain.PermAudio, false); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-host toggle err = %v", err)
	}
	if _, err := r.Kick(2, 3); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-host kick err = %v", err)
	}
	if _, err := r.Kick(1, 1); !errors.Is(err, ErrSelfTarget) {
		t.Fatalf("self kick err = %v", err)
	}
	if _, err := r.Kick(1, 9); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("cross-session kick err = %v", err)
	}
	if _, err := r.SetPermission("S1", 42, domain.PermAudio, false); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("unknown target err = %v", err)
	}
	if _, err := r.SetPermission("zz", 2, domain.PermAudio, false); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown session err = %v", err)
	}

	change, err := r.HostSetPermission(1, 3, domain.PermAudio, false)
	if err != nil || change.Permissions.AudioEnabled {
		t.Fatalf("toggle = %+v, %v", change, err)
	}
	res, err := r.Kick(1, 3)
	if err != nil || res.User != 3 {
		t.Fatalf("kick = %+v, %v", res, err)
	}
	if slices.Contains(r.GetParticipants("S1"), 3) {
		t.Fatal("kicked user still listed")
	}
}

func TestRegistryChatHistoryBounded(t *testing.T) {
	r := NewRegistry(WithHistoryLimit(3))
	_ = r.Create("S1", user(1))
	if _, _, err := r.AppendChat(5, domain.ChatEntry{Message: "x"}); !errors.Is(err, ErrNotInSession) {
		t.Fatalf("non-member chat err = %v", err)
	}
	for i := 0; i < 5; i++ {
		_, _, _ = r.AppendChat(1, domain.ChatEntry{Message: fmt.Sprint(i)})
	}
	h := r.History("S1")
	if len(h) != 3 || h[0].Message != "2" || h[2].Message != "4" {
		t.Fatalf("history = %+v", h)
	}
	if h[0].Sender != 1 || h[0].SenderName != "user-1" {
		t.Fatalf("sender not stamped: %+v", h[0])
	}
}

func TestRegistryFiles(t *testing.T) {
	r := NewRegistry()
	_ = r.Create("S1", user(1))
	_, _ = r.Join("S1", user(2))
	_, f, err := r.AddFile(2, domain.FileInfo{ID: "f1", Filename: "a.txt", Size: 3})
	if err != nil || f.Uploader != 2 {
		t.Fatalf("add file = %+v, %v", f, err)
	}
	if got, err := r.File(1, "f1"); err != nil || got.Filename != "a.txt" {
		t.Fatalf("file = %+v, %v", got, err)
	}
	if _, err := r.File(1, "nope"); !errors.Is(err, ErrUnknownFile) {
		t.Fatalf("unknown file err = %v", err)
	}
}

func TestRegistryMediaRoute(t *testing.T) {
	r := NewRegistry()
	_ = r.Create("S1", user(1))
	_, _ = r.Join("S1", user(2))
	_, _ = r.Join("S1", user(3))

	route, ok := r.MediaRoute(2)
	if !ok || route.SessionID != "S1" {
		t.Fatalf("route = %+v, %v", route, ok)
	}
	if !slices.Equal(route.Recipients, []domain.UserID{1, 3}) {
		t.Fatalf("recipients = %v", route.Recipients)
	}
	if _, ok := r.MediaRoute(99); ok {
		t.Fatal("route for unknown sender")
	}
}
