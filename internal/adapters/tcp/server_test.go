package tcp

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/orch"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/core"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/framing"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
)

func startServer(t *testing.T, opts Options) (string, *orch.Orchestrator, context.CancelFunc) {
	t.Helper()
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Conns:    app.NewConnections(),
		Policy:   app.SimplePolicy{},
		ServerID: "test-server",
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(o, opts).Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return ln.Addr().String(), o, cancel
}

func dial(t *testing.T, addr string) (*protocol.Channel, net.Conn) {
	t.Helper()
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = nc.Close() })
	return protocol.NewChannel(nc, protocol.ChannelOptions{
		IdleTimeout:  2 * time.Second,
		FrameTimeout: time.Second,
		WriteTimeout: time.Second,
	}), nc
}

// expect reads until a message of type T arrives.
func expect[T protocol.Message](t *testing.T, ch *protocol.Channel) T {
	t.Helper()
	for {
		m, err := ch.Receive()
		if err != nil {
			var zero T
			t.Fatalf("waiting for %T: %v", zero, err)
		}
		if v, ok := m.(T); ok {
			return v
		}
	}
}

func expectClosed(t *testing.T, ch *protocol.Channel) {
	t.Helper()
	for {
		_, err := ch.Receive()
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) && !errors.Is(err, framing.ErrTruncated) {
			var ne net.Error
			if !errors.As(err, &ne) {
				t.Fatalf("err = %v, want closed connection", err)
			}
		}
		return
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionOverTCP(t *testing.T) {
	addr, o, _ := startServer(t, Options{})

	a, _ := dial(t, addr)
	_ = a.Send(&protocol.Login{Name: "alice"})
	ok := expect[*protocol.LoginOK](t, a)
	if ok.ServerID != "test-server" {
		t.Fatalf("login_ok = %+v", ok)
	}
	_ = a.Send(&protocol.CreateSession{SessionID: "S1"})
	expect[*protocol.SessionCreated](t, a)

	b, bConn := dial(t, addr)
	_ = b.Send(&protocol.JoinSession{SessionID: "S1", Name: "bob"})
	bob := expect[*protocol.LoginOK](t, b)
	joined := expect[*protocol.SessionJoined](t, b)
	if joined.Session.Host != ok.UserID || len(joined.Session.Participants) != 2 {
		t.Fatalf("joined = %+v", joined)
	}
	if uj := expect[*protocol.UserJoined](t, a); uj.User.User.ID != bob.UserID {
		t.Fatalf("user_joined = %+v", uj)
	}

	_ = bConn.Close()
	if ul := expect[*protocol.UserLeft](t, a); ul.UserID != bob.UserID {
		t.Fatalf("user_left = %+v", ul)
	}
	eventually(t, func() bool { return o.Conns.Count() == 1 })
}

func TestHeartbeatTimeoutDisconnects(t *testing.T) {
	addr, o, _ := startServer(t, Options{Channel: protocol.ChannelOptions{IdleTimeout: 100 * time.Millisecond}})
	c, _ := dial(t, addr)
	_ = c.Send(&protocol.Login{Name: "quiet"})
	expect[*protocol.LoginOK](t, c)
	expectClosed(t, c)
	eventually(t, func() bool { return o.Conns.Count() == 0 })
}

func TestHeartbeatKeepsAlive(t *testing.T) {
	addr, _, _ := startServer(t, Options{Channel: protocol.ChannelOptions{IdleTimeout: 150 * time.Millisecond}})
	c, _ := dial(t, addr)
	for i := 0; i < 5; i++ {
		_ = c.Send(&protocol.Heartbeat{})
		expect[*protocol.HeartbeatAck](t, c)
		time.Sleep(50 * time.Millisecond)
	}
}

func TestMalformedFrameKeepsConnection(t *testing.T) {
	addr, _, _ := startServer(t, Options{})
	c, nc := dial(t, addr)
	if err := framing.WriteFrame(nc, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if e := expect[*protocol.Error](t, c); e.Code != protocol.CodeBadRequest {
		t.Fatalf("error = %+v", e)
	}
	_ = c.Send(&protocol.Heartbeat{})
	expect[*protocol.HeartbeatAck](t, c)
}

func TestOversizedFrameDisconnects(t *testing.T) {
	addr, _, _ := startServer(t, Options{})
	c, nc := dial(t, addr)
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], framing.MaxFrameSize+1)
	if _, err := nc.Write(prefix[:]); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectClosed(t, c)
}

func TestShutdownClosesClients(t *testing.T) {
	addr, _, stop := startServer(t, Options{})
	c, _ := dial(t, addr)
	_ = c.Send(&protocol.Login{Name: "x"})
	expect[*protocol.LoginOK](t, c)
	stop()
	expectClosed(t, c)
}

func TestConnTrySend(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	c := newConn(protocol.NewChannel(server, protocol.ChannelOptions{}), 1)

	if err := c.TrySend(&protocol.Heartbeat{}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := c.TrySend(&protocol.Heartbeat{}); !errors.Is(err, core.ErrBackpressure) {
		t.Fatalf("full queue err = %v", err)
	}
	c.Close()
	c.Close()
	if err := c.TrySend(&protocol.Heartbeat{}); !errors.Is(err, core.ErrConnClosed) {
		t.Fatalf("closed err = %v", err)
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %v", c.State())
	}
}
