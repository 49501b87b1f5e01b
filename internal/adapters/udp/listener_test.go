package udp

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/relay"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
)

func TestListenerRelaysAudio(t *testing.T) {
	reg := app.NewRegistry()
	_ = reg.Create("S1", domain.User{ID: 1, Username: "a"})
	_, _ = reg.Join("S1", domain.User{ID: 2, Username: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	m := relay.NewManager(ctx, reg)

	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	l := &Listener{Kind: domain.MediaAudio, Relay: m}
	go func() { done <- l.Serve(ctx, server) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	}()

	dial := func() *net.UDPConn {
		c, err := net.DialUDP("udp", nil, server.LocalAddr().(*net.UDPAddr))
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
	a, b := dial(), dial()

	// b registers its address, a streams until b hears something.
	_, _ = b.Write(relay.EncodeAudio(2, 0, nil))
	pkt := relay.EncodeAudio(1, 960, []byte("opus"))
	buf := make([]byte, 1500)
	deadline := time.Now().Add(3 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("no audio relayed")
		}
		_, _ = a.Write(pkt)
		_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, err := b.Read(buf)
		if err != nil {
			continue
		}
		if !bytes.Equal(buf[:n], pkt) {
			t.Fatalf("got %x, want %x", buf[:n], pkt)
		}
		break
	}
	if st := m.Stats(); st.Registrations == 0 || st.Forwarded == 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestListenerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{Kind: domain.MediaVideo, Relay: relay.NewManager(ctx, app.NewRegistry())}
	done := make(chan error, 1)
	go func() { done <- l.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop")
	}
}
