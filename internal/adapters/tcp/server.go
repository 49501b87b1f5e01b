// Package tcp accepts control clients and runs one reader and one writer per
// connection.
package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/orch"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/framing"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
	"github.com/rs/zerolog/log"
)

const DefaultSendQueue = 64

type Options struct {
	// SendQueue bounds the outbound messages waiting for one client.
	SendQueue int
	Channel   protocol.ChannelOptions
}

type Server struct {
	Orch *orch.Orchestrator
	Opts Options
}

func NewServer(o *orch.Orchestrator, opts Options) *Server {
	if opts.SendQueue <= 0 {
		opts.SendQueue = DefaultSendQueue
	}
	return &Server{Orch: o, Opts: opts}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts until ctx is done or ln fails. Connections already accepted
// are canceled with ctx and clean up on their own.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info().Str("module", "tcp").Str("addr", ln.Addr().String()).Msg("control listener started")
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info().Str("module", "tcp").Msg("control listener stopped")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
				log.Warn().Str("module", "tcp").Err(err).Dur("retry", backoff).Msg("accept")
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0
		go s.handle(ctx, nc)
	}
}

func (s *Server) handle(ctx context.Context, nc net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newConn(protocol.NewChannel(nc, s.Opts.Channel), s.Opts.SendQueue)
	p := app.NewPeer(c, nil, cancel)
	logger := log.With().Str("module", "tcp").Str("remote", c.remote).Logger()
	logger.Info().Msg("client connected")
	c.setState(StateConnected)

	// Stop reading on cancel but keep the write side so queued replies flush.
	go func() {
		<-ctx.Done()
		if cr, ok := nc.(interface{ CloseRead() error }); ok {
			_ = cr.CloseRead()
			return
		}
		_ = nc.Close()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx, c, p)
	}()

	s.readPump(ctx, c, p)

	c.setState(StateDisconnecting)
	cancel()
	<-writerDone
	c.Close()
	s.Orch.OnDisconnect(p)
	logger.Info().Stringer("user", p.User().ID).Msg("client cleanup done")
}

func (s *Server) readPump(ctx context.Context, c *Conn, p *app.Peer) {
	for {
		m, err := c.ch.Receive()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			var de *protocol.DecodeError
			switch {
			case errors.As(err, &de):
				s.Orch.HandleDecodeError(p, err)
				continue
			case errors.Is(err, io.EOF):
				log.Info().Str("module", "tcp").Str("remote", c.remote).Msg("client closed connection")
			case errors.Is(err, protocol.ErrIdleTimeout):
				log.Warn().Str("module", "tcp").Str("remote", c.remote).Msg("heartbeat timeout")
			case errors.Is(err, framing.ErrTruncated), errors.Is(err, framing.ErrFrameTooLarge):
				log.Warn().Str("module", "tcp").Str("remote", c.remote).Err(err).Msg("protocol error")
			default:
				log.Warn().Str("module", "tcp").Str("remote", c.remote).Err(err).Msg("read error")
			}
			return
		}
		s.Orch.Handle(p, m)
	}
}

// writePump sends queued messages until ctx is done, then flushes what is
// already queued. A write error cancels the connection.
func (s *Server) writePump(ctx context.Context, c *Conn, p *app.Peer) {
	for {
		select {
		case <-ctx.Done():
			s.flush(c)
			return
		case m := <-c.send:
			if err := c.ch.Send(m); err != nil {
				log.Warn().Str("module", "tcp").Str("remote", c.remote).Err(err).Msg("write error")
				p.Cancel()
				return
			}
		}
	}
}

func (s *Server) flush(c *Conn) {
	for {
		select {
		case m := <-c.send:
			if err := c.ch.Send(m); err != nil {
				return
			}
		default:
			return
		}
	}
}
