// Package ws lets browsers speak the control protocol over a websocket:
// text frames carry the JSON envelope, binary frames carry media as one
// kind byte followed by the datagram.
package ws

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/orch"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/relay"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/framing"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errSpoofedSender = errors.New("media sender does not match connection")

type Options struct {
	SendQueue    int
	MediaQueue   int
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
}

type Gateway struct {
	Orch  *orch.Orchestrator
	Relay *relay.Manager
	Opts  Options

	upgrader websocket.Upgrader
}

func NewGateway(o *orch.Orchestrator, r *relay.Manager, opts Options) *Gateway {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Gateway{
		Orch:  o,
		Relay: r,
		Opts:  opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and runs the connection until it ends.
// token identifies the browser across reconnects in logs.
func (g *Gateway) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, token string) {
	wsConn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	wsConn.SetReadLimit(framing.MaxFrameSize)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newConn(wsConn, token, g.Opts.SendQueue, g.Opts.MediaQueue)
	p := app.NewPeer(c, c, cancel)
	logger := log.With().Str("module", "ws").Str("token", token).Str("remote", c.remote).Logger()
	logger.Info().Msg("new WS connection")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		g.writePump(ctx, c, p, &logger)
	}()
	go func() {
		<-ctx.Done()
		<-writerDone
		c.Close()
	}()

	g.readPump(ctx, c, p, &logger)

	cancel()
	<-writerDone
	c.Close()
	g.Orch.OnDisconnect(p)
	logger.Info().Stringer("user", p.User().ID).Msg("readPump closing")
}

func (g *Gateway) readPump(ctx context.Context, c *Conn, p *app.Peer, logger *zerolog.Logger) {
	for {
		if g.Opts.IdleTimeout > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(g.Opts.IdleTimeout))
		}
		mt, data, err := c.ws.ReadMessage()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info().Msg("client closed connection")
			} else {
				logger.Warn().Err(err).Msg("readPump read error")
			}
			return
		}
		switch mt {
		case websocket.TextMessage:
			m, err := protocol.Decode(data)
			if err != nil {
				g.Orch.HandleDecodeError(p, err)
				continue
			}
			g.Orch.Handle(p, m)
		case websocket.BinaryMessage:
			if err := g.ingest(p, data); err != nil {
				logger.Trace().Err(err).Msg("media dropped")
			}
		}
	}
}

// ingest hands a binary frame to the relay. The sender id inside the packet
// must be the connection's own user.
func (g *Gateway) ingest(p *app.Peer, data []byte) error {
	if g.Relay == nil {
		return nil
	}
	if len(data) < 5 {
		return relay.ErrShortPacket
	}
	if p.State() != app.StateActive || domain.UserID(binary.BigEndian.Uint32(data[1:5])) != p.User().ID {
		return errSpoofedSender
	}
	return g.Relay.Ingest(domain.MediaKind(data[0]), netip.AddrPort{}, data[1:])
}

func (g *Gateway) writePump(ctx context.Context, c *Conn, p *app.Peer, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			g.flush(c)
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(g.Opts.WriteTimeout))
			return
		case m := <-c.send:
			if err := g.writeMessage(c, m); err != nil {
				logger.Error().Err(err).Msg("writePump write error")
				p.Cancel()
				return
			}
		case frame := <-c.media.C():
			if err := g.write(c, websocket.BinaryMessage, frame); err != nil {
				logger.Error().Err(err).Msg("writePump write error")
				p.Cancel()
				return
			}
		}
	}
}

func (g *Gateway) flush(c *Conn) {
	for {
		select {
		case m := <-c.send:
			if err := g.writeMessage(c, m); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (g *Gateway) writeMessage(c *Conn, m protocol.Message) error {
	b, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	return g.write(c, websocket.TextMessage, b)
}

func (g *Gateway) write(c *Conn, mt int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(g.Opts.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(mt, data)
}
