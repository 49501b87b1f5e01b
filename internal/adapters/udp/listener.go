// Package udp reads media datagrams and hands them to the relay.
package udp

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/relay"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxDatagram = 65507
	pollInterval       = time.Second
)

type Listener struct {
	Kind        domain.MediaKind
	Relay       *relay.Manager
	MaxDatagram int
}

func (l *Listener) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return err
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		_ = pc.Close()
		return errors.New("udp: unexpected packet conn type")
	}
	return l.Serve(ctx, conn)
}

// Serve reads from conn until ctx is done. conn also becomes the relay's
// writer for l.Kind, so forwarded packets leave from the port clients send to.
func (l *Listener) Serve(ctx context.Context, conn *net.UDPConn) error {
	defer conn.Close()
	l.Relay.AttachWriter(l.Kind, conn)
	logger := log.With().Str("module", "udp").Stringer("kind", l.Kind).Str("addr", conn.LocalAddr().String()).Logger()
	logger.Info().Msg("media listener started")

	size := l.MaxDatagram
	if size <= 0 {
		size = DefaultMaxDatagram
	}
	buf := make([]byte, size)
	for {
		if ctx.Err() != nil {
			logger.Info().Msg("media listener stopped")
			return nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Info().Msg("media listener stopped")
				return nil
			}
			logger.Warn().Err(err).Msg("read")
			continue
		}
		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		if err := l.Relay.Ingest(l.Kind, from, datagram); err != nil {
			logger.Trace().Err(err).Str("from", from.String()).Msg("datagram dropped")
		}
	}
}
