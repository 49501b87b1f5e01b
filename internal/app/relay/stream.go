package relay

import (
	"context"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/queue"
	"github.com/rs/zerolog"
)

type mediaKey struct {
	user domain.UserID
	kind domain.MediaKind
}

// Stream is one sender's media of one kind. Ingestion pushes into a tiny
// drop-oldest queue and a dedicated goroutine forwards whatever is newest.
type Stream struct {
	key    mediaKey
	queue  *queue.Dropping[Packet]
	cancel context.CancelFunc
}

func newStream(key mediaKey, size int, cancel context.CancelFunc) *Stream {
	return &Stream{
		key:    key,
		queue:  queue.NewDropping[Packet](size),
		cancel: cancel,
	}
}

// loop drains the queue until ctx is done.
func (s *Stream) loop(ctx context.Context, m *Manager, logger *zerolog.Logger) {
	for {
		pkt, ok := s.queue.Pop(ctx)
		if !ok {
			logger.Debug().Msg("stream ctx done")
			return
		}
		m.forward(pkt, logger)
	}
}
