package ws

import (
	"sync"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/core"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/queue"
	"github.com/gorilla/websocket"
)

// Conn is a browser client. Control messages go out as text frames through a
// bounded queue; relayed media goes out as binary frames through a
// drop-oldest queue. It implements core.ControlConn and core.MediaSink.
type Conn struct {
	ws     *websocket.Conn
	remote string
	token  string
	send   chan protocol.Message
	media  *queue.Dropping[[]byte]

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func newConn(ws *websocket.Conn, token string, sendQueue, mediaQueue int) *Conn {
	if sendQueue < 1 {
		sendQueue = 1
	}
	return &Conn{
		ws:     ws,
		remote: ws.RemoteAddr().String(),
		token:  token,
		send:   make(chan protocol.Message, sendQueue),
		media:  queue.NewDropping[[]byte](mediaQueue),
		done:   make(chan struct{}),
	}
}

func (c *Conn) TrySend(m protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- m:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// TrySendMedia frames packet as kind byte + datagram. It never blocks; a full
// queue loses its oldest packet.
func (c *Conn) TrySendMedia(kind domain.MediaKind, packet []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	frame := make([]byte, 1+len(packet))
	frame[0] = byte(kind)
	copy(frame[1:], packet)
	c.media.Push(frame)
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	_ = c.ws.Close()
}

func (c *Conn) RemoteAddr() string { return c.remote }
