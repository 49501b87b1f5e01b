package protocol

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/framing"
)

// ErrIdleTimeout is returned by Receive when no frame started within the idle window.
var ErrIdleTimeout = errors.New("no traffic within heartbeat window")

type ChannelOptions struct {
	// IdleTimeout bounds the wait for the first byte of a frame. Zero disables it.
	IdleTimeout time.Duration
	// FrameTimeout bounds reading the body once a prefix arrived.
	FrameTimeout time.Duration
	WriteTimeout time.Duration
}

// Channel carries framed messages over one stream connection.
// Receive must be called from a single goroutine; Send is safe for concurrent use.
type Channel struct {
	conn   net.Conn
	opts   ChannelOptions
	sendMu sync.Mutex
}

func NewChannel(conn net.Conn, opts ChannelOptions) *Channel {
	return &Channel{conn: conn, opts: opts}
}

func (c *Channel) Send(m Message) error {
	payload, err := Encode(m)
	if err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.opts.WriteTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			return err
		}
	}
	return framing.WriteFrame(c.conn, payload)
}

// Receive blocks for the next message. A *DecodeError leaves the channel usable;
// every other error is fatal to the connection.
func (c *Channel) Receive() (Message, error) {
	var idle time.Time
	if c.opts.IdleTimeout > 0 {
		idle = time.Now().Add(c.opts.IdleTimeout)
	}
	if err := c.setReadDeadline(idle); err != nil {
		return nil, err
	}
	n, err := framing.ReadHeader(c.conn)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, ErrIdleTimeout
		}
		return nil, err
	}
	if c.opts.FrameTimeout > 0 {
		if err := c.setReadDeadline(time.Now().Add(c.opts.FrameTimeout)); err != nil {
			return nil, err
		}
	}
	body, err := framing.ReadBody(c.conn, n)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, fmt.Errorf("stalled mid-frame: %w", framing.ErrTruncated)
		}
		return nil, err
	}
	return Decode(body)
}

// setReadDeadline ignores a connection that is already closed: the read that
// follows reports the close, as io.EOF when the peer hung up cleanly.
func (c *Channel) setReadDeadline(t time.Time) error {
	err := c.conn.SetReadDeadline(t)
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *Channel) Close() error { return c.conn.Close() }

func (c *Channel) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
