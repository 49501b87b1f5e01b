// Package framing implements the length-prefixed frames of the control channel:
// a 4-byte big-endian length followed by that many payload bytes.
package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	HeaderSize   = 4
	MaxFrameSize = 1 << 20
)

var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrTruncated     = errors.New("frame truncated")
)

// WriteFrame writes the length prefix and payload with a single Write call so
// concurrent writers serialized by the caller never interleave partial frames.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("write %d bytes: %w", len(payload), ErrFrameTooLarge)
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame blocks until one complete frame is read.
// It returns io.EOF only when the peer closed before sending any prefix byte.
func ReadFrame(r io.Reader) ([]byte, error) {
	n, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return ReadBody(r, n)
}

// ReadBody reads exactly n payload bytes after the prefix has been consumed.
func ReadBody(r io.Reader, n uint32) ([]byte, error) {
	if n > MaxFrameSize {
		return nil, fmt.Errorf("declared %d bytes: %w", n, ErrFrameTooLarge)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("payload of %d bytes: %w", n, ErrTruncated)
		}
		return nil, err
	}
	return payload, nil
}

// ReadHeader reads only the 4-byte prefix. Callers use it to apply different
// deadlines to the idle wait and to the frame body.
func ReadHeader(r io.Reader) (uint32, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("length prefix: %w", ErrTruncated)
		}
		return 0, err
	}
	return binary.BigEndian.Uint32(hdr[:]), nil
}
