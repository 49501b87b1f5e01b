package relay

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
)

const (
	// VideoHeaderSize covers senderId, sequence and payloadLength.
	VideoHeaderSize = 12
	// AudioHeaderSize covers senderId and timestamp.
	AudioHeaderSize = 8
)

var (
	ErrShortPacket    = errors.New("datagram shorter than header")
	ErrLengthMismatch = errors.New("declared payload length does not match datagram")
	ErrUnknownKind    = errors.New("unknown media kind")
)

// Packet is a parsed media datagram. Raw is the datagram as received and is
// what gets forwarded; Payload aliases into it.
type Packet struct {
	Kind   domain.MediaKind
	Sender domain.UserID
	// Seq is the video sequence number or the audio timestamp.
	Seq     uint32
	Payload []byte
	Raw     []byte
}

func Parse(kind domain.MediaKind, b []byte) (Packet, error) {
	switch kind {
	case domain.MediaVideo:
		return ParseVideo(b)
	case domain.MediaAudio:
		return ParseAudio(b)
	}
	return Packet{}, ErrUnknownKind
}

func ParseVideo(b []byte) (Packet, error) {
	if len(b) < VideoHeaderSize {
		return Packet{}, ErrShortPacket
	}
	n := binary.BigEndian.Uint32(b[8:12])
	if uint64(n) != uint64(len(b)-VideoHeaderSize) {
		return Packet{}, fmt.Errorf("declared %d, got %d: %w", n, len(b)-VideoHeaderSize, ErrLengthMismatch)
	}
	return Packet{
		Kind:    domain.MediaVideo,
		Sender:  domain.UserID(binary.BigEndian.Uint32(b[0:4])),
		Seq:     binary.BigEndian.Uint32(b[4:8]),
		Payload: b[VideoHeaderSize:],
		Raw:     b,
	}, nil
}

func ParseAudio(b []byte) (Packet, error) {
	if len(b) < AudioHeaderSize {
		return Packet{}, ErrShortPacket
	}
	return Packet{
		Kind:    domain.MediaAudio,
		Sender:  domain.UserID(binary.BigEndian.Uint32(b[0:4])),
		Seq:     binary.BigEndian.Uint32(b[4:8]),
		Payload: b[AudioHeaderSize:],
		Raw:     b,
	}, nil
}

func EncodeVideo(sender domain.UserID, seq uint32, payload []byte) []byte {
	b := make([]byte, VideoHeaderSize+len(payload))
	binary.BigEndian.PutUint32(b[0:4], uint32(sender))
	binary.BigEndian.PutUint32(b[4:8], seq)
	binary.BigEndian.PutUint32(b[8:12], uint32(len(payload)))
	copy(b[VideoHeaderSize:], payload)
	return b
}

func EncodeAudio(sender domain.UserID, timestamp uint32, payload []byte) []byte {
	b := make([]byte, AudioHeaderSize+len(payload))
	binary.BigEndian.PutUint32(b[0:4], uint32(sender))
	binary.BigEndian.PutUint32(b[4:8], timestamp)
	copy(b[AudioHeaderSize:], payload)
	return b
}
