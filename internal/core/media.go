package core

import (
	"net/netip"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
)

// MediaSink receives relayed media over the client's own transport
// (used by browser clients that cannot receive raw datagrams).
type MediaSink interface {
	TrySendMedia(kind domain.MediaKind, packet []byte) error
}

// PacketWriter is the outbound side of a media socket.
type PacketWriter interface {
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
}
