// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import (
	"encoding/binary"
	"time"
)

// Annotation offsets within the fixed 64-byte annotation block. The engine
// reserves the first bytes for the handful of fields common elements in
// the pack (rewriters, shapers, link emulators) actually touch; everything
// past scratchOffset is free per-subsystem scratch space, mirroring how
// the teacher's annotation area reserves fixed fields up front and leaves
// the remainder for flow-specific use.
const (
	offDestIP    = 0  // 4 bytes, IPv4 destination set by a router lookup
	offNextHopMAC = 4 // 6 bytes, resolved next-hop link address
	offTimestamp = 16 // 8 bytes, unix nanoseconds, set at ingress
	offExtraLen  = 24 // 4 bytes, virtual padding length not present in Data()
	scratchOffset = 32
)

// SetDestIP stores a 4-byte IPv4 destination annotation.
func (p *Packet) SetDestIP(ip [4]byte) {
	copy(p.annotations[offDestIP:], ip[:])
}

// DestIP reads back the IPv4 destination annotation.
func (p *Packet) DestIP() [4]byte {
	var ip [4]byte
	copy(ip[:], p.annotations[offDestIP:offDestIP+4])
	return ip
}

// SetNextHopMAC stores a 6-byte link-layer next-hop annotation.
func (p *Packet) SetNextHopMAC(mac [6]byte) {
	copy(p.annotations[offNextHopMAC:], mac[:])
}

// NextHopMAC reads back the link-layer next-hop annotation.
func (p *Packet) NextHopMAC() [6]byte {
	var mac [6]byte
	copy(mac[:], p.annotations[offNextHopMAC:offNextHopMAC+6])
	return mac
}

// SetTimestamp stores an ingress timestamp annotation.
func (p *Packet) SetTimestamp(t time.Time) {
	binary.LittleEndian.PutUint64(p.annotations[offTimestamp:], uint64(t.UnixNano()))
}

// Timestamp reads back the ingress timestamp annotation.
func (p *Packet) Timestamp() time.Time {
	ns := binary.LittleEndian.Uint64(p.annotations[offTimestamp : offTimestamp+8])
	return time.Unix(0, int64(ns))
}

// SetExtraLength records virtual padding length: bytes a shaper or link
// emulator should account for in timing without them being present in
// Data(). Used by elements.LinkUnqueue to emulate a wire length larger
// than the captured payload.
func (p *Packet) SetExtraLength(n uint32) {
	binary.LittleEndian.PutUint32(p.annotations[offExtraLen:], n)
}

// ExtraLength reads back the virtual padding length annotation.
func (p *Packet) ExtraLength() uint32 {
	return binary.LittleEndian.Uint32(p.annotations[offExtraLen : offExtraLen+4])
}

// Scratch returns the unreserved tail of the annotation block for a
// subsystem (e.g. a specific element class) to use as it sees fit.
func (p *Packet) Scratch() []byte {
	return p.annotations[scratchOffset:]
}
