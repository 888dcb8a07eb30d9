// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package packet provides the opaque, reference-counted packet buffer the
// engine passes between elements. The engine never interprets packet
// contents; a Packet is a payload window inside a backing array plus a
// fixed annotation block carrying per-subsystem metadata.
package packet

import (
	"sync/atomic"
)

// AnnotationSize is the size in bytes of the fixed annotation block every
// packet carries alongside its payload.
const AnnotationSize = 64

// DefaultHeadroom is reserved before the payload so elements that prepend
// a header (link emulators, encapsulators) rarely need to reallocate.
const DefaultHeadroom = 128

// DefaultTailroom is reserved after the payload for the symmetric case.
const DefaultTailroom = 64

// shared is the backing allocation a Packet's data window points into. It
// is refcounted because Clone hands out additional views without copying;
// the first mutator forces a private copy via Uniqueify.
type shared struct {
	buf    []byte
	refs   int32
	headAt int // headroom offset at allocation; not updated as the window moves
}

// Packet is a payload window `[offset, offset+length)` inside a shared
// backing buffer, plus a private annotation block. Annotations are never
// shared between clones: each Packet holding a view of the same payload
// has its own scratch space, matching the "unique annotations, shared
// payload" split a copy-on-write packet needs.
type Packet struct {
	buf         *shared
	offset      int
	length      int
	annotations [AnnotationSize]byte
}

// New allocates an empty packet with the default headroom/tailroom and no
// payload. Callers append payload with Append or Prepend.
func New() *Packet {
	return NewSize(0)
}

// NewSize allocates a packet whose payload capacity is size bytes, with
// default headroom and tailroom reserved around it.
func NewSize(size int) *Packet {
	buf := make([]byte, DefaultHeadroom+size+DefaultTailroom)
	return &Packet{
		buf:    &shared{buf: buf, refs: 1, headAt: DefaultHeadroom},
		offset: DefaultHeadroom,
		length: size,
	}
}

// FromBytes builds a packet whose payload is an exact copy of data, with
// default headroom/tailroom around it. Used by elements that read packets
// off the wire or out of a capture file, where there is no reason to
// share the source slice.
func FromBytes(data []byte) *Packet {
	p := NewSize(len(data))
	copy(p.Data(), data)
	return p
}

// Data returns the current payload window. The returned slice aliases the
// backing buffer; callers must not retain it past a Prepend/Append/Uniqueify
// call, which may move the window or reallocate.
func (p *Packet) Data() []byte {
	return p.buf.buf[p.offset : p.offset+p.length]
}

// Length reports the current payload length.
func (p *Packet) Length() int {
	return p.length
}

// Headroom reports the number of bytes available before the payload
// without reallocating.
func (p *Packet) Headroom() int {
	return p.offset
}

// Tailroom reports the number of bytes available after the payload
// without reallocating.
func (p *Packet) Tailroom() int {
	return len(p.buf.buf) - p.offset - p.length
}

// Annotations returns the packet's private annotation block. Never shared
// between clones, so writing through it never requires Uniqueify.
func (p *Packet) Annotations() *[AnnotationSize]byte {
	return &p.annotations
}

// Clone returns a new handle sharing this packet's backing buffer and
// copying its annotation block. The clone defers any copy until one of the
// holders calls Uniqueify and mutates the payload.
func (p *Packet) Clone() *Packet {
	atomic.AddInt32(&p.buf.refs, 1)
	clone := &Packet{buf: p.buf, offset: p.offset, length: p.length}
	clone.annotations = p.annotations
	return clone
}

// Uniqueify makes the caller the sole owner of the backing buffer,
// copying it first if another clone is still outstanding. Must be called
// before any mutation of the slice returned by Data, Prepend, or Append.
func (p *Packet) Uniqueify() {
	if atomic.LoadInt32(&p.buf.refs) == 1 {
		return
	}
	fresh := make([]byte, len(p.buf.buf))
	copy(fresh, p.buf.buf)
	atomic.AddInt32(&p.buf.refs, -1)
	p.buf = &shared{buf: fresh, refs: 1, headAt: p.buf.headAt}
}

// Release drops this handle's reference to the backing buffer. The
// backing buffer becomes eligible for garbage collection once its last
// holder releases it; Release is a no-op safety net for elements that
// track ownership explicitly rather than relying on GC.
func (p *Packet) Release() {
	if p.buf == nil {
		return
	}
	atomic.AddInt32(&p.buf.refs, -1)
	p.buf = nil
}

// Prepend grows the payload window backward by n bytes, taking them from
// headroom, and returns the newly exposed prefix for the caller to fill.
// Panics if n exceeds Headroom. Uniqueify copies the buffer at its
// current size, so it adds no headroom; an element needing more room than
// was reserved has to build a larger packet itself.
func (p *Packet) Prepend(n int) []byte {
	if n > p.Headroom() {
		panic("packet: Prepend exceeds headroom")
	}
	p.Uniqueify()
	p.offset -= n
	p.length += n
	return p.buf.buf[p.offset : p.offset+n]
}

// Append grows the payload window forward by n bytes, taking them from
// tailroom, and returns the newly exposed suffix for the caller to fill.
func (p *Packet) Append(n int) []byte {
	if n > p.Tailroom() {
		panic("packet: Append exceeds tailroom")
	}
	p.Uniqueify()
	tail := p.buf.buf[p.offset+p.length : p.offset+p.length+n]
	p.length += n
	return tail
}

// Trim shrinks the payload window by removing n bytes from the front.
func (p *Packet) Trim(n int) {
	if n > p.length {
		n = p.length
	}
	p.offset += n
	p.length -= n
}

// TrimTail shrinks the payload window by removing n bytes from the back.
func (p *Packet) TrimTail(n int) {
	if n > p.length {
		n = p.length
	}
	p.length -= n
}
