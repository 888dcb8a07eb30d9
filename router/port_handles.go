// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router

import (
	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/packet"
)

// routedOutput is the push/pull handle an element holds for one of its
// own resolved, connected output ports. Push direction: Push hands the
// packet straight to the peer's deliver path. Pull direction: Push is
// never called by the element (a pull output's neighbor calls our
// Input.Pull instead), so Push on a pull-resolved routedOutput would be
// a caller bug; it still forwards rather than panicking; the engine
// itself never calls it this way.
type routedOutput struct {
	r      *Router
	dir    element.Direction
	toElem element.Index
	toPort int
}

func (o *routedOutput) Direction() element.Direction { return o.dir }

func (o *routedOutput) Push(pkt *packet.Packet) {
	o.r.deliver(o.toElem, o.toPort, pkt)
}

// routedInput is the handle an element holds for one of its own
// resolved, connected input ports, used when that port is Pull-resolved:
// Pull asks the upstream producer for a packet.
type routedInput struct {
	r        *Router
	dir      element.Direction
	fromElem element.Index
	fromPort int
	signal   element.NotifierSignal
}

func (i *routedInput) Direction() element.Direction    { return i.dir }
func (i *routedInput) Signal() *element.NotifierSignal { return &i.signal }

func (i *routedInput) Pull() *packet.Packet {
	return i.r.produce(i.fromElem, i.fromPort)
}

// unconnectedOutput/unconnectedInput back ports the loader allowed to go
// unconnected (an element class may permit it, e.g. a debug tee with an
// optional extra output). Push drops the packet; Pull returns nothing.
type unconnectedOutput struct {
	dir element.Direction
}

func (o *unconnectedOutput) Direction() element.Direction { return o.dir }
func (o *unconnectedOutput) Push(pkt *packet.Packet)      { pkt.Release() }

type unconnectedInput struct {
	dir    element.Direction
	signal element.NotifierSignal
}

func (i *unconnectedInput) Direction() element.Direction    { return i.dir }
func (i *unconnectedInput) Signal() *element.NotifierSignal { return &i.signal }
func (i *unconnectedInput) Pull() *packet.Packet             { return nil }

// deliver hands pkt to the element at (idx, port): straight to Receive
// for a pushed element, or through SimpleAction for an agnostic element
// resolved to push, which the router drives on the element's behalf
// since there is no Receive method to call.
func (r *Router) deliver(idx element.Index, port int, pkt *packet.Packet) {
	entry := r.elements[idx]
	if pusher, ok := entry.base.(element.Pusher); ok {
		pusher.Receive(port, pkt)
		return
	}
	if simple, ok := entry.base.(element.SimpleAction); ok {
		out := simple.Simple(pkt)
		if out == nil {
			return
		}
		if pa, ok := entry.base.(element.PortAccessor); ok {
			pa.Output(port).Push(out)
			return
		}
	}
	// Neither Pusher nor SimpleAction: a push-resolved port on an
	// element that never implements push semantics is a loader bug the
	// direction-resolution pass should already have refused, so this is
	// unreachable for any router built by Load; drop defensively.
	pkt.Release()
}

// produce asks the element at (idx, port) to yield a packet for a puller
// downstream: straight to Yield for a pulled element, or through
// SimpleAction for an agnostic element resolved to pull, driving its own
// (pull-resolved) input and applying the transform before returning.
func (r *Router) produce(idx element.Index, port int) *packet.Packet {
	entry := r.elements[idx]
	if puller, ok := entry.base.(element.Puller); ok {
		return puller.Yield(port)
	}
	if simple, ok := entry.base.(element.SimpleAction); ok {
		pa, ok := entry.base.(element.PortAccessor)
		if !ok {
			return nil
		}
		pkt := pa.Input(port).Pull()
		if pkt == nil {
			return nil
		}
		return simple.Simple(pkt)
	}
	return nil
}
