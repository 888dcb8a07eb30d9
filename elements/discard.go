// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elements provides the minimal concrete element set that ships
// with the engine: sources and sinks over pcap files, a bounded queue, a
// link-latency emulator, a packet counter, and a control-socket listener.
// Every element here is built on the element package's capability
// interfaces and registers itself with element.Register from init, the
// same pattern the router's loader expects for every class it can
// instantiate from configuration text.
package elements

import (
	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/packet"
)

// Discard is an agnostic sink that releases every packet it receives,
// the bottom of a chain that only wants side effects (counting,
// dumping) and still needs somewhere to hand packets off to. Like
// Click's own Discard, it adapts to whatever its upstream neighbor
// pushes or pulls: a push-resolved input arrives through Receive, while
// a pull-resolved input (e.g. sitting directly after a Queue) is drained
// by a task that pulls in a loop.
type Discard struct {
	element.Skeleton

	task element.Task
}

func init() {
	element.Register("Discard", func() element.Base { return &Discard{} })
}

func (d *Discard) PortCounts() (int, int, int, int) { return 1, 1, 0, 0 }
func (d *Discard) Processing() element.Direction    { return element.Agnostic }
func (d *Discard) Configure(string) error            { return nil }

// Initialize arms a pulling task only when port resolution settled this
// element's input on Pull; a push-resolved Discard needs nothing beyond
// Receive.
func (d *Discard) Initialize() error {
	if d.Input(0).Direction() == element.Pull {
		d.task = d.Router.NewTask(d)
		d.task.Reschedule()
	}
	return nil
}

func (d *Discard) Cleanup(element.Stage) {}

func (d *Discard) Receive(_ int, pkt *packet.Packet) {
	pkt.Release()
}

// RunTask drains one packet per tick from a pull-resolved input.
func (d *Discard) RunTask() bool {
	pkt := d.Input(0).Pull()
	if pkt == nil {
		return false
	}
	pkt.Release()
	return true
}
