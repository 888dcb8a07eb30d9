// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elements

import (
	"testing"

	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/packet"
)

// handlerCapture records the handlers an element publishes; every other
// RouterHandle method is left unimplemented.
type handlerCapture struct {
	element.RouterHandle
	handlers map[string]element.Handler
}

func (h *handlerCapture) AddHandler(x element.Handler) { h.handlers[x.Name] = x }

func newTestPacket() *packet.Packet {
	return packet.FromBytes([]byte("x"))
}

func TestParseArgsPositionalAndKeyword(t *testing.T) {
	positional, kv := parseArgs("64, LENGTH 128, BANDWIDTH 1000")
	if len(positional) != 1 || positional[0] != "64" {
		t.Fatalf("positional = %v", positional)
	}
	if kv["LENGTH"] != "128" || kv["BANDWIDTH"] != "1000" {
		t.Fatalf("kv = %v", kv)
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := &Queue{capacity: 2}
	p1, p2, p3 := newTestPacket(), newTestPacket(), newTestPacket()
	q.Receive(0, p1)
	q.Receive(0, p2)
	q.Receive(0, p3) // dropped, over capacity

	if got := q.Yield(0); got != p1 {
		t.Fatalf("expected p1 first, got %v", got)
	}
	if got := q.Yield(0); got != p2 {
		t.Fatalf("expected p2 second, got %v", got)
	}
	if got := q.Yield(0); got != nil {
		t.Fatalf("expected empty queue, got %v", got)
	}
	if q.Signal().Active() {
		t.Fatalf("signal should be inactive once drained")
	}
}

func TestCounterCountsAndResets(t *testing.T) {
	c := &Counter{}
	rh := &handlerCapture{handlers: map[string]element.Handler{}}
	c.SetRouterHandle(rh)
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for i := 0; i < 3; i++ {
		c.Simple(newTestPacket())
	}
	if c.count != 3 {
		t.Fatalf("count = %d, want 3", c.count)
	}
	if err := rh.handlers["reset"].WriteFn(""); err != nil {
		t.Fatalf("reset handler: %v", err)
	}
	if c.count != 0 {
		t.Fatalf("reset did not clear count")
	}
}
