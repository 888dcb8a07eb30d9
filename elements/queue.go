// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elements

import (
	"strconv"
	"sync"

	"github.com/docker/go-units"

	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/packet"
)

// Queue is a bounded FIFO: push input, pull output. A full queue drops
// the incoming packet rather than blocking its upstream pusher, matching
// Click's own Queue semantics. Capacity accepts any human size string
// go-units understands ("2048", "1Ki", "64KB").
type Queue struct {
	element.Skeleton

	capacity int

	mu   sync.Mutex
	buf  []*packet.Packet
	head int

	signal element.NotifierSignal
}

func init() {
	element.Register("Queue", func() element.Base { return &Queue{capacity: 1000} })
}

func (q *Queue) PortCounts() (int, int, int, int) { return 1, 1, 1, 1 }
func (q *Queue) Processing() element.Direction    { return element.Agnostic }
func (q *Queue) InputProcessing() []element.Direction  { return []element.Direction{element.Push} }
func (q *Queue) OutputProcessing() []element.Direction { return []element.Direction{element.Pull} }

func (q *Queue) Configure(args string) error {
	positional, kv := parseArgs(args)
	raw := ""
	if len(positional) > 0 {
		raw = positional[0]
	}
	if v, ok := kv["CAPACITY"]; ok {
		raw = v
	}
	if raw == "" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		q.capacity = n
		return nil
	}
	n, err := units.RAMInBytes(raw)
	if err != nil {
		return err
	}
	q.capacity = int(n)
	return nil
}

func (q *Queue) Initialize() error {
	q.Router.AddHandler(element.Handler{
		Element: q.Name(),
		Name:    "length",
		ReadFn: func() (string, error) {
			q.mu.Lock()
			n := len(q.buf) - q.head
			q.mu.Unlock()
			return strconv.Itoa(n), nil
		},
	})
	return nil
}

func (q *Queue) Cleanup(element.Stage) {}

// Signal exposes the queue's non-empty notifier to a caller holding this
// Queue. No element in this package reads it.
func (q *Queue) Signal() *element.NotifierSignal { return &q.signal }

func (q *Queue) Receive(_ int, pkt *packet.Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf)-q.head >= q.capacity {
		pkt.Release()
		return
	}
	q.buf = append(q.buf, pkt)
	q.signal.SetActive(true)
}

func (q *Queue) Yield(_ int) *packet.Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.buf) {
		return nil
	}
	pkt := q.buf[q.head]
	q.buf[q.head] = nil
	q.head++
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
		q.signal.SetActive(false)
	}
	return pkt
}
