// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elements

import (
	"strconv"
	"sync"
	"time"

	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/packet"
)

type inFlight struct {
	pkt      *packet.Packet
	deadline time.Time
}

// LinkUnqueue emulates a serial link: pull input, push output. Every
// packet pulled is delayed by a fixed LATENCY plus a transmission time
// derived from its length and BANDWIDTH, then pushed out once its
// deadline arrives; several packets can be in flight on the link at
// once, each queued behind the one ahead of it. Grounded on
// original_source/elements/standard/linkunqueue.hh: LATENCY is
// microsecond-precision, BANDWIDTH is Kbit/s, and the ExtraLength
// annotation extends a packet's billed size without affecting the bytes
// it carries.
type LinkUnqueue struct {
	element.Skeleton

	latency   time.Duration
	bandwidth int64 // bits/sec; 0 means unlimited

	mu       sync.Mutex
	linkFree time.Time // when the link is next free to start a new packet
	inflight []inFlight

	task  element.Task
	timer element.Timer
}

func init() {
	element.Register("LinkUnqueue", func() element.Base { return &LinkUnqueue{} })
}

func (l *LinkUnqueue) PortCounts() (int, int, int, int) { return 1, 1, 1, 1 }
func (l *LinkUnqueue) Processing() element.Direction    { return element.Agnostic }
func (l *LinkUnqueue) InputProcessing() []element.Direction  { return []element.Direction{element.Pull} }
func (l *LinkUnqueue) OutputProcessing() []element.Direction { return []element.Direction{element.Push} }

func (l *LinkUnqueue) Configure(args string) error {
	positional, kv := parseArgs(args)
	latencyUs, bandwidthKbps := "0", "0"
	if len(positional) > 0 {
		latencyUs = positional[0]
	}
	if len(positional) > 1 {
		bandwidthKbps = positional[1]
	}
	if v, ok := kv["LATENCY"]; ok {
		latencyUs = v
	}
	if v, ok := kv["BANDWIDTH"]; ok {
		bandwidthKbps = v
	}

	us, err := strconv.ParseInt(latencyUs, 10, 64)
	if err != nil {
		return err
	}
	l.latency = time.Duration(us) * time.Microsecond

	kbps, err := strconv.ParseInt(bandwidthKbps, 10, 64)
	if err != nil {
		return err
	}
	l.bandwidth = kbps * 1000
	return nil
}

func (l *LinkUnqueue) Initialize() error {
	l.task = l.Router.NewTask(l)
	l.timer = l.Router.NewTimer(l, l.drain)
	l.Router.AddHandler(element.Handler{
		Element: l.Name(),
		Name:    "latency",
		ReadFn: func() (string, error) {
			return strconv.FormatInt(l.latency.Microseconds(), 10), nil
		},
	})
	l.Router.AddHandler(element.Handler{
		Element: l.Name(),
		Name:    "bandwidth",
		ReadFn: func() (string, error) {
			return strconv.FormatInt(l.bandwidth/1000, 10), nil
		},
	})
	l.Router.AddHandler(element.Handler{
		Element: l.Name(),
		Name:    "size",
		ReadFn: func() (string, error) {
			l.mu.Lock()
			n := len(l.inflight)
			l.mu.Unlock()
			return strconv.Itoa(n), nil
		},
	})
	l.Router.AddHandler(element.Handler{
		Element: l.Name(),
		Name:    "reset",
		WriteFn: func(string) error {
			l.mu.Lock()
			dropped := l.inflight
			l.inflight = nil
			l.linkFree = time.Time{}
			l.mu.Unlock()
			for _, f := range dropped {
				f.pkt.Release()
			}
			return nil
		},
	})
	l.task.Reschedule()
	return nil
}

func (l *LinkUnqueue) Cleanup(element.Stage) {}

// RunTask pulls one packet from upstream per invocation, queues it
// behind whatever is already on the virtual link, and arms the timer for
// the earliest pending deadline.
func (l *LinkUnqueue) RunTask() bool {
	pkt := l.Input(0).Pull()
	if pkt == nil {
		return false
	}

	billedBits := int64(pkt.Length()+int(pkt.ExtraLength())) * 8
	var txTime time.Duration
	if l.bandwidth > 0 {
		txTime = time.Duration(billedBits) * time.Second / time.Duration(l.bandwidth)
	}

	l.mu.Lock()
	now := time.Now()
	start := now.Add(l.latency)
	if l.linkFree.After(start) {
		start = l.linkFree
	}
	deadline := start.Add(txTime)
	l.linkFree = deadline
	l.inflight = append(l.inflight, inFlight{pkt: pkt, deadline: deadline})
	next := l.inflight[0].deadline
	l.mu.Unlock()

	l.timer.ScheduleAt(next.UnixNano())
	l.task.Reschedule()
	return true
}

// drain pushes out every packet whose deadline has arrived and re-arms
// the timer for whatever is left.
func (l *LinkUnqueue) drain() {
	now := time.Now()
	l.mu.Lock()
	var due []inFlight
	i := 0
	for ; i < len(l.inflight); i++ {
		if l.inflight[i].deadline.After(now) {
			break
		}
		due = append(due, l.inflight[i])
	}
	l.inflight = l.inflight[i:]
	var next time.Time
	if len(l.inflight) > 0 {
		next = l.inflight[0].deadline
	}
	l.mu.Unlock()

	for _, f := range due {
		l.Output(0).Push(f.pkt)
	}
	if !next.IsZero() {
		l.timer.ScheduleAt(next.UnixNano())
	}
}
