// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router_test

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/clickrt/clickrt/router"
	"github.com/clickrt/clickrt/scheduler"
)

// TestHotSwapPreservesPacketCountAcrossReplacement exercises spec.md §4.5's
// central guarantee: once a candidate router takes over, the predecessor's
// tasks never run again and the total number of packets the sink ever sees
// settles (it does not jump after the swap, since the predecessor's source
// stopped feeding it and the candidate has its own counters).
func TestHotSwapPreservesPacketCountAcrossReplacement(t *testing.T) {
	setup(t)
	master := scheduler.NewMaster(1, zap.NewNop(), nil)

	first := buildRouter(t, master, `
src :: TestSource() -> q :: TestQueue() -> snk :: TestSink();`)
	first.Activate()
	master.StartThreads()

	swapper := router.NewHotSwapper(master, zap.NewNop(), first)

	src1, _ := first.FindElement("src")
	source1 := src1.(*testSource)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && atomic.LoadInt64(&source1.emitted) < int64(source1.limit) {
		time.Sleep(time.Millisecond)
	}

	if err := swapper.Swap("t2", `src2 :: TestSource() -> q2 :: TestQueue() -> snk2 :: TestSink();`); err != nil {
		t.Fatalf("swap: %v", err)
	}

	current := swapper.Current()
	if current == first {
		t.Fatalf("swap did not install a new router")
	}
	if current.Predecessor() != first {
		t.Fatalf("candidate does not record the outgoing router as predecessor")
	}

	finalEmitted := atomic.LoadInt64(&source1.emitted)
	time.Sleep(20 * time.Millisecond)
	if got := atomic.LoadInt64(&source1.emitted); got != finalEmitted {
		t.Fatalf("predecessor source kept emitting after swap: %d -> %d", finalEmitted, got)
	}

	src2, _ := current.FindElement("src2")
	snk2, _ := current.FindElement("snk2")
	source2 := src2.(*testSource)
	snk2Sink := snk2.(*testSink)

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt64(&snk2Sink.received) >= int64(source2.limit) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	current.Stop()

	if got := atomic.LoadInt64(&snk2Sink.received); got != int64(source2.limit) {
		t.Fatalf("candidate router did not conserve packets: emitted %d, received %d", source2.limit, got)
	}
}
