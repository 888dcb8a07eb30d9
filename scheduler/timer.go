// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheduler

import (
	"container/heap"
	"time"
)

// Timer is a deadline-triggered callback bound to one RouterThread; fn
// runs on that thread's driver loop. Arming and cancelling take the
// thread's timer lock, so they may be called from any goroutine.
type Timer struct {
	thread   *RouterThread
	fn       func()
	deadline time.Time
	index    int // heap.Interface bookkeeping
	armed    bool
}

// ScheduleAfter arms the timer to fire nanos nanoseconds from now.
func (t *Timer) ScheduleAfter(nanos int64) {
	t.ScheduleAt(time.Now().Add(time.Duration(nanos)).UnixNano())
}

// ScheduleAt arms the timer to fire at the given absolute deadline
// (unix nanoseconds). The deadline is rebuilt with time.Unix, so it
// carries no monotonic clock reading and is compared as wall-clock time;
// a wall-clock adjustment shifts when the timer fires.
func (t *Timer) ScheduleAt(unixNano int64) {
	t.thread.armTimer(t, time.Unix(0, unixNano))
}

// Unschedule cancels a pending firing.
func (t *Timer) Unschedule() {
	t.thread.cancelTimer(t)
}

// timerHeap is a container/heap-ordered min-heap on Timer.deadline. The
// teacher's own priority-queue library (evaluated and not adopted here,
// see DESIGN.md) is replaced by the standard library's heap, which is
// sufficient for the per-thread timer counts this engine schedules.
type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *timerHeap) Push(x interface{}) {
	tm := x.(*Timer)
	tm.index = len(*h)
	*h = append(*h, tm)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	tm := old[n-1]
	old[n-1] = nil
	tm.index = -1
	*h = old[:n-1]
	return tm
}

func (rt *RouterThread) armTimer(t *Timer, deadline time.Time) {
	rt.timerMu.Lock()
	defer rt.timerMu.Unlock()
	t.deadline = deadline
	if t.armed {
		heap.Fix(&rt.timers, t.index)
	} else {
		t.armed = true
		heap.Push(&rt.timers, t)
	}
	rt.wake()
}

func (rt *RouterThread) cancelTimer(t *Timer) {
	rt.timerMu.Lock()
	defer rt.timerMu.Unlock()
	if !t.armed {
		return
	}
	heap.Remove(&rt.timers, t.index)
	t.armed = false
}

// firedTimers pops and returns every timer whose deadline has passed,
// leaving the heap holding only still-future timers.
func (rt *RouterThread) firedTimers(now time.Time) []*Timer {
	rt.timerMu.Lock()
	defer rt.timerMu.Unlock()
	var fired []*Timer
	for len(rt.timers) > 0 && !rt.timers[0].deadline.After(now) {
		t := heap.Pop(&rt.timers).(*Timer)
		t.armed = false
		fired = append(fired, t)
	}
	return fired
}

// nextDeadline reports the earliest still-armed timer's deadline, or a
// zero time if none are armed.
func (rt *RouterThread) nextDeadline() (time.Time, bool) {
	rt.timerMu.Lock()
	defer rt.timerMu.Unlock()
	if len(rt.timers) == 0 {
		return time.Time{}, false
	}
	return rt.timers[0].deadline, true
}
