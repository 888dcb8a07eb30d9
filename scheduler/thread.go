// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/clickrt/clickrt/element"
)

// StopRuncount is the sentinel a router's runcount is set to when
// shutdown is requested; any value <= 0 means "driver must exit", but
// this constant is the one hot-swap and signal handling use explicitly.
const StopRuncount = -1

// RouterThread is one driver loop: a runnable task list (plain FIFO; task
// weights are not consulted) and a timer heap, both private to the
// goroutine running Loop. Cross-thread interaction — another goroutine
// rescheduling one of this thread's tasks, or arming one of its timers —
// goes through the exported methods, which take the thread's locks and
// send a wakeup rather than touching thread-local state directly.
type RouterThread struct {
	index int
	log   *zap.Logger

	// runcountCell points at whichever router currently owns this
	// thread's driver loop. Thread sets (spawned once by Master, sized by
	// --threads) outlive any one router, so the cell is rebound — not
	// fixed at construction — when a router activates on this thread and
	// again when hot-swap hands the thread to its successor.
	runcountCell atomic.Pointer[int64]

	taskMu sync.Mutex
	ready  []*Task

	timerMu sync.Mutex
	timers  timerHeap

	wakeCh chan struct{}

	stats Stats
}

// Stats are the per-thread counters the built-in statistics handler (see
// spec §4.4) reports, backed by prometheus gauges at the Master level.
type Stats struct {
	TasksRun    int64
	TimersFired int64
	IdleSleeps  int64
}

var zeroRuncount int64

func newRouterThread(index int, log *zap.Logger) *RouterThread {
	rt := &RouterThread{
		index:  index,
		log:    log.With(zap.Int("thread_id", index)),
		wakeCh: make(chan struct{}, 1),
	}
	rt.runcountCell.Store(&zeroRuncount)
	return rt
}

// BindRuncount points this thread's driver loop at cell, the runcount of
// the router now responsible for it. Safe to call while Loop is running
// on another goroutine; the thread observes the new cell on its next
// iteration.
func (rt *RouterThread) BindRuncount(cell *int64) {
	rt.runcountCell.Store(cell)
	rt.wake()
}

// Index is this thread's position in its Master's thread vector.
func (rt *RouterThread) Index() int { return rt.index }

// NewTask creates a task bound to this thread for owner. The task starts
// unscheduled; the element (or the router, during activation) must call
// Reschedule to enter it into the runnable list.
func (rt *RouterThread) NewTask(owner element.Base) *Task {
	return newTask(rt, owner)
}

// NewTimer creates a timer bound to this thread, invoking fn when it
// fires. The timer starts disarmed.
func (rt *RouterThread) NewTimer(fn func()) *Timer {
	return &Timer{thread: rt, fn: fn}
}

func (rt *RouterThread) enqueue(t *Task) {
	rt.taskMu.Lock()
	rt.ready = append(rt.ready, t)
	rt.taskMu.Unlock()
	rt.wake()
}

func (rt *RouterThread) wake() {
	select {
	case rt.wakeCh <- struct{}{}:
	default:
	}
}

// Loop runs the driver loop described in spec.md §4.3:
//
//	while runcount > 0:
//	    poll timer heap -> fire all timers with deadline <= now
//	    if a task is runnable: pop it; run it; re-enqueue if it did work
//	    else: sleep until next timer deadline or a cross-thread wakeup
//
// Loop returns when the router's runcount drops to <= 0, after finishing
// whatever task invocation was already in progress.
func (rt *RouterThread) Loop() {
	for {
		if atomic.LoadInt64(rt.runcountCell.Load()) <= 0 {
			return
		}

		now := time.Now()
		for _, t := range rt.firedTimers(now) {
			atomic.AddInt64(&rt.stats.TimersFired, 1)
			t.fn()
		}

		if task, ok := rt.popRunnable(); ok {
			atomic.AddInt64(&rt.stats.TasksRun, 1)
			if task.run(rt.log) {
				rt.enqueue(task)
			}
			continue
		}

		rt.sleepUntilWork()
	}
}

func (rt *RouterThread) popRunnable() (*Task, bool) {
	rt.taskMu.Lock()
	defer rt.taskMu.Unlock()
	for len(rt.ready) > 0 {
		t := rt.ready[0]
		rt.ready = rt.ready[1:]
		if t.isRunnable() {
			return t, true
		}
	}
	return nil, false
}

func (rt *RouterThread) sleepUntilWork() {
	atomic.AddInt64(&rt.stats.IdleSleeps, 1)
	deadline, hasTimer := rt.nextDeadline()
	if !hasTimer {
		<-rt.wakeCh
		return
	}
	d := time.Until(deadline)
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-rt.wakeCh:
	case <-timer.C:
	}
}

// Quiesce wakes the thread so it re-checks runcount promptly instead of
// waiting out whatever timer deadline or idle sleep it is currently in.
// It does not interrupt a running task mid-call. Used by hot-swap to
// deactivate the outgoing router's threads.
func (rt *RouterThread) Quiesce() {
	rt.wake()
}

// SnapshotStats returns a point-in-time copy of this thread's counters,
// used by the per-thread statistics handler and the prometheus gatherer.
func (rt *RouterThread) SnapshotStats() Stats {
	return Stats{
		TasksRun:    atomic.LoadInt64(&rt.stats.TasksRun),
		TimersFired: atomic.LoadInt64(&rt.stats.TimersFired),
		IdleSleeps:  atomic.LoadInt64(&rt.stats.IdleSleeps),
	}
}
