// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scheduler implements the engine's cooperative driver: tasks and
// timers bound to a RouterThread, and the Master that owns every thread
// (router.HotSwapper tracks the currently active router). Adapted from the teacher's
// core-assignment scheduling loop (one goroutine per pinned unit of work,
// explicit wakeup rather than busy-waiting) to the quite different unit
// of work a dataflow engine schedules: FIFO runnable tasks and
// a deadline-ordered timer heap instead of clonable flow functions.
package scheduler

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/clickrt/clickrt/element"
)

// taskState is the lifecycle of one Task as seen by its home thread.
type taskState int32

const (
	stateUnscheduled taskState = iota
	stateRunnable
	stateRunning
)

// strideUnit is the reciprocal granularity of Click's stride scheduling:
// a task's stride is strideUnit/weight. The runnable list is plain FIFO
// and reads neither stride nor pass, so a weight does not change how
// often a task runs.
const strideUnit = 1 << 16

// Task is one cooperatively scheduled unit of work bound permanently to
// the RouterThread that created it. Pinned: a task never migrates mid-run,
// only its scheduled/unscheduled state changes, and only from its home
// thread or via Reschedule's cross-thread wakeup.
type Task struct {
	owner  element.Base
	runner element.TaskRunner
	thread *RouterThread
	state  int32 // taskState, atomic
	pass   uint64
	stride uint64
}

// newTask constructs a task bound to thread for owner. weight defaults to
// 1 (stride = strideUnit); SetWeight changes it.
func newTask(thread *RouterThread, owner element.Base) *Task {
	runner, _ := owner.(element.TaskRunner)
	return &Task{owner: owner, runner: runner, thread: thread, stride: strideUnit}
}

// SetWeight sets the task's stride to strideUnit/weight (higher weight,
// smaller stride). The driver loop does not consult the stride, and pass
// is never advanced, so this does not change scheduling order.
func (t *Task) SetWeight(weight uint64) {
	if weight == 0 {
		weight = 1
	}
	t.stride = strideUnit / weight
}

// Reschedule marks the task runnable and enqueues it on its home thread.
// A no-op if the thread's router has already been told to stop
// (runcount <= 0) — per the engine's documented teardown semantics,
// rescheduling after shutdown must never resurrect a task. A thread not
// yet bound to any router (still on its zero placeholder) accepts the
// task, so tasks rescheduled during Initialize run once Activate binds
// the thread.
func (t *Task) Reschedule() {
	if cell := t.thread.runcountCell.Load(); cell != &zeroRuncount && atomic.LoadInt64(cell) <= 0 {
		return
	}
	if atomic.CompareAndSwapInt32(&t.state, int32(stateUnscheduled), int32(stateRunnable)) {
		t.thread.enqueue(t)
	}
}

// Unschedule parks the task; it will not run again until Reschedule.
func (t *Task) Unschedule() {
	atomic.StoreInt32(&t.state, int32(stateUnscheduled))
}

func (t *Task) isRunnable() bool {
	return taskState(atomic.LoadInt32(&t.state)) == stateRunnable
}

// run invokes the bound element's RunTask, called only from the task's
// home thread's driver loop.
func (t *Task) run(log *zap.Logger) (didWork bool) {
	atomic.StoreInt32(&t.state, int32(stateRunning))
	if t.runner == nil {
		atomic.StoreInt32(&t.state, int32(stateUnscheduled))
		return false
	}
	didWork = t.runner.RunTask()
	if didWork {
		atomic.StoreInt32(&t.state, int32(stateRunnable))
	} else {
		atomic.StoreInt32(&t.state, int32(stateUnscheduled))
	}
	return didWork
}
