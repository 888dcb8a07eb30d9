// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/scheduler"
)

func newTestThread(t *testing.T) (*scheduler.RouterThread, *int64) {
	t.Helper()
	m := scheduler.NewMaster(1, zap.NewNop(), nil)
	rt := m.Thread(0)
	runcount := int64(1)
	rt.BindRuncount(&runcount)
	return rt, &runcount
}

type countingRunner struct {
	n     int
	limit int
}

func (c *countingRunner) RunTask() bool {
	c.n++
	return c.n < c.limit
}

func TestTaskRunsUntilItStopsReportingWork(t *testing.T) {
	rt, runcount := newTestThread(t)
	runner := &countingRunner{limit: 5}
	task := rt.NewTask(&fakeElement{runner: runner})
	task.Reschedule()

	done := make(chan struct{})
	go func() {
		rt.Loop()
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if runner.n >= runner.limit {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("task did not reach limit; ran %d times", runner.n)
		case <-time.After(time.Millisecond):
		}
	}

	atomic.StoreInt64(runcount, 0)
	rt.Quiesce()
	<-done
}

func TestTimerMonotonicity(t *testing.T) {
	rt, runcount := newTestThread(t)

	var mu struct{}
	_ = mu
	var fireOrder []int
	ch := make(chan struct{}, 2)

	t2 := rt.NewTimer(func() {
		fireOrder = append(fireOrder, 2)
		ch <- struct{}{}
	})
	t1 := rt.NewTimer(func() {
		fireOrder = append(fireOrder, 1)
		ch <- struct{}{}
	})

	t2.ScheduleAfter(int64(20 * time.Millisecond))
	t1.ScheduleAfter(int64(5 * time.Millisecond))

	done := make(chan struct{})
	go func() {
		rt.Loop()
		close(done)
	}()

	<-ch
	<-ch
	atomic.StoreInt64(runcount, 0)
	rt.Quiesce()
	<-done

	if len(fireOrder) != 2 || fireOrder[0] != 1 || fireOrder[1] != 2 {
		t.Fatalf("timers fired out of deadline order: %v", fireOrder)
	}
}

// fakeElement satisfies element.Base minimally enough to own a task in
// these tests; it is not meant to be a realistic element.
type fakeElement struct {
	element.Skeleton
	runner *countingRunner
}

func (f fakeElement) PortCounts() (int, int, int, int) { return 0, 0, 0, 0 }
func (f fakeElement) Processing() element.Direction    { return element.Push }
func (f fakeElement) Configure(string) error           { return nil }
func (f fakeElement) Initialize() error                { return nil }
func (f fakeElement) Cleanup(element.Stage)            {}
func (f fakeElement) RunTask() bool                    { return f.runner.RunTask() }
