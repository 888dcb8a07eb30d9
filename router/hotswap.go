// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router

import (
	"sync"

	"go.uber.org/zap"

	"github.com/clickrt/clickrt/common"
	"github.com/clickrt/clickrt/config"
	"github.com/clickrt/clickrt/scheduler"
)

// HotSwapper owns the atomic-replacement protocol of spec.md §4.5: parse
// a candidate router, link it to the current one as predecessor, and
// swap them via a one-shot task on the master thread so no task or
// packet is ever observed by both routers at once.
type HotSwapper struct {
	master *scheduler.Master
	log    *zap.Logger

	mu      sync.Mutex
	current *Router
}

// NewHotSwapper wraps master's hot-swap slot around an already-active
// router.
func NewHotSwapper(master *scheduler.Master, log *zap.Logger, initial *Router) *HotSwapper {
	return &HotSwapper{master: master, log: log, current: initial}
}

// Current returns the presently active router.
func (h *HotSwapper) Current() *Router {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Swap parses text into a candidate router, links it to the current
// router as predecessor, and schedules the one-shot swap task. It blocks
// until the swap has taken effect and returns nil, or returns an error
// without swapping when the candidate fails to parse, configure, or
// initialize.
//
// Concurrent writers to hotconfig are serialized by h.mu: a second Swap
// call blocks until the first's candidate has been fully activated or
// rejected, then performs its own swap. Neither candidate is dropped, and
// waiting is not reported as an error.
func (h *HotSwapper) Swap(file, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	decls, err := config.ParseAndExpand(file, text)
	if err != nil {
		return common.WrapError(err, common.Landmark{}, "hotconfig: parse error, previous router unchanged", common.HotSwapErr)
	}

	candidate, err := Load(h.master, h.log, decls)
	if err != nil {
		return common.WrapError(err, common.Landmark{}, "hotconfig: load error, previous router unchanged", common.HotSwapErr)
	}
	candidate.predecessor = h.current

	old := h.current
	done := make(chan struct{})
	h.scheduleSwap(candidate, old, done)
	<-done
	h.current = candidate
	return nil
}

// scheduleSwap arms a one-shot timer on the master's first thread (the
// "master thread" of spec.md §4.5) that performs the four swap steps:
// activate the candidate, deactivate the old router, and — since the
// Master's current-router pointer is HotSwapper.current itself — the
// pointer rebind happens in Swap right after this fires, under h.mu,
// which is equivalent to "rebind on the master thread" because no other
// goroutine reads h.current without that lock.
func (h *HotSwapper) scheduleSwap(candidate, old *Router, done chan struct{}) {
	masterThread := h.master.Thread(0)
	var swapTimer *scheduler.Timer
	swapTimer = masterThread.NewTimer(func() {
		candidate.Activate()
		if old != nil {
			old.Stop()
		}
		close(done)
		swapTimer.Unschedule()
	})
	swapTimer.ScheduleAfter(0)
}
