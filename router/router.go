// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package router implements the compiled, initialized element graph: the
// element table, connection table, per-port direction resolution, and
// dependency-ordered initialization. A Router is built from a config.Declarations
// by Load, and is driven by a scheduler.Master once Activate runs.
package router

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/clickrt/clickrt/config"
	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/handler"
	"github.com/clickrt/clickrt/scheduler"
)

// ActiveRuncount is the sentinel a freshly activated router's runcount is
// set to: a large positive value so arithmetic decrements (if any future
// element wants to count down a packet budget) never reach zero by
// accident. Shutdown always sets it to scheduler.StopRuncount explicitly.
const ActiveRuncount = 1 << 30

// resolvedConnection is a connection once both endpoints' element indices
// are known. Both port numbers are concrete: assignConnections has already
// replaced an unspecified port (-1 in the declaration) with the next free
// one.
type resolvedConnection struct {
	fromElem, toElem       element.Index
	fromPort, toPort       int
	where                  config.Landmark
}

type elementEntry struct {
	base      element.Base
	name      string
	class     string
	args      string
	numIn     int
	numOut    int
	inDirs    []element.Direction
	outDirs   []element.Direction
	threadIdx int
}

// Router is the compiled graph. It owns every element and is itself
// owned by a Master; ports reference elements by element.Index rather
// than pointer so the table can be copied or rebuilt without fixing up
// back-edges.
type Router struct {
	master      *scheduler.Master
	log         *zap.Logger
	registry    *handler.Registry
	predecessor *Router // weak link for hot-swap state transfer by name

	elements    []*elementEntry
	byName      map[string]element.Index
	connections []resolvedConnection

	initialized bool
	runcount    int64

	startedAt time.Time
}

// New constructs an empty, unconfigured Router bound to master. Passing
// an explicit Master (rather than reaching for a process singleton)
// keeps multiple independent drivers constructible side by side in
// tests, per spec.md §9.
func New(master *scheduler.Master, log *zap.Logger) *Router {
	return &Router{
		master:   master,
		log:      log,
		registry: handler.New(),
		byName:   map[string]element.Index{},
	}
}

// Registry exposes the router's handler registry for the control-socket
// element and CLI handler invocations.
func (r *Router) Registry() *handler.Registry { return r.registry }

// Runcount returns the current run-budget counter. Any value <= 0 tells
// every RouterThread driving this router to exit after finishing its
// current task invocation.
func (r *Router) Runcount() int64 { return atomic.LoadInt64(&r.runcount) }

// Stop sets runcount to the shutdown sentinel and wakes every thread so
// each notices promptly rather than waiting out its current sleep.
func (r *Router) Stop() {
	atomic.StoreInt64(&r.runcount, scheduler.StopRuncount)
	for _, rt := range r.master.Threads() {
		rt.Quiesce()
	}
}

// FindElement looks up a live element by its configured instance name.
// Satisfies element.RouterHandle so Configure/Initialize can resolve
// peers named in their argument string.
func (r *Router) FindElement(name string) (element.Base, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.elements[idx].base, true
}

// FindPredecessorElement looks up name in this router's predecessor, if
// it has one. Satisfies element.RouterHandle.
func (r *Router) FindPredecessorElement(name string) (element.Base, bool) {
	if r.predecessor == nil {
		return nil, false
	}
	return r.predecessor.FindElement(name)
}

// Predecessor returns the router this one is replacing during a hot-swap,
// or nil for the first router a Master ever activates. Elements in the
// candidate that want to drain or steal state from their counterparts
// look their predecessor up by name through this router's FindElement.
func (r *Router) Predecessor() *Router { return r.predecessor }

// NewTask creates a task for owner, pinned to the element's assigned
// thread (round-robin across the Master's threads at load time).
func (r *Router) NewTask(owner element.Base) element.Task {
	entry := r.elements[owner.Index()]
	return r.master.Thread(entry.threadIdx).NewTask(owner)
}

// NewTimer creates a timer for owner, pinned to the same thread as its
// tasks. fn runs on that thread only.
func (r *Router) NewTimer(owner element.Base, fn func()) element.Timer {
	entry := r.elements[owner.Index()]
	return r.master.Thread(entry.threadIdx).NewTimer(fn)
}

// AddHandler publishes h in this router's registry.
func (r *Router) AddHandler(h element.Handler) {
	class := ""
	if idx, ok := r.byName[h.Element]; ok {
		class = r.elements[idx].class
	}
	r.registry.Add(class, h)
}

// ReadHandler, WriteHandler, and ExpandHandler let an element (namely
// ControlSocket) drive the same handler namespace the CLI and control
// socket protocol use, without depending on the handler package
// directly. Satisfies element.RouterHandle.
func (r *Router) ReadHandler(fullName string) (string, error) {
	return r.registry.Read(fullName)
}

func (r *Router) WriteHandler(fullName, payload string) error {
	return r.registry.Write(fullName, payload)
}

func (r *Router) ExpandHandler(pattern string) ([]string, error) {
	return r.registry.Expand(pattern)
}

// ThreadIndex always returns 0. It is given no element, so it does not
// report a per-element assignment: NewTask and NewTimer pin an element's
// work to the thread instantiate chose for it (declaration index modulo
// the thread count), which can be a thread other than 0.
func (r *Router) ThreadIndex() int { return 0 }

// Elements returns every element in declaration order, for flatconfig
// rendering and diagnostics.
func (r *Router) Elements() []element.Base {
	out := make([]element.Base, len(r.elements))
	for i, e := range r.elements {
		out[i] = e.base
	}
	return out
}

// Master returns the Master this router is (or was) activated under.
func (r *Router) Master() *scheduler.Master { return r.master }
