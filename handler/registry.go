// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package handler implements the engine's introspection and control
// namespace: per-element named read/write endpoints, glob and class
// lookup, and the exclusive/nonexclusive invocation discipline spec.md
// §4.4 describes. The registry is a small string-keyed map — lookups are
// rare relative to packet work, so there is no call for anything fancier.
package handler

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/clickrt/clickrt/common"
	"github.com/clickrt/clickrt/element"
)

// Registry holds every handler published by every element in one router,
// plus the per-element class name needed for `class:Foo.counter` lookups.
// Copy-on-write during hot-swap: the candidate router builds its own
// Registry independently, and only the Master's pointer to "the current
// router" (and therefore "the current registry") changes at swap time.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]*element.Handler // "element.name" -> handler
	byClass  map[string][]string         // class name -> full handler names
	locks    map[string]*sync.Mutex      // per-element exclusive lock
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		handlers: map[string]*element.Handler{},
		byClass:  map[string][]string{},
		locks:    map[string]*sync.Mutex{},
	}
}

// Add publishes a handler. Called by an element's Initialize, through the
// element.RouterHandle.AddHandler bridge the router provides.
func (r *Registry) Add(elementClass string, h element.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	full := h.FullName()
	hc := h
	r.handlers[full] = &hc
	if elementClass != "" {
		r.byClass[elementClass] = append(r.byClass[elementClass], full)
	}
	if _, ok := r.locks[h.Element]; !ok {
		r.locks[h.Element] = &sync.Mutex{}
	}
}

// Lookup finds the handler addressed by "element.name" or, for a
// root-element handler, by "name" alone.
func (r *Registry) Lookup(fullName string) (*element.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[fullName]
	return h, ok
}

// Expand resolves a pattern that may use shell-style globbing over
// element names (`*`, `?`, `[...]`) or the `class:Foo.counter` form over
// class names, returning every matching handler's full name in a stable
// order.
func (r *Registry) Expand(pattern string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rest, ok := strings.CutPrefix(pattern, "class:"); ok {
		classAndHandler := strings.SplitN(rest, ".", 2)
		if len(classAndHandler) != 2 {
			return nil, common.WrapError(nil, common.Landmark{}, fmt.Sprintf("malformed class pattern %q", pattern), common.HandlerErr)
		}
		class, hname := classAndHandler[0], classAndHandler[1]
		var out []string
		for _, full := range r.byClass[class] {
			h := r.handlers[full]
			if h.Name == hname {
				out = append(out, full)
			}
		}
		sort.Strings(out)
		return out, nil
	}

	if !strings.ContainsAny(pattern, "*?[") {
		if _, ok := r.handlers[pattern]; ok {
			return []string{pattern}, nil
		}
		return nil, nil
	}

	dot := strings.LastIndex(pattern, ".")
	if dot < 0 {
		return nil, common.WrapError(nil, common.Landmark{}, fmt.Sprintf("pattern %q has no handler name", pattern), common.HandlerErr)
	}
	elemGlob, hname := pattern[:dot], pattern[dot+1:]

	var out []string
	for full, h := range r.handlers {
		if h.Name != hname || h.Flags&element.Hidden != 0 {
			continue
		}
		matched, err := filepath.Match(elemGlob, h.Element)
		if err != nil {
			return nil, common.WrapError(err, common.Landmark{}, fmt.Sprintf("bad glob %q", elemGlob), common.HandlerErr)
		}
		if matched {
			out = append(out, full)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Read invokes a read handler, returning its value with the RAW-flag
// trailing-newline convention applied. Takes the element's exclusive
// lock unless the handler is flagged Nonexclusive.
func (r *Registry) Read(fullName string) (string, error) {
	h, ok := r.Lookup(fullName)
	if !ok {
		return "", common.WrapError(nil, common.Landmark{}, fmt.Sprintf("no such handler %q", fullName), common.HandlerErr)
	}
	if !h.Readable() {
		return "", common.WrapError(nil, common.Landmark{}, fmt.Sprintf("%q is not readable", fullName), common.HandlerErr)
	}
	unlock := r.acquire(h)
	defer unlock()

	v, err := h.ReadFn()
	if err != nil {
		return "", common.WrapError(err, common.Landmark{}, fmt.Sprintf("reading %q", fullName), common.HandlerErr)
	}
	if h.Flags&element.Raw == 0 && !strings.HasSuffix(v, "\n") {
		v += "\n"
	}
	return v, nil
}

// Write invokes a write handler with payload.
func (r *Registry) Write(fullName, payload string) error {
	h, ok := r.Lookup(fullName)
	if !ok {
		return common.WrapError(nil, common.Landmark{}, fmt.Sprintf("no such handler %q", fullName), common.HandlerErr)
	}
	if !h.Writable() {
		return common.WrapError(nil, common.Landmark{}, fmt.Sprintf("%q is not writable", fullName), common.HandlerErr)
	}
	unlock := r.acquire(h)
	defer unlock()
	if err := h.WriteFn(payload); err != nil {
		return common.WrapError(err, common.Landmark{}, fmt.Sprintf("writing %q", fullName), common.HandlerErr)
	}
	return nil
}

func (r *Registry) acquire(h *element.Handler) (release func()) {
	if h.Flags&element.Nonexclusive != 0 {
		return func() {}
	}
	r.mu.RLock()
	lock := r.locks[h.Element]
	r.mu.RUnlock()
	if lock == nil {
		return func() {}
	}
	lock.Lock()
	return lock.Unlock
}
