// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/clickrt/clickrt/config"
	"github.com/clickrt/clickrt/element"
)

// Activate marks the router initialized, binds every Master thread's
// driver loop to this router's runcount, and publishes the built-in
// root-element handlers. Implements spec.md §4.1 step 5; called once by
// the loader's caller (cmd/clickd, or the hot-swap task for a candidate
// router).
func (r *Router) Activate() {
	r.initialized = true
	atomic.StoreInt64(&r.runcount, ActiveRuncount)
	r.startedAt = time.Now()

	for _, rt := range r.master.Threads() {
		rt.BindRuncount(&r.runcount)
	}

	r.publishBuiltinHandlers()
	// Elements normally call Task.Reschedule from their own Initialize,
	// scheduling themselves onto a thread whose runcount was still the
	// zero placeholder at that point; wake every thread now that
	// BindRuncount above has pointed it at this router's live runcount.
	for _, rt := range r.master.Threads() {
		rt.Quiesce()
	}
}

// publishBuiltinHandlers registers the handlers the engine itself
// exposes on the root element, per spec.md §4.4: flatconfig, stop, time,
// and one statistics handler per thread. hotconfig is not registered
// here; cmd/clickd registers it when --allow-reconfigure is set.
func (r *Router) publishBuiltinHandlers() {
	r.registry.Add("", element.Handler{
		Name:  "flatconfig",
		Flags: element.Raw,
		ReadFn: func() (string, error) {
			return r.FlatConfig(), nil
		},
	})
	r.registry.Add("", element.Handler{
		Name: "stop",
		ReadFn: func() (string, error) {
			return "true", nil
		},
		WriteFn: func(string) error {
			r.Stop()
			return nil
		},
	})
	r.registry.Add("", element.Handler{
		Name: "time",
		ReadFn: func() (string, error) {
			return r.startedAt.Format(time.RFC3339Nano), nil
		},
	})
	for _, rt := range r.master.Threads() {
		rt := rt
		name := fmt.Sprintf("thread%d.stats", rt.Index())
		r.registry.Add("", element.Handler{
			Element: "",
			Name:    name,
			Flags:   element.Nonexclusive,
			ReadFn: func() (string, error) {
				r.master.RefreshMetrics()
				s := rt.SnapshotStats()
				return fmt.Sprintf("tasks_run=%d timers_fired=%d idle_sleeps=%d",
					s.TasksRun, s.TimersFired, s.IdleSleeps), nil
			},
		})
	}
}

// FlatConfig renders the router's current graph as canonical
// configuration text. It is reconstructed from the live element table
// and connection table (not cached parse output), so it reflects any
// runtime handler-driven reconfiguration a future element might do to
// its own wiring.
func (r *Router) FlatConfig() string {
	decls := &config.Declarations{}
	for _, entry := range r.elements {
		decls.Elements = append(decls.Elements, config.ElementDecl{
			Name: entry.name, Class: entry.class, Args: entry.args,
		})
	}
	conns := make([]resolvedConnection, len(r.connections))
	copy(conns, r.connections)
	sort.SliceStable(conns, func(i, j int) bool {
		if conns[i].fromElem != conns[j].fromElem {
			return conns[i].fromElem < conns[j].fromElem
		}
		return conns[i].fromPort < conns[j].fromPort
	})
	for _, c := range conns {
		decls.Connections = append(decls.Connections, config.ConnectionDecl{
			From: config.PortRef{Element: r.elements[c.fromElem].name, Port: c.fromPort},
			To:   config.PortRef{Element: r.elements[c.toElem].name, Port: c.toPort},
		})
	}
	return config.Flatten(decls)
}
