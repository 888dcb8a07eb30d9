// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/clickrt/clickrt/common"
	"github.com/clickrt/clickrt/config"
	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/scheduler"
)

// landmark converts a config-package source location to the common
// package's, the shape every *common.EngineError carries.
func landmark(l config.Landmark) common.Landmark {
	return common.Landmark{File: l.File, Line: l.Line}
}

// Load runs the loader's first four stages (instantiate, configure,
// resolve ports, initialize) over decls and returns a Router ready for
// Activate, or an error if any stage fails. Configure-stage errors are
// accumulated across every element before being returned together, so a
// configuration with several mistakes reports all of them in one pass;
// every earlier stage instead fails fast with the landmark of the first
// problem, matching spec.md §4.1's per-stage error policy.
func Load(master *scheduler.Master, log *zap.Logger, decls *config.Declarations) (*Router, error) {
	r := New(master, log)

	if err := r.instantiate(decls); err != nil {
		return nil, err
	}
	if err := r.configureAll(decls); err != nil {
		return nil, err
	}
	if err := r.resolvePorts(decls); err != nil {
		return nil, err
	}
	if err := r.initializeAll(); err != nil {
		return nil, err
	}
	return r, nil
}

// instantiate looks up each declared class in the element factory
// registry and constructs one instance per declaration, imprinting its
// router-assigned index and instance name. Unknown class is fatal with
// the declaration's landmark, per spec.md §4.1 step 1.
func (r *Router) instantiate(decls *config.Declarations) error {
	numThreads := len(r.master.Threads())
	if numThreads < 1 {
		numThreads = 1
	}
	for i, ed := range decls.Elements {
		factory, ok := element.Lookup(ed.Class)
		if !ok {
			return common.WrapError(nil, landmark(ed.Where),
				fmt.Sprintf("unknown element class %q (used by %q)", ed.Class, ed.Name), common.LinkErr)
		}
		base := factory()
		idx := element.Index(i)
		base.BindIdentity(ed.Class, idx, ed.Name)

		if _, dup := r.byName[ed.Name]; dup {
			return common.WrapError(nil, landmark(ed.Where),
				fmt.Sprintf("duplicate element name %q", ed.Name), common.LinkErr)
		}
		r.byName[ed.Name] = idx
		r.elements = append(r.elements, &elementEntry{
			base:      base,
			name:      ed.Name,
			class:     ed.Class,
			args:      ed.Args,
			threadIdx: i % numThreads,
		})
	}
	return nil
}

// configureAll calls Configure on every element, collecting errors across
// all of them (rather than stopping at the first) so a configuration
// with several mistakes is reported in one pass, per spec.md §4.1 step 2.
func (r *Router) configureAll(decls *config.Declarations) error {
	var errs common.ErrorList
	for i, ed := range decls.Elements {
		entry := r.elements[i]
		bindRouterHandle(entry.base, r)
		if err := entry.base.Configure(ed.Args); err != nil {
			errs.Add(common.WrapError(err, landmark(ed.Where),
				fmt.Sprintf("configuring %q", ed.Name), common.ConfigureErr))
		}
	}
	return errs.Err()
}

func bindRouterHandle(base element.Base, r *Router) {
	if b, ok := base.(interface{ SetRouterHandle(element.RouterHandle) }); ok {
		b.SetRouterHandle(r)
	}
}
