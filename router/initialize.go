// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router

import (
	"fmt"

	"github.com/clickrt/clickrt/common"
	"github.com/clickrt/clickrt/element"
)

// initializeAll calls Initialize on every element in dependency order:
// elements exposing no inputs (sources, shared-state tables other
// elements look up by name) come up first, so a consumer's Initialize
// can already find its supplier live. Implements spec.md §4.1 step 4.
// Partial failure rolls back every element already initialized via
// Cleanup(StageInitialized), then reports the first failure's element
// and error.
func (r *Router) initializeAll() error {
	order := r.initOrder()

	var initialized []int
	for _, i := range order {
		entry := r.elements[i]
		if err := entry.base.Initialize(); err != nil {
			for _, j := range initialized {
				r.elements[j].base.Cleanup(element.StageInitialized)
			}
			return common.WrapError(err, common.Landmark{}, fmt.Sprintf("initializing %q (%s)", entry.name, entry.class), common.InitializeErr)
		}
		initialized = append(initialized, i)
	}
	return nil
}

// initOrder returns element indices with every zero-input element first
// (stable, declaration order within each bucket), then the rest.
func (r *Router) initOrder() []int {
	order := make([]int, 0, len(r.elements))
	var rest []int
	for i, entry := range r.elements {
		if entry.numIn == 0 {
			order = append(order, i)
		} else {
			rest = append(rest, i)
		}
	}
	return append(order, rest...)
}
