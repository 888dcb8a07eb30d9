// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/clickrt/clickrt/config"
	"github.com/clickrt/clickrt/element"
	_ "github.com/clickrt/clickrt/elements"
	"github.com/clickrt/clickrt/router"
	"github.com/clickrt/clickrt/scheduler"
)

// TestExitHandlerBecomesExitCode is S6: the process exit code must equal
// the value read from --exit-handler's target when it parses as an
// integer, and 1 when it parses as a false boolean.
func TestExitHandlerBecomesExitCode(t *testing.T) {
	master := scheduler.NewMaster(1, zap.NewNop(), nil)
	decls, err := config.ParseAndExpand("s6", `
cnt :: Counter();`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r, err := router.Load(master, zap.NewNop(), decls)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r.Activate()
	defer r.Stop()

	r.AddHandler(element.Handler{
		Name:   "exitcode",
		ReadFn: func() (string, error) { return "7", nil },
	})

	o := &options{exitHandler: "exitcode"}
	if got := finish(r, o, time.Time{}); got != 7 {
		t.Fatalf("exit code = %d, want 7", got)
	}

	r.AddHandler(element.Handler{
		Name:   "exitbool",
		ReadFn: func() (string, error) { return "false", nil },
	})
	oBool := &options{exitHandler: "exitbool"}
	if got := finish(r, oBool, time.Time{}); got != 1 {
		t.Fatalf("exit code for false handler = %d, want 1", got)
	}
}
