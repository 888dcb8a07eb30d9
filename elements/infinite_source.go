// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elements

import (
	"strconv"

	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/packet"
)

// InfiniteSource is a push source that generates LENGTH-byte packets of
// zero-filled payload until stopped, or until it has sent LIMIT packets
// when LIMIT is set. Its single task pushes one packet per invocation and
// stays runnable until then, so it produces as fast as the scheduler runs
// it.
type InfiniteSource struct {
	element.Skeleton

	length int
	limit  int64 // <=0 means unbounded
	count  int64

	task element.Task
}

func init() {
	element.Register("InfiniteSource", func() element.Base { return &InfiniteSource{length: 64} })
}

func (s *InfiniteSource) PortCounts() (int, int, int, int) { return 0, 0, 1, 1 }
func (s *InfiniteSource) Processing() element.Direction    { return element.Push }

// Configure accepts a positional LENGTH ("InfiniteSource(64)") or a
// keyword LENGTH/LIMIT form ("InfiniteSource(LENGTH 64, LIMIT 1000)").
func (s *InfiniteSource) Configure(args string) error {
	positional, kv := parseArgs(args)
	if len(positional) > 0 {
		n, err := strconv.Atoi(positional[0])
		if err != nil {
			return err
		}
		s.length = n
	}
	if v, ok := kv["LENGTH"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.length = n
	}
	if v, ok := kv["LIMIT"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		s.limit = n
	}
	return nil
}

func (s *InfiniteSource) Initialize() error {
	s.task = s.Router.NewTask(s)
	s.task.Reschedule()
	return nil
}

func (s *InfiniteSource) Cleanup(element.Stage) {}

func (s *InfiniteSource) RunTask() bool {
	if s.limit > 0 && s.count >= s.limit {
		return false
	}
	pkt := packet.NewSize(s.length)
	s.count++
	s.Output(0).Push(pkt)
	return true
}
