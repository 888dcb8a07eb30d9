// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elements

import (
	"strconv"
	"sync/atomic"

	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/packet"
)

// Counter is an agnostic pass-through that tallies every packet through
// it. Its direction is settled entirely by propagation from its
// neighbors, the simplest possible agnostic element.
type Counter struct {
	element.Skeleton

	count int64
}

func init() {
	element.Register("Counter", func() element.Base { return &Counter{} })
}

func (c *Counter) PortCounts() (int, int, int, int) { return 1, 1, 1, 1 }
func (c *Counter) Processing() element.Direction    { return element.Agnostic }
func (c *Counter) Configure(string) error            { return nil }

func (c *Counter) Initialize() error {
	c.Router.AddHandler(element.Handler{
		Element: c.Name(),
		Name:    "count",
		ReadFn: func() (string, error) {
			return strconv.FormatInt(atomic.LoadInt64(&c.count), 10), nil
		},
	})
	c.Router.AddHandler(element.Handler{
		Element: c.Name(),
		Name:    "reset",
		WriteFn: func(string) error {
			atomic.StoreInt64(&c.count, 0)
			return nil
		},
	})
	return nil
}

func (c *Counter) Cleanup(element.Stage) {}

func (c *Counter) Simple(pkt *packet.Packet) *packet.Packet {
	atomic.AddInt64(&c.count, 1)
	return pkt
}
