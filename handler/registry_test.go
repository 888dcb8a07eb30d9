// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package handler_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/clickrt/clickrt/element"
	"github.com/clickrt/clickrt/handler"
)

func TestRegistryLookupAndGlob(t *testing.T) {
	Convey("Given a registry with two Counter elements", t, func() {
		r := handler.New()
		r.Add("Counter", element.Handler{
			Element: "cnt1",
			Name:    "count",
			ReadFn:  func() (string, error) { return "42", nil },
		})
		r.Add("Counter", element.Handler{
			Element: "cnt2",
			Name:    "count",
			ReadFn:  func() (string, error) { return "7", nil },
		})

		Convey("an exact element.handler lookup finds it", func() {
			_, ok := r.Lookup("cnt1.count")
			So(ok, ShouldBeTrue)
		})

		Convey("a shell-style glob over element names matches both", func() {
			matches, err := r.Expand("cnt*.count")
			So(err, ShouldBeNil)
			So(matches, ShouldHaveLength, 2)
		})

		Convey("a class: pattern matches both by class name", func() {
			matches, err := r.Expand("class:Counter.count")
			So(err, ShouldBeNil)
			So(matches, ShouldHaveLength, 2)
		})

		Convey("an unknown exact name expands to nothing, not an error", func() {
			matches, err := r.Expand("cnt1.nosuch")
			So(err, ShouldBeNil)
			So(matches, ShouldBeEmpty)
		})
	})
}

func TestRegistryReadWriteConventions(t *testing.T) {
	Convey("Given a registry with a plain and a RAW handler", t, func() {
		r := handler.New()
		r.Add("", element.Handler{Name: "flatconfig", ReadFn: func() (string, error) { return "a;b", nil }})
		r.Add("", element.Handler{Name: "raw", Flags: element.Raw, ReadFn: func() (string, error) { return "a;b", nil }})
		r.Add("", element.Handler{Name: "stop", ReadFn: func() (string, error) { return "", nil }})

		Convey("reading a non-RAW handler appends a trailing newline", func() {
			v, err := r.Read("flatconfig")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "a;b\n")
		})

		Convey("reading a RAW handler leaves the value untouched", func() {
			v, err := r.Read("raw")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "a;b")
		})

		Convey("writing a read-only handler is rejected", func() {
			err := r.Write("stop", "x")
			So(err, ShouldNotBeNil)
		})

		Convey("reading an unregistered handler is rejected", func() {
			_, err := r.Read("nosuch")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRegistryExclusiveLocking(t *testing.T) {
	Convey("Given a Nonexclusive handler and an exclusive one on the same element", t, func() {
		r := handler.New()
		entered := make(chan struct{})
		release := make(chan struct{})
		r.Add("", element.Handler{
			Element: "e1",
			Name:    "slow",
			ReadFn: func() (string, error) {
				close(entered)
				<-release
				return "slow-done", nil
			},
		})
		r.Add("", element.Handler{
			Element: "e1",
			Name:    "fast",
			Flags:   element.Nonexclusive,
			ReadFn:  func() (string, error) { return "fast-done", nil },
		})

		Convey("a Nonexclusive handler runs while the exclusive one is mid-call", func() {
			done := make(chan string, 1)
			go func() {
				v, _ := r.Read("e1.slow")
				done <- v
			}()
			<-entered

			v, err := r.Read("e1.fast")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "fast-done\n")

			close(release)
			So(<-done, ShouldEqual, "slow-done\n")
		})
	})
}
