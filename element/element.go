// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package element defines the capability-interface contract every packet
// handler in the graph implements. Concrete elements (queues, NICs,
// rewriters, link emulators) live outside this package; element only
// fixes the shape the router and scheduler drive them through.
package element

import (
	"github.com/clickrt/clickrt/packet"
)

// Direction is the resolved transfer discipline of a port.
type Direction int

const (
	// Agnostic ports have no fixed direction until link-time resolution
	// propagates one from a connected neighbor.
	Agnostic Direction = iota
	Push
	Pull
)

func (d Direction) String() string {
	switch d {
	case Push:
		return "push"
	case Pull:
		return "pull"
	default:
		return "agnostic"
	}
}

// Base is the contract every element satisfies regardless of its
// processing discipline: naming, configuration, lifecycle, and port
// counts. Concrete elements embed Skeleton to get the router/index
// bookkeeping for free and implement Configure/Initialize/Cleanup
// themselves.
type Base interface {
	// Name is the router-instance name assigned at load time. Provided by
	// Skeleton; concrete elements get it for free by embedding one.
	Name() string

	// Index is this element's stable position in its router's element
	// table. Provided by Skeleton.
	Index() Index

	// BindPorts gives the element its resolved port handles once the
	// router's resolve-ports stage completes. Provided by Skeleton.
	BindPorts(outputs []OutputPort, inputs []InputPort)

	// BindIdentity imprints the router-assigned class/index/name onto a
	// freshly constructed element, at instantiate time. Provided by
	// Skeleton; concrete elements never call this themselves.
	BindIdentity(class string, index Index, name string)

	// ClassName is the stable, human-readable class identifier used in
	// configuration text and the handler class: glob syntax.
	ClassName() string

	// PortCounts returns (minIn, maxIn, minOut, maxOut). A max of -1
	// means unbounded. Elements with fixed arity return the same value
	// for min and max.
	PortCounts() (minIn, maxIn, minOut, maxOut int)

	// Processing declares the element's default per-port direction
	// constraint. A uniform answer (Push, Pull, or Agnostic) applies to
	// every port; an element whose ports differ (e.g. a push input
	// feeding a pull output) returns Agnostic here and implements
	// CustomProcessing instead, the Go analogue of the teacher's per-port
	// processing string like "h/h".
	Processing() Direction

	// Configure parses the element's configuration argument string. It
	// may register required peer elements by name via Router but must
	// not assume other elements are configured yet.
	Configure(args string) error

	// Initialize resolves peer pointers, arms timers, registers
	// handlers, and allocates any buffers. Called once per element in
	// router dependency order, after all ports are resolved.
	Initialize() error

	// Cleanup reverses whatever Initialize completed, given how far
	// initialization got (Stage). Safe to call with StageConfigured if
	// Initialize never ran or failed immediately.
	Cleanup(stage Stage)
}

// Stage records how far an element's lifecycle progressed, so Cleanup
// can safely undo only what actually happened.
type Stage int

const (
	StageConfigured Stage = iota
	StagePortsResolved
	StageInitialized
)

// CustomProcessing is implemented by elements whose ports do not share one
// uniform direction (Processing would otherwise have to lie). Port
// resolution consults these slices instead of the uniform Processing
// answer when present. A Direction of Agnostic in either slice still
// participates in propagation normally.
type CustomProcessing interface {
	InputProcessing() []Direction
	OutputProcessing() []Direction
}

// PortAccessor exposes the Output/Input accessors Skeleton provides, for
// the router to drive an agnostic element's SimpleAction from the
// outside when wrapping it as push or pull.
type PortAccessor interface {
	Output(i int) OutputPort
	Input(i int) InputPort
}

// Pusher is implemented by elements with one or more push inputs. Receive
// takes ownership of pkt; it must not block and may emit further packets
// on its own output ports before returning.
type Pusher interface {
	Receive(port int, pkt *packet.Packet)
}

// Puller is implemented by elements with one or more pull outputs. Yield
// is called by a downstream consumer's Request; it returns ownership of a
// packet to the caller, or nil if none is available right now.
type Puller interface {
	Yield(port int) *packet.Packet
}

// SimpleAction is implemented by elements whose processing is agnostic:
// a single pure transform from one packet to zero-or-one packets. The
// router calls Simple in place of Receive (push) or Yield (pull) when
// the element implements neither, choosing by interface assertion on
// every packet; nothing is cached at link time.
type SimpleAction interface {
	Simple(pkt *packet.Packet) *packet.Packet
}

// TaskRunner is implemented by elements that registered a Task during
// Initialize (sources, pollers, background-thread bridges).
type TaskRunner interface {
	RunTask() (didWork bool)
}

// TimerRunner is implemented by elements that armed a Timer during
// Initialize.
type TimerRunner interface {
	RunTimer()
}
