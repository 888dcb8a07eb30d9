// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import (
	"fmt"

	"github.com/clickrt/clickrt/packet"
)

// Index is a stable, router-local handle to an element. Tasks and ports
// reference their owning element by Index rather than by pointer, so the
// router can own every element in one table without back-edges.
type Index int

// OutputPort is the push/pull-resolved handle an element uses to emit a
// packet on one of its own output ports. The router supplies the concrete
// implementation during port resolution; from the element's point of view
// it is just "send this packet downstream."
type OutputPort interface {
	// Push delivers pkt to whatever is connected to this output,
	// transferring ownership. Valid only once resolution gave this port
	// Push direction.
	Push(pkt *packet.Packet)
	// Direction reports the direction port resolution settled on for
	// this output. Pull-resolved outputs are driven from the downstream
	// side, see InputPort.Pull.
	Direction() Direction
}

// InputPort is the handle an element uses to pull a packet through one of
// its own input ports when that port resolved to Pull.
type InputPort interface {
	Pull() *packet.Packet
	Direction() Direction
	// Signal returns the NotifierSignal the router holds for this input;
	// it is never nil. Nothing in the engine connects it to the upstream
	// element's state, so it stays inactive unless some element sets it
	// itself.
	Signal() *NotifierSignal
}

// Task is the scheduler handle an element uses to control a task it
// registered during Initialize.
type Task interface {
	Reschedule()
	Unschedule()
}

// Timer is the scheduler handle an element uses to control a timer it
// registered during Initialize.
type Timer interface {
	ScheduleAfter(nanos int64)
	ScheduleAt(unixNano int64)
	Unschedule()
}

// RouterHandle is the minimal surface Initialize needs from its owning
// router: peer lookup for late-bound configure-stage requirements, task
// and timer registration, and handler publication. Defined here (rather
// than importing the router package) so element has no dependency on
// router, handler, or scheduler — they depend on element instead.
type RouterHandle interface {
	FindElement(name string) (Base, bool)
	// FindPredecessorElement looks up name in the router this one is
	// hot-swap-replacing, letting a candidate element drain or steal
	// state from its outgoing counterpart. Returns false if this router
	// has no predecessor (the first router a Master ever activates).
	FindPredecessorElement(name string) (Base, bool)
	NewTask(owner Base) Task
	NewTimer(owner Base, fn func()) Timer
	AddHandler(h Handler)
	ThreadIndex() int

	// ReadHandler and WriteHandler let an element (typically a
	// control-socket-style element with no ports of its own) invoke the
	// handler namespace on the caller's behalf, applying the same
	// exclusive-lock and glob-expansion rules the CLI and control socket
	// both go through.
	ReadHandler(fullName string) (string, error)
	WriteHandler(fullName, payload string) error
	ExpandHandler(pattern string) ([]string, error)
}

// Skeleton carries the bookkeeping every concrete element needs and that
// has nothing to do with its particular packet-processing logic: its
// class name, router-assigned index and instance name, resolved ports,
// and a back-pointer to its router. Concrete elements embed Skeleton and
// get ClassName/Name/Index scaffolding plus Output/Input accessors; they
// still implement PortCounts, Processing, Configure/Initialize/Cleanup
// and one of Receive/Yield/Simple themselves.
type Skeleton struct {
	class   string
	index   Index
	name    string
	outputs []OutputPort
	inputs  []InputPort
	Router  RouterHandle
}

// BindIdentity imprints the router-assigned class, index, and instance
// name onto a freshly constructed element. Concrete elements embed a
// zero-value Skeleton; the router calls BindIdentity once, right after
// the factory returns, before Configure.
func (s *Skeleton) BindIdentity(class string, index Index, name string) {
	s.class, s.index, s.name = class, index, name
}

func (s *Skeleton) ClassName() string { return s.class }
func (s *Skeleton) Index() Index      { return s.index }
func (s *Skeleton) Name() string      { return s.name }

// SetRouterHandle binds the Router field; called by the loader once per
// element right before Configure, so Configure itself can already use
// s.Router for late-bound peer lookups if it needs to.
func (s *Skeleton) SetRouterHandle(h RouterHandle) { s.Router = h }

// BindPorts is called by the router once port resolution completes,
// giving the element its resolved output/input handles.
func (s *Skeleton) BindPorts(outputs []OutputPort, inputs []InputPort) {
	s.outputs = outputs
	s.inputs = inputs
}

// Output returns the resolved handle for output port i. Panics on an
// out-of-range port, which indicates a loader bug (ports are validated
// against PortCounts before BindPorts runs).
func (s *Skeleton) Output(i int) OutputPort {
	if i < 0 || i >= len(s.outputs) {
		panic(fmt.Sprintf("element %s: output port %d out of range (have %d)", s.name, i, len(s.outputs)))
	}
	return s.outputs[i]
}

// Input returns the resolved handle for input port i.
func (s *Skeleton) Input(i int) InputPort {
	if i < 0 || i >= len(s.inputs) {
		panic(fmt.Sprintf("element %s: input port %d out of range (have %d)", s.name, i, len(s.inputs)))
	}
	return s.inputs[i]
}

func (s *Skeleton) NumOutputs() int { return len(s.outputs) }
func (s *Skeleton) NumInputs() int  { return len(s.inputs) }
