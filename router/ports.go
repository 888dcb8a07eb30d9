// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router

import (
	"fmt"

	"github.com/clickrt/clickrt/common"
	"github.com/clickrt/clickrt/config"
	"github.com/clickrt/clickrt/element"
)

// resolvePorts assigns port numbers to every connection, computes each
// element's actual port counts against its declared min/max, propagates
// concrete directions across agnostic ports, and finally binds every
// element's resolved OutputPort/InputPort handles. Implements spec.md
// §4.1 step 3.
func (r *Router) resolvePorts(decls *config.Declarations) error {
	if err := r.assignConnections(decls); err != nil {
		return err
	}
	if err := r.countPorts(); err != nil {
		return err
	}
	r.initDirections()
	if err := r.propagateDirections(); err != nil {
		return err
	}
	return r.bindPortHandles()
}

// assignConnections turns declaration-level PortRefs (which may say "no
// explicit port number", meaning "next free") into this router's
// resolvedConnection list, with every from/to port number concrete.
func (r *Router) assignConnections(decls *config.Declarations) error {
	nextOut := map[element.Index]int{}
	nextIn := map[element.Index]int{}

	for _, cd := range decls.Connections {
		fromIdx, ok := r.byName[cd.From.Element]
		if !ok {
			return common.WrapError(nil, landmark(cd.Where), fmt.Sprintf("connection references unknown element %q", cd.From.Element), common.LinkErr)
		}
		toIdx, ok := r.byName[cd.To.Element]
		if !ok {
			return common.WrapError(nil, landmark(cd.Where), fmt.Sprintf("connection references unknown element %q", cd.To.Element), common.LinkErr)
		}

		fromPort := cd.From.Port
		if fromPort < 0 {
			fromPort = nextOut[fromIdx]
		}
		nextOut[fromIdx] = fromPort + 1

		toPort := cd.To.Port
		if toPort < 0 {
			toPort = nextIn[toIdx]
		}
		nextIn[toIdx] = toPort + 1

		for _, existing := range r.connections {
			if existing.fromElem == fromIdx && existing.fromPort == fromPort {
				return common.WrapError(nil, landmark(cd.Where), fmt.Sprintf("output %s[%d] already connected", cd.From.Element, fromPort), common.LinkErr)
			}
			if existing.toElem == toIdx && existing.toPort == toPort {
				return common.WrapError(nil, landmark(cd.Where), fmt.Sprintf("input %s[%d] already connected", cd.To.Element, toPort), common.LinkErr)
			}
		}

		r.connections = append(r.connections, resolvedConnection{
			fromElem: fromIdx, fromPort: fromPort,
			toElem: toIdx, toPort: toPort,
			where: cd.Where,
		})
	}
	return nil
}

// countPorts derives numIn/numOut per element from the highest port index
// actually referenced, validated against PortCounts' declared min/max.
func (r *Router) countPorts() error {
	maxOutUsed := make([]int, len(r.elements))
	maxInUsed := make([]int, len(r.elements))
	for i := range maxOutUsed {
		maxOutUsed[i], maxInUsed[i] = -1, -1
	}
	for _, c := range r.connections {
		if c.fromPort > maxOutUsed[c.fromElem] {
			maxOutUsed[c.fromElem] = c.fromPort
		}
		if c.toPort > maxInUsed[c.toElem] {
			maxInUsed[c.toElem] = c.toPort
		}
	}

	for i, entry := range r.elements {
		minIn, maxIn, minOut, maxOut := entry.base.PortCounts()
		numIn := maxInUsed[i] + 1
		if numIn < minIn {
			numIn = minIn
		}
		if maxIn >= 0 && numIn > maxIn {
			return common.WrapError(nil, common.Landmark{}, fmt.Sprintf("element %q: %d input connections exceeds max %d", entry.name, numIn, maxIn), common.LinkErr)
		}
		numOut := maxOutUsed[i] + 1
		if numOut < minOut {
			numOut = minOut
		}
		if maxOut >= 0 && numOut > maxOut {
			return common.WrapError(nil, common.Landmark{}, fmt.Sprintf("element %q: %d output connections exceeds max %d", entry.name, numOut, maxOut), common.LinkErr)
		}
		entry.numIn, entry.numOut = numIn, numOut
	}
	return nil
}

// initDirections seeds each port's starting direction from the element's
// uniform Processing() answer, or from CustomProcessing when the element
// implements it.
func (r *Router) initDirections() {
	for _, entry := range r.elements {
		entry.inDirs = make([]element.Direction, entry.numIn)
		entry.outDirs = make([]element.Direction, entry.numOut)

		if custom, ok := entry.base.(element.CustomProcessing); ok {
			inDirs, outDirs := custom.InputProcessing(), custom.OutputProcessing()
			for i := range entry.inDirs {
				if i < len(inDirs) {
					entry.inDirs[i] = inDirs[i]
				}
			}
			for i := range entry.outDirs {
				if i < len(outDirs) {
					entry.outDirs[i] = outDirs[i]
				}
			}
			continue
		}

		uniform := entry.base.Processing()
		for i := range entry.inDirs {
			entry.inDirs[i] = uniform
		}
		for i := range entry.outDirs {
			entry.outDirs[i] = uniform
		}
	}
}

// propagateDirections repeatedly walks every connection, copying a
// resolved direction across an agnostic peer, until a fixed point. A
// connection requires both sides push-capable or both sides pull-capable;
// agnostic adopts whichever its neighbor settles on. Unresolved or
// conflicting ports after the fixed point are reported together.
func (r *Router) propagateDirections() error {
	changed := true
	for changed {
		changed = false
		for _, c := range r.connections {
			from := &r.elements[c.fromElem].outDirs[c.fromPort]
			to := &r.elements[c.toElem].inDirs[c.toPort]

			switch {
			case *from == element.Agnostic && *to != element.Agnostic:
				*from = *to
				changed = true
			case *to == element.Agnostic && *from != element.Agnostic:
				*to = *from
				changed = true
			}
		}
	}

	var problems []string
	for _, c := range r.connections {
		from := r.elements[c.fromElem].outDirs[c.fromPort]
		to := r.elements[c.toElem].inDirs[c.toPort]
		if from == element.Agnostic || to == element.Agnostic {
			problems = append(problems, fmt.Sprintf("%s: %s[%d] -> %s[%d] left unresolved (agnostic->agnostic)",
				c.where, r.elements[c.fromElem].name, c.fromPort, r.elements[c.toElem].name, c.toPort))
			continue
		}
		if from != to {
			problems = append(problems, fmt.Sprintf("%s: %s[%d] (%s) -> %s[%d] (%s) direction conflict",
				c.where, r.elements[c.fromElem].name, c.fromPort, from, r.elements[c.toElem].name, c.toPort, to))
		}
	}
	if len(problems) > 0 {
		msg := "port resolution failed:"
		for _, p := range problems {
			msg += "\n  " + p
		}
		return common.WrapError(nil, common.Landmark{}, msg, common.LinkErr)
	}
	return nil
}

// bindPortHandles constructs the concrete OutputPort/InputPort handles
// for every element, now that every port's direction and peer are known,
// and hands them to each element via BindPorts.
func (r *Router) bindPortHandles() error {
	outPeer := map[element.Index]map[int]resolvedConnection{}
	inPeer := map[element.Index]map[int]resolvedConnection{}
	for _, c := range r.connections {
		if outPeer[c.fromElem] == nil {
			outPeer[c.fromElem] = map[int]resolvedConnection{}
		}
		outPeer[c.fromElem][c.fromPort] = c
		if inPeer[c.toElem] == nil {
			inPeer[c.toElem] = map[int]resolvedConnection{}
		}
		inPeer[c.toElem][c.toPort] = c
	}

	for i, entry := range r.elements {
		idx := element.Index(i)
		outputs := make([]element.OutputPort, entry.numOut)
		for p := 0; p < entry.numOut; p++ {
			c, connected := outPeer[idx][p]
			if !connected {
				outputs[p] = &unconnectedOutput{dir: entry.outDirs[p]}
				continue
			}
			outputs[p] = &routedOutput{r: r, dir: entry.outDirs[p], toElem: c.toElem, toPort: c.toPort}
		}

		inputs := make([]element.InputPort, entry.numIn)
		for p := 0; p < entry.numIn; p++ {
			c, connected := inPeer[idx][p]
			if !connected {
				inputs[p] = &unconnectedInput{dir: entry.inDirs[p]}
				continue
			}
			inputs[p] = &routedInput{r: r, dir: entry.inDirs[p], fromElem: c.fromElem, fromPort: c.fromPort}
		}

		entry.base.BindPorts(outputs, inputs)
	}
	return nil
}
