// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ErrorCode classifies an EngineError the way the teacher's NFError does,
// generalized from DPDK/mbuf failure modes to the load-time and runtime
// failure kinds spec.md §7 names.
type ErrorCode int

const (
	_ ErrorCode = iota
	// Fail is a generic, otherwise-unclassified failure.
	Fail
	// ParseErr: configuration syntax or unknown token.
	ParseErr
	// LinkErr: unknown class, bad port number, unresolved agnostic
	// direction, duplicate connection.
	LinkErr
	// ConfigureErr: an element rejected its argument string.
	ConfigureErr
	// InitializeErr: missing peer element or unavailable resource.
	InitializeErr
	// RuntimeWarning: recoverable, reported but does not stop the driver.
	RuntimeWarning
	// HandlerErr: a handler call failed; returned to the caller, never
	// terminates the process.
	HandlerErr
	// HotSwapErr: a hot-swap candidate failed to parse, configure, or
	// initialize.
	HotSwapErr
)

// Landmark is a source location, file:line, preserved from the lexer
// through to error messages the way Click's error handler does.
type Landmark struct {
	File string
	Line int
}

func (l Landmark) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// EngineError is the error type returned by every loader and runtime
// stage in this module. It keeps the teacher's code+message+cause shape
// (common/error.go in the teacher) and adds the source Landmark that
// load-time errors in a Click-style configuration always carry.
type EngineError struct {
	Code     ErrorCode
	Message  string
	At       Landmark
	CauseErr error
}

type causer interface {
	Cause() error
}

// Error implements the error interface.
func (err *EngineError) Error() string {
	if loc := err.At.String(); loc != "" {
		return fmt.Sprintf("%s: %s (%d)", loc, err.Message, err.Code)
	}
	return fmt.Sprintf("%s (%d)", err.Message, err.Code)
}

// Cause returns the underlying error, unwrapping recursively, or err
// itself if there is no cause.
func (err *EngineError) Cause() error {
	if err == nil {
		return nil
	}
	if err.CauseErr != nil {
		if c, ok := err.CauseErr.(causer); ok {
			return c.Cause()
		}
		return err.CauseErr
	}
	return err
}

// Format supports %s/%v/%+v the way the teacher's NFError.Format does:
// %+v recursively prints the cause chain and stack trace when present.
func (err *EngineError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			if cause := err.Cause(); cause != err && cause != nil {
				fmt.Fprintf(s, "%+v\n", cause)
				io.WriteString(s, err.Error())
				return
			}
		}
		fallthrough
	case 's', 'q':
		io.WriteString(s, err.Error())
	}
}

// WrapError annotates err (which may be nil) with a stack trace, message,
// code, and source landmark.
func WrapError(err error, at Landmark, message string, code ErrorCode) error {
	e := &EngineError{
		Code:     code,
		Message:  message,
		At:       at,
		CauseErr: err,
	}
	return errors.WithStack(e)
}

// GetEngineError unwraps err (possibly behind errors.WithStack) down to
// its *EngineError, or nil if err isn't one.
func GetEngineError(err error) *EngineError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EngineError); ok {
		return ee
	}
	if c, ok := err.(causer); ok {
		if ee, ok := c.Cause().(*EngineError); ok {
			return ee
		}
	}
	return nil
}

// ErrorList accumulates independent load-time failures (e.g. configure
// errors across many elements, spec.md §4.1 step 2: "collected but do not
// stop later elements from being configured") so they can be reported
// together. It wraps github.com/hashicorp/go-multierror, formatting each
// entry with its Landmark when present.
type ErrorList struct {
	merr *multierror.Error
}

// Add appends err to the list; a nil err is a no-op.
func (l *ErrorList) Add(err error) {
	if err == nil {
		return
	}
	l.merr = multierror.Append(l.merr, err)
}

// Err returns the accumulated error, or nil if nothing was added.
func (l *ErrorList) Err() error {
	if l.merr == nil || len(l.merr.Errors) == 0 {
		return nil
	}
	return l.merr
}

// Len reports how many errors have been accumulated.
func (l *ErrorList) Len() int {
	if l.merr == nil {
		return 0
	}
	return len(l.merr.Errors)
}
