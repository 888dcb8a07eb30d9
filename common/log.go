// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package common holds the logging and error facilities shared by every
// other package in the engine: lexer/parser, router, scheduler, handler
// registry, and the built-in elements.
package common

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogType is a bitmask selecting which classes of log output are enabled.
// It mirrors the teacher's leveled logging (Initialization/Debug/Verbose)
// so call sites read the same way; the backing writer is zap instead of
// the standard library's log package.
type LogType uint8

const (
	// No disables all output, even after fatal errors.
	No LogType = 1 << iota
	// Initialization enables output during router/master construction.
	Initialization
	// Debug enables output once per scheduler tick during execution.
	Debug
	// Verbose enables output as soon as something happens; can affect
	// packet-path latency and should not be left on in production.
	Verbose
)

var (
	currentLogType = No | Initialization | Debug
	base           = zap.Must(zap.NewProduction())
)

// SetLogType changes which log classes are emitted.
func SetLogType(logType LogType) {
	currentLogType = logType
}

// SetDevelopmentLogging swaps in a human-readable console encoder, useful
// for clickd running at a terminal instead of under a supervisor.
func SetDevelopmentLogging() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := cfg.Build()
	if err == nil {
		base = logger
	}
}

// With returns a logger carrying structured fields, e.g. router or thread
// identity, for call sites that want consistent context on every line.
func With(fields ...zap.Field) *zap.Logger {
	return base.With(fields...)
}

func enabled(logType LogType) bool {
	return logType&currentLogType != 0
}

// LogFatal logs at fatal level and terminates the process when logType is
// enabled; otherwise it exits silently. Used at load time for conditions
// from which the loader cannot recover.
func LogFatal(logType LogType, v ...interface{}) {
	if enabled(logType) {
		base.Sugar().Fatal(v...)
	}
	os.Exit(1)
}

// LogFatalf is LogFatal with Printf-style formatting.
func LogFatalf(logType LogType, format string, v ...interface{}) {
	if enabled(logType) {
		base.Sugar().Fatalf(format, v...)
	}
	os.Exit(1)
}

// LogError logs at error level when logType is enabled and returns the
// formatted message, so callers can also surface it through a handler or
// an accumulated load error.
func LogError(logType LogType, v ...interface{}) string {
	if enabled(logType) {
		s := base.Sugar()
		msg := fmt.Sprintln(v...)
		s.Error(msg)
		return msg
	}
	return ""
}

// LogWarning logs a recoverable condition, e.g. a dropped packet count
// roll-up or a handler call that could not be serviced.
func LogWarning(logType LogType, v ...interface{}) {
	if enabled(logType) {
		base.Sugar().Warn(v...)
	}
}

// LogDebug logs per-tick scheduler and router diagnostics.
func LogDebug(logType LogType, v ...interface{}) {
	if enabled(logType) {
		base.Sugar().Debug(v...)
	}
}

// LogInfo logs router lifecycle events: parse, initialize, activate,
// hot-swap, teardown.
func LogInfo(logType LogType, v ...interface{}) {
	if enabled(logType) {
		base.Sugar().Info(v...)
	}
}

// LogDrop logs a packet-path drop. Drops never surface as errors (spec
// kind "Packet-path failure"), they are purely observational.
func LogDrop(logType LogType, v ...interface{}) {
	if enabled(logType) {
		base.Sugar().Info(append([]interface{}{"DROP:"}, v...)...)
	}
}

// Sync flushes buffered log entries; call before process exit.
func Sync() {
	_ = base.Sync()
}
