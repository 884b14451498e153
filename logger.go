// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package c3d

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/c3d/driver"
)

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// current is the live instance's driver, if any, so that SetLogger can
// reach it.
var current atomic.Pointer[driverRef]

type driverRef struct{ d driver.Driver }

func init() {
	loggerPtr.Store(driver.NopLogger())
}

// SetLogger configures the logger for c3d and the live driver.
// By default, c3d produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by c3d:
//   - [slog.LevelDebug]: register writes, draws, pipeline creation
//   - [slog.LevelInfo]: lifecycle events (driver selected, device opened)
//   - [slog.LevelWarn]: dropped draws and uniform writes outside a register file
//
// Example:
//
//	c3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = driver.NopLogger()
	}
	loggerPtr.Store(l)

	if ref := current.Load(); ref != nil {
		propagateLogger(ref.d, l)
	}
}

// Logger returns the current logger used by c3d.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// propagateLogger passes the logger to a driver if it implements
// driver.LoggerSetter. Called from both SetLogger and New so the driver
// always has the current logger.
func propagateLogger(d driver.Driver, l *slog.Logger) {
	if ls, ok := d.(driver.LoggerSetter); ok {
		ls.SetLogger(l)
	}
}
