// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/c3d/driver"
)

// loggerPtr stores the active logger. Accessed atomically for thread safety.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(driver.NopLogger())
}

// slogger returns the current package logger.
func slogger() *slog.Logger { return loggerPtr.Load() }

// setLogger updates the package-level logger.
// Called from Driver.SetLogger when c3d.SetLogger propagates.
func setLogger(l *slog.Logger) {
	if l == nil {
		l = driver.NopLogger()
	}
	loggerPtr.Store(l)
}
