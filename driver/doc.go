// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package driver defines the primitive GPU interface an Instance drives and
// a registry of available implementations.
//
// # Implementations
//
//   - software: CPU reference driver with emulated uniform register files
//   - wgpu: desktop GPU driver on gogpu/wgpu
//   - citro3d: real hardware, built with the citro3d tag
//
// # Registration and Selection
//
// Driver packages register themselves on import:
//
//	import _ "github.com/gogpu/c3d/driver/software"
//
// Default picks the first usable driver in priority order
// citro3d > wgpu > software. A factory returns nil when its driver cannot
// run on the host, so a build without the citro3d tag falls through to the
// next driver.
//
// # Thread Safety
//
// The registry is safe for concurrent use. Drivers model a single global
// hardware context and expect one caller at a time.
package driver
