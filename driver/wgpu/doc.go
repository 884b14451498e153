// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements driver.Driver on a WebGPU HAL device.
//
// The PICA200 register model is emulated on top of the device: each stage
// keeps a uniform register file, and every draw snapshots the vertex file
// into its own uniform buffer so that writes between draws behave as they
// do on hardware. Render targets are RGBA8 textures. Commands recorded
// between FrameBegin and FrameEnd are encoded into render passes, one per
// run of work on the same target, and submitted together at FrameEnd.
//
// Programs carrying SPIR-V are used as is and must export vs_main and
// fs_main. SHBIN programs cannot run on a WebGPU device; for those the
// driver substitutes a built-in pipeline that transforms v0 by the 4x4
// matrix in the program's [ProjectionUniform] uniform and passes v1
// through as the vertex colour. A program that does not declare the
// uniform gets its matrix from registers 0x00-0x03. Float registers are
// uploaded in hardware lane order, W, Z, Y, X.
//
// The device is either opened from a registered HAL backend during Init,
// or shared with the host application:
//
//	d, err := wgpu.NewFromProvider(provider)
//	inst, err := c3d.New(c3d.WithDriver(d))
//
// Importing the package registers the driver as "wgpu".
package wgpu
