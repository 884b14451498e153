// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package c3d is a safe Go layer over the citro3d graphics library for the
// PICA200 GPU.
//
// # Overview
//
// The hardware context is global, so c3d models it as a single Instance.
// New initializes the GPU and fails with ErrInstanceExists while another
// Instance is live; Close finalizes it and frees the slot. Every
// hardware operation is an Instance method, so nothing can reach the GPU
// before initialization or after finalization.
//
// # Quick Start
//
//	inst, err := c3d.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Close()
//
//	target, err := inst.NewRenderTarget(render.TargetDesc{
//		Width: 240, Height: 400, Screen: render.TopLeft,
//		ColorFormat: render.ColorRGBA8, DepthFormat: render.Depth24Stencil8,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer target.Release()
//
//	err = inst.RenderFrameWith(func(inst *c3d.Instance) error {
//		if err := inst.SelectRenderTarget(target); err != nil {
//			return err
//		}
//		inst.BindVertexUniform(projection, uniform.Float4(c3d.TopScreen.Perspective(fov, 0.1, 10)))
//		return inst.DrawArrays(buffer.Triangles, slice)
//	})
//
// RenderFrameWith ends the frame exactly once, also when the callback
// returns an error or panics.
//
// # Uniforms
//
// The PICA200 has three banks of uniform registers per shader stage:
// 96 float vectors at 0x00-0x5F, 4 integer vectors at 0x60-0x63 and
// 17 booleans at 0x68-0x78. The binder in
// package uniform checks that a uniform starts inside the bank its kind
// belongs to and fits before the end of the bank. Violations are
// programming errors and panic with *uniform.RangeError or
// *uniform.OverflowError before any register is written.
//
// # Drivers
//
// An Instance runs on a driver from package driver. The citro3d driver
// drives the real hardware and is built with the citro3d tag. The wgpu
// driver emulates the register model on a WebGPU device, and the software
// driver keeps register files and colour buffers in memory for tests.
// Without WithDriver or WithDriverName, New picks the registered driver
// with the highest priority.
//
// # Logging
//
// c3d logs through log/slog and is silent by default. SetLogger or
// WithLogger enables output and propagates the logger to the driver.
package c3d
