// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader loads compiled shader programs.
//
// Two container formats are understood. SHBIN files (a DVLB header followed
// by a DVLP code blob and one DVLE per entry point) are what the PICA200
// toolchain produces; their uniform tables are parsed so that uniforms can
// be resolved by name. Raw SPIR-V modules, typically produced by the
// c3dshader tool or by [CompileWGSL], are accepted as a single vertex entry
// for drivers that run on a WebGPU device.
//
// A [Program] pairs a vertex entry with an optional geometry entry and is
// handed to a driver with Instance.BindProgram.
package shader
