// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package math3d provides the small set of vector and matrix value types
// consumed by the uniform binder.
//
// The types are plain values. FVec4 and IVec map one-to-one onto a single
// float or integer uniform register, and Matrix4 maps onto four consecutive
// float registers. Matrix4 is stored row-major; the register layout the
// hardware expects is obtained with [Matrix4.RowsWZYX].
//
// Projection helpers produce matrices in the clip-space convention of the
// PICA200 (depth in [-1, 0], y pointing up before the screen rotation).
package math3d
