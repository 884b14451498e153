// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package uniform computes and validates shader uniform register writes.
//
// The PICA200 exposes three disjoint uniform register banks:
//
//	Float  [0x00, 0x60)  float vectors and matrices
//	Int    [0x60, 0x64)  integer vectors
//	Bool   [0x68, 0x79)  booleans
//
// The hardware performs no bounds checking, so a write at the wrong address
// silently corrupts a neighbouring uniform. [Bind] checks that a [Uniform]
// fits entirely inside its bank before issuing any write and panics
// otherwise, the same way an out-of-range slice index does.
//
// Applications normally go through Instance.BindUniform, which holds the
// only driver reference; Bind is exported for drivers and tests.
package uniform
