// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/c3d/math3d"
)

// Register file sizes, matching the uniform banks.
const (
	floatRegisters = 0x60
	intRegisters   = 4
	boolRegisters  = 17

	intBase  = 0x60
	boolBase = 0x68
)

// uniformSize is the byte size of the Registers struct in registerWGSL:
// 96 float vec4, 4 int vec4 and one u32 vec4 (bool mask, projection base).
const uniformSize = floatRegisters*16 + intRegisters*16 + 16

// registerFile is one stage's uniform registers. Float registers keep their
// lanes in W, Z, Y, X order, as the hardware does; registerWGSL reads them
// back with a .wzyx swizzle.
type registerFile struct {
	floats [floatRegisters][4]float32
	ints   [intRegisters][4]int32
	bools  uint32
}

func (f *registerFile) setFloat(index int, v math3d.FVec4) bool {
	if index < 0 || index >= floatRegisters {
		return false
	}
	f.floats[index] = v.WZYX()
	return true
}

func (f *registerFile) setInt(index int, v [4]int32) bool {
	if index < intBase || index >= intBase+intRegisters {
		return false
	}
	f.ints[index-intBase] = v
	return true
}

func (f *registerFile) setBool(index int, value bool) bool {
	if index < boolBase || index >= boolBase+boolRegisters {
		return false
	}
	bit := uint32(1) << (index - boolBase)
	if value {
		f.bools |= bit
	} else {
		f.bools &^= bit
	}
	return true
}

// snapshot encodes the file as the std140 uniform block the shaders read.
// base is the first register of the projection matrix.
func (f *registerFile) snapshot(base uint8) []byte {
	out := make([]byte, uniformSize)
	off := 0
	for _, r := range f.floats {
		for _, v := range r {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
			off += 4
		}
	}
	for _, r := range f.ints {
		for _, v := range r {
			binary.LittleEndian.PutUint32(out[off:], uint32(v)) //nolint:gosec // G115: bit pattern copy
			off += 4
		}
	}
	binary.LittleEndian.PutUint32(out[off:], f.bools)
	binary.LittleEndian.PutUint32(out[off+4:], uint32(base))
	return out
}
