// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"github.com/gogpu/c3d/math3d"
	"github.com/gogpu/c3d/uniform"
)

var (
	floatBank = uniform.BankFloat.Range()
	intBank   = uniform.BankInt.Range()
	boolBank  = uniform.BankBool.Range()
)

// RegisterFile is one shader stage's uniform registers.
// Float registers keep their lanes in W, Z, Y, X order, as the hardware does.
// The accessors take a value so they work on the copy Driver.Registers
// returns.
type RegisterFile struct {
	Float [uniform.FloatEnd - uniform.FloatStart][4]float32
	Int   [uniform.IntEnd - uniform.IntStart][4]int32
	Bool  uint32 // bit n is register BoolStart+n
}

// FloatAt returns the float register at absolute index i.
func (r RegisterFile) FloatAt(i uniform.Index) math3d.FVec4 {
	if !floatBank.Contains(i) {
		return math3d.FVec4{}
	}
	return math3d.FromWZYX(r.Float[i-floatBank.Start])
}

// IntAt returns the integer register at absolute index i.
func (r RegisterFile) IntAt(i uniform.Index) [4]int32 {
	if !intBank.Contains(i) {
		return [4]int32{}
	}
	return r.Int[i-intBank.Start]
}

// BoolAt returns the boolean register at absolute index i.
func (r RegisterFile) BoolAt(i uniform.Index) bool {
	if !boolBank.Contains(i) {
		return false
	}
	return r.Bool&(1<<(i-boolBank.Start)) != 0
}

func (r *RegisterFile) setFloat(index int, x, y, z, w float32) bool {
	if index < int(floatBank.Start) || index >= int(floatBank.End) {
		return false
	}
	r.Float[index-int(floatBank.Start)] = math3d.V4(x, y, z, w).WZYX()
	return true
}

func (r *RegisterFile) setInt(index int, x, y, z, w int32) bool {
	if index < int(intBank.Start) || index >= int(intBank.End) {
		return false
	}
	r.Int[index-int(intBank.Start)] = [4]int32{x, y, z, w}
	return true
}

func (r *RegisterFile) setBool(index int, value bool) bool {
	if index < int(boolBank.Start) || index >= int(boolBank.End) {
		return false
	}
	bit := uint32(1) << (index - int(boolBank.Start))
	if value {
		r.Bool |= bit
	} else {
		r.Bool &^= bit
	}
	return true
}
