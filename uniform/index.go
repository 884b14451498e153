// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uniform

import "fmt"

// Index is a uniform register address. Which register bank it refers to is
// determined by the address itself; see [Bank].
type Index uint8

// String formats the index as a hexadecimal register address.
func (i Index) String() string {
	return fmt.Sprintf("%#02x", uint8(i))
}

// Range is a half-open interval [Start, End) of register addresses.
type Range struct {
	Start, End Index
}

// Contains reports whether i lies in the range.
func (r Range) Contains(i Index) bool {
	return i >= r.Start && i < r.End
}

// Len returns the number of registers in the range.
func (r Range) Len() int {
	return int(r.End) - int(r.Start)
}

// Overlaps reports whether two ranges share any register.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// String formats the range as start..end.
func (r Range) String() string {
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}

// Bank is one of the three disjoint uniform register banks.
type Bank uint8

const (
	// BankFloat holds float vector uniforms.
	BankFloat Bank = iota
	// BankInt holds integer vector uniforms.
	BankInt
	// BankBool holds boolean uniforms.
	BankBool
)

// Register bank boundaries. The addresses follow the SHBIN uniform table
// numbering with the sixteen input registers removed. [0x64, 0x68) is
// intentionally unused.
const (
	FloatStart Index = 0x00
	FloatEnd   Index = 0x60
	IntStart   Index = 0x60
	IntEnd     Index = 0x64
	BoolStart  Index = 0x68
	BoolEnd    Index = 0x79
)

// Range returns the bank's valid register addresses.
func (b Bank) Range() Range {
	switch b {
	case BankFloat:
		return Range{FloatStart, FloatEnd}
	case BankInt:
		return Range{IntStart, IntEnd}
	case BankBool:
		return Range{BoolStart, BoolEnd}
	default:
		return Range{}
	}
}

// String returns the bank name.
func (b Bank) String() string {
	switch b {
	case BankFloat:
		return "float"
	case BankInt:
		return "int"
	case BankBool:
		return "bool"
	default:
		return fmt.Sprintf("Bank(%d)", uint8(b))
	}
}

// BankOf returns the bank containing i. The result is false for addresses in the
// unused gap or past the boolean bank.
func BankOf(i Index) (Bank, bool) {
	for _, b := range []Bank{BankFloat, BankInt, BankBool} {
		if b.Range().Contains(i) {
			return b, true
		}
	}
	return 0, false
}
