// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uniform

import "fmt"

// RangeError reports a bind to an index outside the uniform's register bank.
type RangeError struct {
	Kind  Kind
	Index Index
	Range Range
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("uniform: tried to bind %s to an invalid index (index: %s, valid range: %s)",
		e.Kind, e.Index, e.Range)
}

// OverflowError reports a bind that would write past the end of the
// uniform's register bank.
type OverflowError struct {
	Kind  Kind
	Index Index
	Len   int
	End   Index
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("uniform: tried to bind %s that would overflow the uniform buffer (index: %s, size: %d, max: %s)",
		e.Kind, e.Index, e.Len, e.End)
}
