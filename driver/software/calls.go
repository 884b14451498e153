// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"

	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/driver"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
)

// Op names a recorded driver primitive.
type Op string

// Recorded operations.
const (
	OpInit          Op = "Init"
	OpFini          Op = "Fini"
	OpFrameBegin    Op = "FrameBegin"
	OpFrameEnd      Op = "FrameEnd"
	OpFrameDrawOn   Op = "FrameDrawOn"
	OpSetBufInfo    Op = "SetBufInfo"
	OpSetAttrInfo   Op = "SetAttrInfo"
	OpDrawArrays    Op = "DrawArrays"
	OpBindProgram   Op = "BindProgram"
	OpFVUnifSet     Op = "FVUnifSet"
	OpIVUnifSet     Op = "IVUnifSet"
	OpBoolUnifSet   Op = "BoolUnifSet"
	OpCreateTarget  Op = "CreateTarget"
	OpClearTarget   Op = "ClearTarget"
	OpDestroyTarget Op = "DestroyTarget"
)

// Call is one recorded primitive invocation. Only the fields relevant to
// Op are set.
type Call struct {
	Op        Op
	Stage     shader.Type
	Index     int
	Count     int
	Flags     driver.FrameFlags
	Primitive buffer.Primitive
	Target    render.Handle
	Float     [4]float32
	Int       [4]int32
	Bool      bool
}

// String returns a compact description of the call.
func (c Call) String() string {
	switch c.Op {
	case OpFVUnifSet:
		return fmt.Sprintf("%s(%v, %#x, %v)", c.Op, c.Stage, c.Index, c.Float)
	case OpIVUnifSet:
		return fmt.Sprintf("%s(%v, %#x, %v)", c.Op, c.Stage, c.Index, c.Int)
	case OpBoolUnifSet:
		return fmt.Sprintf("%s(%v, %#x, %t)", c.Op, c.Stage, c.Index, c.Bool)
	case OpDrawArrays:
		return fmt.Sprintf("%s(%v, %d, %d)", c.Op, c.Primitive, c.Index, c.Count)
	case OpFrameBegin, OpFrameEnd:
		return fmt.Sprintf("%s(%#x)", c.Op, uint8(c.Flags))
	case OpFrameDrawOn, OpClearTarget, OpDestroyTarget:
		return fmt.Sprintf("%s(%d)", c.Op, c.Target)
	default:
		return string(c.Op)
	}
}

func (d *Driver) record(c Call) {
	d.calls = append(d.calls, c)
}

// Calls returns the recorded calls in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Ops returns the recorded operation names in order.
func (d *Driver) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	ops := make([]Op, len(d.calls))
	for i, c := range d.calls {
		ops[i] = c.Op
	}
	return ops
}

// ResetCalls clears the call log.
func (d *Driver) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = d.calls[:0]
}
