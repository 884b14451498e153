// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render describes render targets: the colour and depth buffers a
// frame is drawn into.
//
// Targets are driver resources. An application asks the Instance for one
// with Instance.NewRenderTarget, selects it for drawing inside a frame, and
// releases it when done:
//
//	target, err := inst.NewRenderTarget(render.TargetDesc{
//	    Width:       240,
//	    Height:      400,
//	    Screen:      render.TopLeft,
//	    ColorFormat: render.ColorRGBA8,
//	    DepthFormat: render.Depth24Stencil8,
//	})
//	if err != nil {
//	    return err
//	}
//	defer target.Release()
//
// Snapshot reads a target back for tests and tooling; EncodeBMP and SaveBMP
// write the result out.
//
// # Thread Safety
//
// A Target may be released from any goroutine. Drawing into it follows the
// rules of the Instance that created it.
package render
