// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package c3d

import "errors"

// Errors returned by Instance.
var (
	// ErrInitialization is returned by New when the driver cannot be
	// selected or its hardware context fails to initialize. It wraps the
	// driver's error.
	ErrInitialization = errors.New("c3d: hardware initialization failed")

	// ErrInstanceExists is returned by New while another Instance is live.
	ErrInstanceExists = errors.New("c3d: an instance is already live")

	// ErrInvalidRenderTarget is returned when the hardware rejects a target.
	ErrInvalidRenderTarget = errors.New("c3d: invalid render target")

	// ErrClosed is returned by operations on a closed Instance.
	ErrClosed = errors.New("c3d: instance closed")

	// ErrFrameInProgress is returned by RenderFrameWith inside a frame.
	ErrFrameInProgress = errors.New("c3d: frame already in progress")

	// ErrFrameNotOpen is returned by DrawArrays outside RenderFrameWith.
	ErrFrameNotOpen = errors.New("c3d: no frame in progress")

	// ErrNoAttrInfo is returned by DrawArrays before SetAttrInfo.
	ErrNoAttrInfo = errors.New("c3d: attribute info not set")

	// ErrNoBufferInfo is returned by DrawArrays for a slice without buffer info.
	ErrNoBufferInfo = errors.New("c3d: slice has no buffer info")
)
