// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package citro3d implements driver.Driver on the PICA200 through citro3d.
//
// The driver is only built with the citro3d build tag, using a devkitARM
// cgo toolchain with libctru and citro3d installed:
//
//	CGO_ENABLED=1 CC=arm-none-eabi-gcc \
//	CGO_CFLAGS="-I$DEVKITPRO/libctru/include -march=armv6k -mtune=mpcore -mfloat-abi=hard -D__3DS__" \
//	CGO_LDFLAGS="-L$DEVKITPRO/libctru/lib" \
//	go build -tags citro3d
//
// Without the tag the package registers a factory that returns nil, so
// driver.Default falls through to the next driver and driver.Get reports
// the driver as unusable.
//
// The application initializes the graphics service (gfxInitDefault)
// before creating an Instance and tears it down after closing it. Vertex
// memory handed to SetBufInfo is copied into linear memory, because the
// GPU reads it by physical address after the call returns.
package citro3d
