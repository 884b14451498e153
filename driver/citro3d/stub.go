// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !citro3d

package citro3d

import "github.com/gogpu/c3d/driver"

// init registers a nil-returning factory when the citro3d tag is not set.
// This keeps the driver name known while driver.Get(driver.NameCitro3D)
// returns nil gracefully.
func init() {
	driver.Register(driver.NameCitro3D, func() driver.Driver {
		return nil
	})
}
