// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"slices"
	"sort"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
)

// Driver name constants.
const (
	// NameCitro3D is the hardware driver built with the citro3d tag.
	NameCitro3D = "citro3d"
	// NameWGPU is the desktop GPU driver (gogpu/wgpu).
	NameWGPU = "wgpu"
	// NameSoftware is the CPU reference driver.
	NameSoftware = "software"
)

// Factory creates a new, uninitialized driver.
// A factory may return nil when the driver cannot run on this host.
type Factory func() Driver

// Priority order for driver selection (first available wins).
var priority = []string{NameCitro3D, NameWGPU, NameSoftware}

var drivers atomic.Pointer[gpucontext.Registry[Driver]]

func init() {
	drivers.Store(newRegistry())
}

func newRegistry() *gpucontext.Registry[Driver] {
	return gpucontext.NewRegistry[Driver](gpucontext.WithPriority(priority...))
}

// Register registers a driver factory with the given name.
// This is typically called from init() functions in driver packages.
// If a driver with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	drivers.Load().Register(name, factory)
}

// Unregister removes a driver from the registry.
func Unregister(name string) {
	drivers.Load().Unregister(name)
}

// Available returns the registered driver names in sorted order.
func Available() []string {
	names := drivers.Load().Available()
	sort.Strings(names)
	return names
}

// IsRegistered checks if a driver with the given name is registered.
func IsRegistered(name string) bool {
	return drivers.Load().Has(name)
}

// Get returns a new driver by name.
// Returns nil if the driver is not registered or not usable here.
func Get(name string) Driver {
	return drivers.Load().Get(name)
}

// Default returns the best available driver based on priority.
// Priority order: citro3d > wgpu > software, then any other registered
// driver in name order. Factories that return nil are skipped.
// Returns nil if no usable driver is registered.
func Default() Driver {
	reg := drivers.Load()
	names := reg.Available()
	sort.Strings(names)

	order := make([]string, 0, len(priority)+len(names))
	order = append(order, priority...)
	for _, name := range names {
		if !slices.Contains(priority, name) {
			order = append(order, name)
		}
	}

	for _, name := range order {
		if !reg.Has(name) {
			continue
		}
		if d := reg.Get(name); d != nil {
			return d
		}
	}
	return nil
}

// MustDefault returns the default driver or panics.
func MustDefault() Driver {
	d := Default()
	if d == nil {
		panic("driver: no driver available")
	}
	return d
}
