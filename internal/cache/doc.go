// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a generic LRU cache for GPU objects.
//
// The cache has a soft limit. When it is exceeded the least recently used
// quarter of the entries is evicted and handed to an eviction callback,
// which is where GPU objects are released:
//
//	pipelines := cache.New[key, hal.RenderPipeline](64, func(_ key, p hal.RenderPipeline) {
//		retired = append(retired, p)
//	})
//	p, err := pipelines.GetOrCreate(k, createPipeline)
package cache
