// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"errors"
	"slices"
	"testing"
)

func TestGetOrCreate(t *testing.T) {
	c := New[string, int](0, nil)

	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}
	for range 3 {
		v, err := c.GetOrCreate("a", create)
		if err != nil || v != 42 {
			t.Fatalf("GetOrCreate() = %d, %v, want 42, nil", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	if s := c.Stats(); s.Hits != 2 || s.Misses != 1 || s.Len != 1 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, 1 entry", s)
	}
}

func TestGetOrCreateError(t *testing.T) {
	c := New[string, int](0, nil)
	want := errors.New("device lost")

	if _, err := c.GetOrCreate("a", func() (int, error) { return 0, want }); !errors.Is(err, want) {
		t.Errorf("GetOrCreate() error = %v, want %v", err, want)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("failed create was cached")
	}
}

func TestEvictOldest(t *testing.T) {
	var evicted []int
	c := New[int, int](4, func(k, _ int) { evicted = append(evicted, k) })

	for k := range 4 {
		_, _ = c.GetOrCreate(k, func() (int, error) { return k, nil })
	}
	// Touch 0 so that 1 becomes the oldest.
	if _, ok := c.Get(0); !ok {
		t.Fatal("Get(0) missed")
	}
	_, _ = c.GetOrCreate(4, func() (int, error) { return 4, nil })

	if !slices.Equal(evicted, []int{1, 2}) {
		t.Errorf("evicted = %v, want [1 2]", evicted)
	}
	if got := c.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if _, ok := c.Get(0); !ok {
		t.Error("recently used entry 0 was evicted")
	}
}

func TestDeleteFuncAndClear(t *testing.T) {
	evicted := map[int]bool{}
	c := New[int, string](0, func(k int, _ string) { evicted[k] = true })
	for k := range 6 {
		_, _ = c.GetOrCreate(k, func() (string, error) { return "v", nil })
	}

	if n := c.DeleteFunc(func(k int) bool { return k%2 == 0 }); n != 3 {
		t.Errorf("DeleteFunc() = %d, want 3", n)
	}
	if c.Len() != 3 || !evicted[0] || !evicted[2] || !evicted[4] || evicted[1] {
		t.Errorf("after DeleteFunc: Len() = %d, evicted = %v", c.Len(), evicted)
	}

	c.Clear()
	if c.Len() != 0 || len(evicted) != 6 {
		t.Errorf("after Clear: Len() = %d, evicted = %v", c.Len(), evicted)
	}
	if got := c.Stats().Evictions; got != 6 {
		t.Errorf("Evictions = %d, want 6", got)
	}
}
