// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the watcher waits for a burst of events to end
// before rebuilding. Editors often write a file in several steps.
const settle = 100 * time.Millisecond

// watchedDirs returns the directories holding the manifest and the shader
// sources. Directories are watched instead of files so that editors that
// replace files on save keep triggering rebuilds.
func watchedDirs(manifestPath string, m *Manifest) []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(p string) {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	add(manifestPath)
	for _, s := range m.Shaders {
		add(m.sourcePath(s))
	}
	return dirs
}

// relevant reports whether an event on name should trigger a rebuild.
func relevant(manifestPath string, m *Manifest, ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if name == filepath.Clean(manifestPath) {
		return true
	}
	for _, s := range m.Shaders {
		if name == filepath.Clean(m.sourcePath(s)) {
			return true
		}
	}
	return false
}

// watch rebuilds whenever the manifest or a shader source changes, until
// ctx is done. A changed manifest is reloaded; if it no longer parses the
// previous one stays in use.
func watch(ctx context.Context, manifestPath string, m *Manifest, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("c3dshader: watch: %w", err)
	}
	defer w.Close()

	addDirs := func() error {
		for _, d := range watchedDirs(manifestPath, m) {
			if err := w.Add(d); err != nil {
				return fmt.Errorf("c3dshader: watch %s: %w", d, err)
			}
		}
		return nil
	}
	if err := addDirs(); err != nil {
		return err
	}
	log.Info("watching for changes", "manifest", manifestPath)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if relevant(manifestPath, m, ev) {
				timer = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", err)
		case <-timer:
			timer = nil
			if next, err := loadManifest(manifestPath); err != nil {
				log.Error("reload manifest", "err", err)
			} else {
				m = next
				if err := addDirs(); err != nil {
					log.Warn("watch", "err", err)
				}
			}
			build(m, log)
		}
	}
}
