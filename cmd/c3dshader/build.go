// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/c3d/shader"
)

// compile translates one shader to SPIR-V and declares its uniforms on
// the compiled entry.
func compile(m *Manifest, s Shader) (*shader.Entry, error) {
	src, err := os.ReadFile(m.sourcePath(s))
	if err != nil {
		return nil, fmt.Errorf("c3dshader: %s: %w", s.Name, err)
	}
	lib, err := shader.CompileWGSL(string(src))
	if err != nil {
		return nil, fmt.Errorf("c3dshader: %s: %w", s.Name, err)
	}
	entry := lib.Get(0)
	for _, u := range s.Uniforms {
		if err := entry.DeclareUniform(u.Name, u.Start, u.End); err != nil {
			return nil, fmt.Errorf("c3dshader: %s: %w", s.Name, err)
		}
	}
	return entry, nil
}

// build compiles every shader in the manifest. It keeps going after a
// failure and returns the number of shaders that failed.
func build(m *Manifest, log *slog.Logger) int {
	failed := 0
	for _, s := range m.Shaders {
		if err := buildOne(m, s); err != nil {
			log.Error("compile failed", "shader", s.Name, "err", err)
			failed++
			continue
		}
		log.Info("compiled", "shader", s.Name, "output", m.outputPath(s))
	}
	return failed
}

// buildOne writes the module and, when the shader declares uniforms, its
// uniform table at shader.UniformsPath. A stale table is removed.
func buildOne(m *Manifest, s Shader) error {
	entry, err := compile(m, s)
	if err != nil {
		return err
	}
	out := m.outputPath(s)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("c3dshader: %s: %w", s.Name, err)
	}
	if err := os.WriteFile(out, entry.Code(), 0o644); err != nil { //nolint:gosec // G306: build output
		return fmt.Errorf("c3dshader: %s: %w", s.Name, err)
	}

	tablePath := shader.UniformsPath(out)
	uniforms := entry.Uniforms()
	if len(uniforms) == 0 {
		if err := os.Remove(tablePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("c3dshader: %s: %w", s.Name, err)
		}
		return nil
	}
	var buf bytes.Buffer
	if err := shader.WriteUniforms(&buf, uniforms); err != nil {
		return fmt.Errorf("c3dshader: %s: %w", s.Name, err)
	}
	if err := os.WriteFile(tablePath, buf.Bytes(), 0o644); err != nil { //nolint:gosec // G306: build output
		return fmt.Errorf("c3dshader: %s: %w", s.Name, err)
	}
	return nil
}
