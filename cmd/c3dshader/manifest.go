// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/c3d/uniform"
)

var errManifest = errors.New("c3dshader: invalid manifest")

// Manifest lists the shaders to compile.
//
//	out_dir = "build"
//
//	[[shader]]
//	name = "triangle"
//	source = "triangle.wgsl"
//
//	[[shader.uniform]]
//	name = "projection"
//	start = 0
//	end = 3
type Manifest struct {
	OutDir  string   `toml:"out_dir"`
	Shaders []Shader `toml:"shader"`

	// dir is the manifest's directory. Relative paths resolve against it.
	dir string
}

// Shader is one WGSL source compiled to one SPIR-V blob.
type Shader struct {
	Name     string        `toml:"name"`
	Source   string        `toml:"source"`
	Output   string        `toml:"output"`
	Uniforms []UniformDecl `toml:"uniform"`
}

// UniformDecl names a float register range the shader reads. Ranges are
// checked against the float bank and against each other.
type UniformDecl struct {
	Name  string `toml:"name"`
	Start uint8  `toml:"start"`
	End   uint8  `toml:"end"`
}

func (u UniformDecl) regs() uniform.Range {
	return uniform.Range{Start: uniform.Index(u.Start), End: uniform.Index(u.End) + 1}
}

func loadManifest(path string) (*Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("c3dshader: read manifest: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", errManifest, strings.Join(keys, ", "))
	}
	m.dir = filepath.Dir(path)
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Shaders) == 0 {
		return fmt.Errorf("%w: no shaders", errManifest)
	}
	names := make(map[string]bool, len(m.Shaders))
	for i, s := range m.Shaders {
		if s.Name == "" {
			return fmt.Errorf("%w: shader %d has no name", errManifest, i)
		}
		if names[s.Name] {
			return fmt.Errorf("%w: duplicate shader %q", errManifest, s.Name)
		}
		names[s.Name] = true
		if s.Source == "" {
			return fmt.Errorf("%w: shader %q has no source", errManifest, s.Name)
		}
		if err := s.validateUniforms(); err != nil {
			return err
		}
	}
	return nil
}

func (s Shader) validateUniforms() error {
	bank := uniform.BankFloat.Range()
	for i, u := range s.Uniforms {
		if u.Name == "" {
			return fmt.Errorf("%w: shader %q uniform %d has no name", errManifest, s.Name, i)
		}
		if u.End < u.Start || uniform.Index(u.End) >= bank.End {
			return fmt.Errorf("%w: shader %q uniform %q range %#x-%#x is outside %v",
				errManifest, s.Name, u.Name, u.Start, u.End, bank)
		}
		for _, o := range s.Uniforms[:i] {
			if u.regs().Overlaps(o.regs()) {
				return fmt.Errorf("%w: shader %q uniforms %q and %q overlap",
					errManifest, s.Name, o.Name, u.Name)
			}
		}
	}
	return nil
}

// sourcePath returns the shader's source file.
func (m *Manifest) sourcePath(s Shader) string {
	return m.resolve(s.Source)
}

// outputPath returns where the shader's SPIR-V is written. The default is
// <out_dir>/<name>.spv.
func (m *Manifest) outputPath(s Shader) string {
	if s.Output != "" {
		return m.resolve(s.Output)
	}
	return filepath.Join(m.resolve(m.OutDir), s.Name+".spv")
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.dir, p)
}
