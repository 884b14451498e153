// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// UniformsExt is the suffix of the uniform table written next to a SPIR-V
// module: triangle.spv pairs with triangle.uniforms.toml.
const UniformsExt = ".uniforms.toml"

// uniformTable is the TOML layout of a uniform table file.
type uniformTable struct {
	Uniforms []UniformEntry `toml:"uniform"`
}

// UniformsPath returns the uniform table path for a module path.
func UniformsPath(modulePath string) string {
	return strings.TrimSuffix(modulePath, filepath.Ext(modulePath)) + UniformsExt
}

// WriteUniforms encodes a uniform table as TOML.
func WriteUniforms(w io.Writer, uniforms []UniformEntry) error {
	if err := toml.NewEncoder(w).Encode(uniformTable{Uniforms: uniforms}); err != nil {
		return fmt.Errorf("shader: encode uniform table: %w", err)
	}
	return nil
}

// ReadUniforms decodes a TOML uniform table and declares every row on e.
func (e *Entry) ReadUniforms(r io.Reader) error {
	var t uniformTable
	md, err := toml.NewDecoder(r).Decode(&t)
	if err != nil {
		return fmt.Errorf("shader: decode uniform table: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("shader: uniform table: unknown keys %v", undecoded)
	}
	for _, u := range t.Uniforms {
		if err := e.DeclareUniform(u.Name, u.Start, u.End); err != nil {
			return err
		}
	}
	return nil
}

// LoadLibrary reads a shader binary from disk. A SPIR-V module picks up
// the uniform table at UniformsPath(path) when that file exists.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader: %w", err)
	}
	lib, err := ParseLibrary(data)
	if err != nil {
		return nil, fmt.Errorf("shader: %s: %w", path, err)
	}
	if lib.Format() != FormatSPIRV {
		return lib, nil
	}

	table, err := os.ReadFile(UniformsPath(path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return lib, nil
	case err != nil:
		return nil, fmt.Errorf("shader: %w", err)
	}
	if err := lib.Get(0).ReadUniforms(bytes.NewReader(table)); err != nil {
		return nil, fmt.Errorf("shader: %s: %w", UniformsPath(path), err)
	}
	return lib, nil
}
