// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/image/bmp"
)

// EncodeBMP writes img to w as a BMP file.
func EncodeBMP(w io.Writer, img image.Image) error {
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("render: encode bmp: %w", err)
	}
	return nil
}

// SaveBMP writes img to the named file as a BMP.
func SaveBMP(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return EncodeBMP(f, img)
}
