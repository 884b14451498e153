// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command c3ddemo renders a colour triangle into an offscreen target and
// saves it as a BMP.
//
// Usage:
//
//	c3ddemo [-driver wgpu] [-width 400] [-height 240] [-o triangle.bmp]
//
// Without -driver the highest priority available driver is used. The
// software driver records the draw without rasterizing it, so its output
// only shows the clear colour.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/c3d"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/uniform"

	_ "github.com/gogpu/c3d/driver/citro3d"
	_ "github.com/gogpu/c3d/driver/software"
	_ "github.com/gogpu/c3d/driver/wgpu"
)

// projectionReg is the first float register of the projection matrix.
const projectionReg uniform.Index = 0

func main() {
	var (
		driverName = flag.String("driver", "", "driver name (citro3d, wgpu, software)")
		width      = flag.Int("width", 400, "target width, a multiple of 8")
		height     = flag.Int("height", 240, "target height, a multiple of 8")
		output     = flag.String("o", "triangle.bmp", "output file")
		verbose    = flag.Bool("v", false, "log driver activity")
	)
	flag.Parse()

	opts := []c3d.Option{}
	if *driverName != "" {
		opts = append(opts, c3d.WithDriverName(*driverName))
	}
	if *verbose {
		opts = append(opts, c3d.WithLogger(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	if err := run(*width, *height, *output, opts...); err != nil {
		log.Fatal(err)
	}
	log.Printf("Demo saved to %s (%dx%d)", *output, *width, *height)
}

func run(width, height int, output string, opts ...c3d.Option) error {
	inst, err := c3d.New(opts...)
	if err != nil {
		return err
	}
	defer inst.Close()

	target, err := inst.NewRenderTarget(render.TargetDesc{
		Width:       width,
		Height:      height,
		ColorFormat: render.ColorRGBA8,
		DepthFormat: render.DepthNone,
	})
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	defer target.Release()

	scene, err := newTriangle()
	if err != nil {
		return err
	}
	aspect := c3d.Other(float32(width) / float32(height))

	err = inst.RenderFrameWith(func(inst *c3d.Instance) error {
		if err := target.Clear(render.ClearAll, 0x68B0D8FF, 0); err != nil {
			return err
		}
		if err := inst.SelectRenderTarget(target); err != nil {
			return err
		}
		return scene.draw(inst, aspect)
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	img, err := target.Snapshot()
	if err != nil {
		return fmt.Errorf("read target: %w", err)
	}
	return render.SaveBMP(output, img)
}
