// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command c3dshader compiles the WGSL shaders listed in a TOML manifest to
// SPIR-V blobs that shader.ParseLibrary loads.
//
// Usage:
//
//	c3dshader [-manifest shaders.toml] [-watch] [-v]
//
// With -watch it keeps running and recompiles when the manifest or a
// source file changes.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
)

func main() {
	var (
		manifest = flag.String("manifest", "shaders.toml", "shader manifest")
		watchFlg = flag.Bool("watch", false, "recompile on change")
		verbose  = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	m, err := loadManifest(*manifest)
	if err != nil {
		log.Fatal(err)
	}

	failed := build(m, logger)
	if !*watchFlg {
		if failed > 0 {
			log.Fatalf("c3dshader: %d of %d shaders failed", failed, len(m.Shaders))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := watch(ctx, *manifest, m, logger); err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer: stop only releases the signal handler
	}
}
