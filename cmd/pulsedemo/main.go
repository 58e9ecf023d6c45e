// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command pulsedemo runs the pulse toolkit headless: it animates a few
// offscreen windows for a while and optionally saves their last frames
// as PNG files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cogentcore.org/core/base/fsx"
	"cogentcore.org/pulse/driver/offscreen"
	"cogentcore.org/pulse/logx"
	"cogentcore.org/pulse/pulse"
	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/settings"
	"cogentcore.org/pulse/system"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/sync/errgroup"
)

// configName is the settings file looked for when -config is not given.
const configName = "pulse.toml"

func main() {
	os.Exit(run())
}

func run() int {
	config := flag.String("config", "", "settings file (.toml, .yaml or .yml); default is "+configName+" in the current or user config directory, if any")
	duration := flag.Duration("duration", 3*time.Second, "how long to run; 0 runs until interrupted")
	windows := flag.Int("windows", 3, "number of windows to animate")
	out := flag.String("out", "", "directory to save the last frame of each window to")
	vv := flag.Bool("vv", false, "debug logging")
	v := flag.Bool("v", false, "info logging")
	q := flag.Bool("q", false, "only log errors")
	flag.Parse()

	file := findConfig(*config)
	cfg, err := settings.Load(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "settings error:", err)
		return 2
	}
	if *vv || *v || *q {
		logx.UserLevel = logx.LevelFromFlags(*vv, *v, *q)
	} else if lvl, err := logx.LevelFromString(cfg.LogLevel); err == nil {
		logx.UserLevel = lvl
	}
	logx.SetDefaultLogger()
	offscreen.SetLogger(slog.Default())
	if file != "" {
		slog.Info("using settings file", "file", file)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	loop := system.NewMainLoop()
	worker := render.NewWorker(offscreen.Factories()...)
	d, err := pulse.New(cfg, pulse.Options{Loop: loop, Worker: worker})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	dm := newDemo(d, worker, cfg, max(*windows, 1))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loop.Run(gctx)
		return nil
	})
	if file != "" {
		g.Go(func() error {
			return settings.Watch(gctx, file, d.Reload)
		})
	}
	g.Go(func() error {
		defer loop.Stop()
		defer d.Stop()
		if err := d.Start(gctx); err != nil {
			return err
		}
		if err := loop.RunOnMain(dm.setup); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("pulsedemo failed", "err", err)
		return 1
	}

	dm.report()
	if *out != "" {
		if err := dm.save(*out); err != nil {
			slog.Error("saving frames", "err", err)
			return 1
		}
	}
	return 0
}

// findConfig returns the settings file to use: the given one, with a
// leading ~ expanded, or else [configName] in the current directory or
// in the user config directory, or "" if there is none.
func findConfig(file string) string {
	if file != "" {
		if exp, err := homedir.Expand(file); err == nil {
			return exp
		}
		return file
	}
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "pulse"))
	}
	files := fsx.FindFilesOnPaths(paths, configName)
	if len(files) == 0 {
		return ""
	}
	return files[0]
}
