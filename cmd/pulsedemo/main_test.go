// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogentcore.org/pulse/driver/offscreen"
	"cogentcore.org/pulse/pulse"
	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/settings"
	"cogentcore.org/pulse/system"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfig(t *testing.T) {
	assert.Equal(t, "mine.yaml", findConfig("mine.yaml"))

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	assert.Equal(t, "", findConfig(""))

	require.NoError(t, os.WriteFile(configName, []byte("RefreshRate = 30\n"), 0o644))
	assert.Equal(t, configName, filepath.Base(findConfig("")))
}

func runDemo(t *testing.T, cfg *settings.Settings) *demo {
	loop := system.NewMainLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	worker := render.NewWorker(offscreen.Factories()...)
	d, err := pulse.New(cfg, pulse.Options{Loop: loop, Worker: worker})
	require.NoError(t, err)
	require.NoError(t, d.Start(ctx))
	dm := newDemo(d, worker, cfg, 2)
	require.NoError(t, loop.RunOnMain(dm.setup))

	assert.Eventually(t, func() bool { return d.Pulses() >= 3 }, 5*time.Second, 5*time.Millisecond)
	d.Stop()
	return dm
}

func TestDemoPerWindow(t *testing.T) {
	dm := runDemo(t, settings.Default())
	for _, b := range dm.balls {
		require.NotNil(t, b.window)
		assert.Positive(t, b.frames.Load())
		assert.Positive(t, b.window.Frames())
		assert.Equal(t, windowSize, b.window.Snapshot().Bounds().Size())
	}
	out := t.TempDir()
	require.NoError(t, dm.save(out))
	assert.FileExists(t, filepath.Join(out, "window0.png"))
	assert.FileExists(t, filepath.Join(out, "window1.png"))
}

func TestDemoFullRecopy(t *testing.T) {
	cfg := settings.Default()
	cfg.Presentation = settings.FullRecopy
	dm := runDemo(t, cfg)
	require.NotNil(t, dm.screen)
	assert.Positive(t, dm.screen.Flips())
	for _, b := range dm.balls {
		assert.Nil(t, b.window)
		assert.Positive(t, b.frames.Load())
	}
	out := t.TempDir()
	require.NoError(t, dm.save(out))
	assert.FileExists(t, filepath.Join(out, "screen.png"))
}

func TestFindConfigHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.Reset()
	t.Cleanup(homedir.Reset)
	assert.Equal(t, filepath.Join(home, "pulse.yaml"), findConfig("~/pulse.yaml"))
}
