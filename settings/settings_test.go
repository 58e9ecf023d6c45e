// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, -1, s.PulseLogThreshold)
	assert.Equal(t, 60, s.RefreshRate)
	assert.Equal(t, 250, s.IdleGrace)
	assert.Equal(t, PerWindow, s.Presentation)
	assert.Equal(t, "info", s.LogLevel)
	assert.False(t, s.SingleThreaded)
	assert.NoError(t, s.Validate())
	assert.Equal(t, time.Second/60, s.PulseInterval())
	assert.Equal(t, 250*time.Millisecond, s.IdleGraceDuration())
	assert.Less(t, s.PulseLogThresholdDuration(), time.Duration(0))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PULSE_SINGLE_THREADED": "true",
		"PULSE_REFRESH_RATE":    "120",
		"PULSE_PRESENTATION":    FullRecopy,
		"PULSE_LOG_THRESHOLD":   "16",
	}
	s := Default()
	require.NoError(t, s.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.True(t, s.SingleThreaded)
	assert.Equal(t, 120, s.RefreshRate)
	assert.Equal(t, FullRecopy, s.Presentation)
	assert.Equal(t, 16*time.Millisecond, s.PulseLogThresholdDuration())
	assert.False(t, s.NoRenderJobs)
}

func TestApplyEnvError(t *testing.T) {
	s := Default()
	err := s.ApplyEnv(func(k string) (string, bool) {
		if k == "PULSE_REFRESH_RATE" {
			return "fast", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	s := Default()
	s.RefreshRate = 0
	s.Presentation = "sideways"
	err := s.Validate()
	assert.ErrorContains(t, err, "RefreshRate")
	assert.ErrorContains(t, err, "sideways")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tf := filepath.Join(dir, "pulse.toml")
	require.NoError(t, os.WriteFile(tf, []byte("RefreshRate = 30\nNativeVsync = true\n"), 0o644))
	s := Default()
	require.NoError(t, s.Open(tf))
	assert.Equal(t, 30, s.RefreshRate)
	assert.True(t, s.NativeVsync)
	assert.Equal(t, 250, s.IdleGrace)

	yf := filepath.Join(dir, "pulse.yaml")
	require.NoError(t, os.WriteFile(yf, []byte("IdleGrace: 500\nPresentation: full-recopy\n"), 0o644))
	s = Default()
	require.NoError(t, s.Open(yf))
	assert.Equal(t, 500, s.IdleGrace)
	assert.Equal(t, FullRecopy, s.Presentation)

	bad := filepath.Join(dir, "pulse.toml")
	require.NoError(t, os.WriteFile(bad, []byte("Bogus = 1\n"), 0o644))
	assert.Error(t, Default().Open(bad))

	assert.Error(t, Default().Open(filepath.Join(dir, "pulse.json")))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tf := filepath.Join(dir, "pulse.toml")
	require.NoError(t, os.WriteFile(tf, []byte("RefreshRate = 30\n"), 0o644))
	t.Setenv("PULSE_REFRESH_RATE", "90")
	s, err := Load(tf)
	require.NoError(t, err)
	assert.Equal(t, 90, s.RefreshRate)

	t.Setenv("PULSE_REFRESH_RATE", "-4")
	_, err = Load(tf)
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	tf := filepath.Join(dir, "pulse.toml")
	require.NoError(t, os.WriteFile(tf, []byte("RefreshRate = 30\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, tf, func(s *Settings) {
			select {
			case got <- s:
			default:
			}
		})
	}()

	// the watcher is registered asynchronously, so keep rewriting
	// until a reload is observed
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-got:
			if s.RefreshRate != 45 {
				continue // read while the file was being rewritten
			}
			cancel()
			assert.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(tf, []byte("RefreshRate = 45\n"), 0o644))
		case <-timeout:
			t.Fatal("settings were not reloaded")
		}
	}
}
