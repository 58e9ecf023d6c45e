// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package settings provides the configuration of the pulse toolkit.
// Settings start from the default struct tag values, are then
// optionally read from a TOML or YAML file, and are finally
// overridden by PULSE_* environment variables.
package settings

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/reflectx"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Presentation modes, see [Settings.Presentation].
const (
	// PerWindow presents each window with its own buffer swap.
	PerWindow = "per-window"

	// FullRecopy repaints and recopies every window on each pass,
	// for platforms without native window compositing.
	FullRecopy = "full-recopy"
)

// Settings are the configuration options of the pulse toolkit.
type Settings struct {

	// PulseLogThreshold is the pulse duration in milliseconds at or above
	// which a pulse is logged with its phases and counters. A negative
	// value disables pulse logging.
	PulseLogThreshold int `default:"-1" env:"PULSE_LOG_THRESHOLD" yaml:"PulseLogThreshold"`

	// SingleThreaded forces serialized rendering: every pass waits for
	// its paint jobs to finish before the pulse returns.
	SingleThreaded bool `env:"PULSE_SINGLE_THREADED" yaml:"SingleThreaded"`

	// NoRenderJobs disables the submission of paint jobs, which is
	// only useful for benchmarking the pulse itself.
	NoRenderJobs bool `env:"PULSE_NO_RENDER_JOBS" yaml:"NoRenderJobs"`

	// RefreshRate is the pulse rate in frames per second.
	RefreshRate int `default:"60" env:"PULSE_REFRESH_RATE" yaml:"RefreshRate"`

	// IdleGrace is how long in milliseconds the toolkit must be
	// continuously idle before the pulse timer is paused.
	IdleGrace int `default:"250" env:"PULSE_IDLE_GRACE" yaml:"IdleGrace"`

	// RenderWaitWarn is the interval in milliseconds after which a wait
	// for rendering to complete logs a warning and waits again.
	RenderWaitWarn int `default:"2000" env:"PULSE_RENDER_WAIT_WARN" yaml:"RenderWaitWarn"`

	// Presentation is how finished frames reach the screen:
	// [PerWindow] or [FullRecopy].
	Presentation string `default:"per-window" env:"PULSE_PRESENTATION" yaml:"Presentation"`

	// NativeVsync is whether the platform delivers its own vsync
	// notifications, in which case no vsync hint pulses are scheduled.
	NativeVsync bool `env:"PULSE_NATIVE_VSYNC" yaml:"NativeVsync"`

	// LogLevel is the minimum level of log messages, such as "debug" or "warn".
	LogLevel string `default:"info" env:"PULSE_LOG_LEVEL" yaml:"LogLevel"`
}

// Default returns new [Settings] with the default values.
func Default() *Settings {
	s := &Settings{}
	errors.Log(reflectx.SetFromDefaultTags(s))
	return s
}

// Load returns the default settings, updated from the given file if it
// is non-empty, and then from the environment.
func Load(file string) (*Settings, error) {
	s := Default()
	if file != "" {
		if err := s.Open(file); err != nil {
			return nil, err
		}
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

// Open reads settings from the given file, which must have a .toml,
// .yaml or .yml extension. Fields not present in the file are unchanged.
func (s *Settings) Open(file string) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields().Decode(s)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(s)
	default:
		return fmt.Errorf("settings: unsupported file type %q", file)
	}
	if err != nil {
		return fmt.Errorf("settings: reading %q: %w", file, err)
	}
	return nil
}

// ApplyEnv sets each field that has an env tag from the variable of that
// name, if lookup finds it. [os.LookupEnv] is the usual lookup function.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	var errs []error
	for i := range t.NumField() {
		f := t.Field(i)
		name, ok := f.Tag.Lookup("env")
		if !ok {
			continue
		}
		val, ok := lookup(name)
		if !ok {
			continue
		}
		if err := reflectx.SetRobust(v.Field(i).Addr().Interface(), val); err != nil {
			errs = append(errs, fmt.Errorf("settings: %s=%q: %w", name, val, err))
		}
	}
	return errors.Join(errs...)
}

// Validate returns an error if any setting has an unusable value.
func (s *Settings) Validate() error {
	var errs []error
	if s.RefreshRate <= 0 || s.RefreshRate > 1000 {
		errs = append(errs, fmt.Errorf("settings: RefreshRate %d is not in (0, 1000]", s.RefreshRate))
	}
	if s.IdleGrace < 0 {
		errs = append(errs, fmt.Errorf("settings: IdleGrace %d is negative", s.IdleGrace))
	}
	if s.RenderWaitWarn <= 0 {
		errs = append(errs, fmt.Errorf("settings: RenderWaitWarn %d must be positive", s.RenderWaitWarn))
	}
	if s.Presentation != PerWindow && s.Presentation != FullRecopy {
		errs = append(errs, fmt.Errorf("settings: unknown Presentation %q", s.Presentation))
	}
	return errors.Join(errs...)
}

// PulseInterval returns the time between pulses for the refresh rate.
func (s *Settings) PulseInterval() time.Duration {
	return time.Second / time.Duration(max(s.RefreshRate, 1))
}

// IdleGraceDuration returns [Settings.IdleGrace] as a duration.
func (s *Settings) IdleGraceDuration() time.Duration {
	return time.Duration(s.IdleGrace) * time.Millisecond
}

// RenderWaitWarnDuration returns [Settings.RenderWaitWarn] as a duration.
func (s *Settings) RenderWaitWarnDuration() time.Duration {
	return time.Duration(s.RenderWaitWarn) * time.Millisecond
}

// PulseLogThresholdDuration returns [Settings.PulseLogThreshold] as a
// duration; it is negative when pulse logging is disabled.
func (s *Settings) PulseLogThresholdDuration() time.Duration {
	return time.Duration(s.PulseLogThreshold) * time.Millisecond
}
