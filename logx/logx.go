// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx configures the default [slog.Logger] with a handler
// that colors level names for terminals.
package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// UserLevel is the verbosity [slog.Level] that the user has selected for
// what logging messages should be shown. Messages at levels at or above
// this level will be shown. It is [slog.LevelInfo] by default, or
// [slog.LevelDebug] when built with the debug tag.
var UserLevel = defaultUserLevel

// LevelFromFlags returns the [slog.Level] object corresponding to the given
// user flag options. The flags correspond to the following values:
//   - vv: [slog.LevelDebug]
//   - v: [slog.LevelInfo]
//   - q: [slog.LevelError]
//   - (default: [slog.LevelWarn])
//
// The flags are evaluated in that order, so, for example, if both
// vv and q are specified, it will still return [slog.LevelDebug].
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// LevelFromString parses a level name such as "debug" or "warn",
// case-insensitively. The empty string is [UserLevel].
func LevelFromString(s string) (slog.Level, error) {
	if s == "" {
		return UserLevel, nil
	}
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.ToUpper(s)))
	return l, err
}

// NewHandler returns a text [slog.Handler] writing to w at the given level,
// with level names colored according to the terminal capabilities of w.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	out := termenv.NewOutput(w)
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 || a.Key != slog.LevelKey {
				return a
			}
			l, ok := a.Value.Any().(slog.Level)
			if !ok {
				return a
			}
			a.Value = slog.StringValue(colorLevel(out, l))
			return a
		},
	})
}

// colorLevel returns the name of the level, colored for the output.
func colorLevel(out *termenv.Output, l slog.Level) string {
	st := out.String(l.String())
	switch {
	case l >= slog.LevelError:
		st = st.Foreground(termenv.ANSIRed).Bold()
	case l >= slog.LevelWarn:
		st = st.Foreground(termenv.ANSIYellow)
	case l >= slog.LevelInfo:
		st = st.Foreground(termenv.ANSICyan)
	default:
		st = st.Foreground(termenv.ANSIBrightBlack)
	}
	return st.String()
}

// SetDefaultLogger sets the default logger to one that writes
// to [os.Stderr] at [UserLevel].
func SetDefaultLogger() {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, UserLevel)))
}
