// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package settings

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the settings with [Load] whenever the given file changes,
// calling f with the new settings, until ctx is done. The directory of the
// file is watched so that editors that replace the file are handled.
// Settings that fail to load are logged and not passed to f.
func Watch(ctx context.Context, file string, f func(s *Settings)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	file = filepath.Clean(file)
	if err := w.Add(filepath.Dir(file)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != file || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			s, err := Load(file)
			if err != nil {
				slog.Error("settings: reload failed", "file", file, "err", err)
				continue
			}
			slog.Debug("settings: reloaded", "file", file)
			f(s)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("settings: watch error", "file", file, "err", err)
		}
	}
}
