// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/signaltv/signaltv/internal/log"
)

// Watcher observes the external source-list and wanted-channel documents
// and invokes onChange whenever one of them is rewritten, so the owner can
// invalidate cached resolutions.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func(path string)
	logger   zerolog.Logger
}

// NewWatcher starts watching the given paths. Paths that do not exist yet
// are skipped with a warning rather than failing startup.
func NewWatcher(paths []string, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		logger:   log.WithComponent("config"),
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := fw.Add(p); err != nil {
			w.logger.Warn().
				Err(err).
				Str("event", "watch.add_failed").
				Str("path", p).
				Msg("cannot watch file, hot reload disabled for it")
			continue
		}
		w.logger.Info().
			Str("event", "watch.started").
			Str("path", p).
			Msg("watching file for changes")
	}

	return w, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Debug().Err(err).Msg("close watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Atomic saves (editors, renameio-style writers) replace the
			// file and the kernel watch follows the old inode, surfacing
			// as Rename or Remove. Re-add the path and treat the
			// replacement as a change, or the watch silently goes dead.
			if ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Remove) {
				if w.rearm(ctx, ev.Name) {
					w.notify(ev)
				}
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				w.notify(ev)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().
				Err(err).
				Str("event", "watch.error").
				Msg("watcher error")
		}
	}
}

func (w *Watcher) notify(ev fsnotify.Event) {
	w.logger.Info().
		Str("event", "watch.changed").
		Str("path", ev.Name).
		Str("op", ev.Op.String()).
		Msg("watched file changed")
	if w.onChange != nil {
		w.onChange(ev.Name)
	}
}

// rearm re-registers a watch on path after the old inode disappeared. The
// replacement file may land a moment after the event, so adding is retried
// briefly before giving up.
func (w *Watcher) rearm(ctx context.Context, path string) bool {
	_ = w.watcher.Remove(path)

	for attempt := 0; attempt < 10; attempt++ {
		if err := w.watcher.Add(path); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}

	w.logger.Warn().
		Str("event", "watch.rearm_failed").
		Str("path", path).
		Msg("cannot re-watch replaced file, hot reload disabled for it")
	return false
}
