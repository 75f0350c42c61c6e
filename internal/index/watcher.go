package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the watcher waits for a burst of writes to settle.
const debounce = 200 * time.Millisecond

// ChangeCallback is called once per settled burst with the root-relative
// documents that changed, in sorted order.
type ChangeCallback func(ctx context.Context, paths []string)

// Watch starts an fsnotify watcher on the directories holding docs and
// calls cb after changes to any of them settle, until ctx is cancelled.
//
// Documents are written by rename, so the parent directories are watched
// rather than the files themselves. Events for other files are ignored.
func Watch(ctx context.Context, root string, docs []string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	tracked := make(map[string]string, len(docs))
	var dirs []string
	for _, d := range docs {
		abs := filepath.Join(root, d)
		tracked[abs] = d
		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Int("documents", len(tracked)))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			logger.Debug("watcher: documents changed", slog.Any("paths", paths))
			if cb != nil {
				cb(ctx, paths)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, ok := tracked[filepath.Clean(ev.Name)]
			if !ok || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
