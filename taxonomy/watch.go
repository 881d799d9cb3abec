package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the write+rename burst an atomic save produces
// into a single refresh tick.
const watchDebounce = 250 * time.Millisecond

// Watch observes the store file at path and sends a tick on the returned
// channel whenever another process rewrites it. Consumers treat a tick as
// "refetch authoritative state". The channel closes when ctx is cancelled.
//
// The watch is on the containing directory: atomic saves replace the file
// by rename, which would invalidate a watch on the file itself.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ticks := make(chan struct{}, 1)
	go func() {
		defer close(ticks)
		defer func() { _ = watcher.Close() }()

		var timer *time.Timer
		var timerC <-chan time.Time
		base := filepath.Base(path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
					timerC = timer.C
				} else {
					timer.Reset(watchDebounce)
				}
			case <-timerC:
				select {
				case ticks <- struct{}{}:
				default:
					// A pending tick already signals staleness.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("store watch error", "path", path, "error", err)
			}
		}
	}()
	return ticks, nil
}
