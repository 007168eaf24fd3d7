package buildpipe

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce groups rapid change bursts when no debounce interval is
// configured.
const defaultDebounce = 300 * time.Millisecond

// watchPaths watches the given directories recursively and calls onChange
// with the batch of changed paths after each debounced burst of events.
// It returns when ctx is cancelled or the underlying watcher fails.
func watchPaths(ctx context.Context, paths []string, debounce time.Duration, onChange func(changed []string)) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, path := range paths {
		if err := addRecursive(watcher, path); err != nil {
			return err
		}
	}

	var (
		pending []string
		timer   *time.Timer
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// New directories need their own watches.
			if event.Has(fsnotify.Create) {
				_ = addRecursive(watcher, event.Name)
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending = append(pending, event.Name)
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				fire = timer.C
			}

		case <-fire:
			batch := pending
			pending = nil
			fire = nil
			if len(batch) > 0 {
				onChange(batch)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// addRecursive watches path and every directory below it. Non-directory
// paths are ignored so rapid create events for plain files don't error.
func addRecursive(watcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// The entry may already be gone again.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(p)
	})
}
