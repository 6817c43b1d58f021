package validate

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs the suite whenever the features directory or a label
// CSV changes. Events are debounced so a batch of artifact writes
// triggers a single run. Blocks until ctx is cancelled.
func (s *Suite) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.FeaturesDir); err != nil {
		s.Log.Warnw("cannot watch features dir", "dir", s.FeaturesDir, "error", err)
	}
	labelDirs := make(map[string]bool)
	for _, d := range s.Datasets {
		dir := filepath.Dir(d.LabelsPath)
		if labelDirs[dir] {
			continue
		}
		labelDirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			s.Log.Warnw("cannot watch labels dir", "dir", dir, "error", err)
		}
	}

	s.Log.Infow("watching for changes", "debounce", debounce)
	s.Run()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			s.Log.Infow("change detected, re-running checks")
			s.Run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.Log.Warnw("watch error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
