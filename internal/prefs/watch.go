package prefs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
)

// Watch blocks until ctx is done, refreshing the store and calling onChange
// every time the backing file is replaced or written by someone else.
//
// The parent directory is watched rather than the file itself because
// atomic replacement swaps the inode out from under a file watch.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	target := filepath.Base(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}

			if err := s.Refresh(); err != nil {
				logging.Warn("Failed to reload preferences after change",
					zap.String("path", s.path),
					zap.Error(err),
				)
				continue
			}
			logging.Info("Preferences changed on disk", zap.String("path", s.path))
			if onChange != nil {
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logging.Warn("fsnotify watcher error", zap.Error(err))
		}
	}
}
