package file

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/filmsync/internal/logger"
)

// relevantOps are the events that can change the file's contents. Editors
// often write a temp file and rename it over the original, so the
// directory is watched rather than the file itself.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watch reloads the store whenever the config file changes on disk and then
// calls onChange. It blocks until ctx is cancelled.
func (s *ConfigStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.filePath), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.filePath) || event.Op&relevantOps == 0 {
				continue
			}
			if err := s.Load(); err != nil {
				logger.Warn("config: reload %s failed: %v", s.filePath, err)
				continue
			}
			logger.Debug("config: reloaded %s", s.filePath)
			if onChange != nil {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config: watcher error: %v", err)
		}
	}
}
