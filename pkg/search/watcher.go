package search

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/avolpe/searchd/internal/logger"
)

// Watch observes the backing file for external modification and logs when a
// change is detected. It exists for operator visibility in cached mode: the
// in-memory snapshot stays authoritative no matter what happens to the file,
// and a changed file is otherwise silent until the next restart.
//
// The parent directory is watched rather than the file itself so that
// atomic replace (write temp, rename over) is still observed.
//
// Watch returns a stop function. It returns an error only if the watcher
// cannot be created or the directory cannot be watched.
func (e *Engine) Watch(ctx context.Context) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(e.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	target := filepath.Clean(e.path)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if e.reread {
					logger.Debug("backing file changed",
						logger.KeyFile, e.path,
						"op", event.Op.String(),
					)
					continue
				}
				if e.Populated() {
					logger.Warn("backing file changed, cached snapshot remains authoritative until restart",
						logger.KeyFile, e.path,
						"op", event.Op.String(),
					)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("file watcher error", logger.KeyError, err)
			}
		}
	}()

	return watcher.Close, nil
}
