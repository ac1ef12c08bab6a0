package catalog

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry from path whenever the file is written or
// replaced. It watches the parent directory so editors that rename a temp
// file over the original are picked up. Close done to stop.
func (r *Registry) Watch(path string, done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := r.Reload(path); err != nil {
					slog.Error("forms config reload failed", "path", path, "error", err)
					continue
				}
				slog.Info("forms config reloaded", "path", path, "forms", len(r.All()))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("forms config watcher error", "error", err)
			case <-done:
				return
			}
		}
	}()
	return nil
}
