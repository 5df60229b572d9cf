package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LoadSettings reads a feed settings file (JSON). A missing file is not an
// error: the zero Settings make the client serve the simulated dataset.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read feed settings: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse feed settings: %w", err)
	}
	return s, nil
}

// Watch applies settings-file changes to the client until ctx is cancelled.
// Writes are debounced: editors fire several events per save.
func Watch(ctx context.Context, path string, fc *FeedClient) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory: the file may not exist yet, and editors replace
	// files by rename which drops a watch on the file itself
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			debounce.Reset(500 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("settings watch error", "error", err)
		case <-debounce.C:
			s, err := LoadSettings(path)
			if err != nil {
				slog.Warn("feed settings reload failed", "error", err)
				continue
			}
			fc.UpdateSettings(s)
		}
	}
}
