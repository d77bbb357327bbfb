package presentation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the bursts of events editors produce on save
const reloadDelay = 50 * time.Millisecond

// Watch reloads the presentation whenever its source file changes on disk
// and reports the outcome of each reload to onChange. It blocks until ctx
// is done. The containing directory is watched since many editors replace
// the file on save instead of writing to it.
func (p *Presentation) Watch(ctx context.Context, onChange func(error)) error {
	if p.fromStdin() {
		return errors.New("cannot watch stdin")
	}

	path, err := filepath.Abs(p.opts.Path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	p.log.Info("watching for changes", "path", path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.log.Debug("source changed", "op", event.Op.String())
			pending = time.After(reloadDelay)

		case <-pending:
			pending = nil
			onChange(p.Reload())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("watch error", "error", err)
		}
	}
}
