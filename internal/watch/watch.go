// Package watch turns documents dropped into an inbox directory into batches.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Veraticus/qualify/internal/backend"
)

// Inbox watches one directory for supported documents.
type Inbox struct {
	watcher *fsnotify.Watcher
	settle  time.Duration
}

// NewInbox creates an inbox that emits a batch once no file changed for settle.
func NewInbox(settle time.Duration) (*Inbox, error) {
	if settle <= 0 {
		return nil, fmt.Errorf("settle must be positive, got %s", settle)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Inbox{watcher: w, settle: settle}, nil
}

// Batches starts monitoring dir. Each batch lists the paths created or
// written since the previous batch, sorted. The channel closes when ctx is
// done or the inbox is closed.
func (in *Inbox) Batches(ctx context.Context, dir string) (<-chan []string, error) {
	if err := in.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	out := make(chan []string)
	go in.run(ctx, out)
	return out, nil
}

func (in *Inbox) run(ctx context.Context, out chan<- []string) {
	defer close(out)

	pending := make(map[string]bool)
	timer := time.NewTimer(in.settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-in.watcher.Events:
			if !ok {
				return
			}
			if !backend.Supported(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = true
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			default:
				continue
			}
			timer.Reset(in.settle)

		case err, ok := <-in.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Inbox watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]bool)

			slog.Debug("Inbox batch ready", "files", len(batch))
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close stops the watcher.
func (in *Inbox) Close() error {
	return in.watcher.Close()
}
