package beads

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/grovecli/grove/internal/debug"
)

// Watch syncs the branch whenever the linked repo's issues.jsonl or
// database files change, debounced against rapid writes, until ctx is
// done. onSync receives every sync outcome, including failures.
func (s *Syncer) Watch(ctx context.Context, branchID int64, onSync func(*SyncResult, error)) error {
	_, dir, err := s.linkedRepo(ctx, branchID)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	// Sync once up front so the watcher starts from a clean state.
	onSync(s.Sync(ctx, branchID, false))

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			base := filepath.Base(event.Name)
			if base != "issues.jsonl" && !strings.HasSuffix(base, ".db") {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				onSync(s.Sync(ctx, branchID, false))
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.Logf("beads watch error: %v\n", err)
		}
	}
}
