package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// settle is how long to wait after a change before reporting it, since
// editors tend to write a file in several steps.
const settle = time.Second / 10

func waitForChange(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-watcher.Errors:
		return err
	case <-watcher.Events:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(settle):
	}
	return ctx.Err()
}

// WatchForChanges reports edits to the properties file until ctx is done.
// The running configuration is never replaced; onChange is only a hook for
// telling the operator a restart is required. A nil onChange logs a warning.
func WatchForChanges(ctx context.Context, path string, onChange func()) {
	if onChange == nil {
		onChange = func() {
			log.Warnf("%v changed on disk, restart to apply", path)
		}
	}
	go watch(ctx, path, onChange, time.Second)
}

// watch re-adds a failed watch after retry. Only the first failure in a row
// is logged as an error.
func watch(ctx context.Context, path string, onChange func(), retry time.Duration) {
	failing := false
	for ctx.Err() == nil {
		if err := waitForChange(ctx, path); err != nil {
			if ctx.Err() != nil {
				return
			}
			if !failing {
				log.Errorf("Error waiting for config change: %v", err)
			} else {
				log.Debugf("Still unable to watch config: %v", err)
			}
			failing = true
			// File may be mid-replace; back off before re-adding the watch.
			select {
			case <-ctx.Done():
				return
			case <-time.After(retry):
			}
			continue
		}
		failing = false
		onChange()
	}
}
