package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader watches the configuration file for changes and swaps the
// dispatch policy tables on the fly. Only the dispatch section is hot:
// identity and substitutions stay fixed for the process lifetime.
type Reloader struct {
	watcher *fsnotify.Watcher
	path    string
	apply   func(*Config)
	log     *zap.Logger
}

// NewReloader creates a file watcher for the given config path. apply is
// invoked with each freshly loaded config after the debounce settles.
func NewReloader(path string, log *zap.Logger, apply func(*Config)) (*Reloader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("watch target: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reloader{watcher: watcher, path: path, apply: apply, log: log}, nil
}

// Run watches for file changes and reloads. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after the last write before reloading.
	var debounce *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			}

		case <-fire:
			cfg, err := LoadConfig(r.path)
			if err != nil {
				r.log.Warn("config reload failed, keeping previous tables",
					zap.String("path", r.path),
					zap.Error(err))
				continue
			}
			r.log.Info("config reloaded", zap.String("path", r.path))
			r.apply(cfg)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("config watcher error", zap.Error(err))
		}
	}
}
