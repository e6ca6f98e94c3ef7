package vault

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Arrival is a file that appeared in the incoming area.
type Arrival struct {
	Path      string
	Timestamp time.Time
}

// Watcher reports new files landing in the vault's incoming area so
// operators can register them as Draft documents.
type Watcher struct {
	watcher  *fsnotify.Watcher
	arrivals chan Arrival
	logger   *zap.Logger
}

// NewWatcher creates a watcher over the vault's incoming directory.
func NewWatcher(v *Vault, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	if err := fsw.Add(v.IncomingDir()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching incoming area: %w", err)
	}
	return &Watcher{
		watcher:  fsw,
		arrivals: make(chan Arrival, 16),
		logger:   logger,
	}, nil
}

// Arrivals is the channel of detected incoming files.
func (w *Watcher) Arrivals() <-chan Arrival { return w.arrivals }

// Run pumps filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer close(w.arrivals)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			arrival := Arrival{Path: filepath.Clean(event.Name), Timestamp: time.Now()}
			w.logger.Info("incoming document detected", zap.String("path", arrival.Path))
			select {
			case w.arrivals <- arrival:
			default:
				w.logger.Warn("arrival channel full, dropping event", zap.String("path", arrival.Path))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
