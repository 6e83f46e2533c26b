package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/repairhub/repair-search/internal/observability"
)

// Watch reloads the catalog file into m whenever it changes, until ctx is
// done. A file that fails to parse leaves the previous catalog in place.
// The parent directory is watched so editors that replace the file on save
// are picked up.
func Watch(ctx context.Context, path string, m *Matcher, logger *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return fmt.Errorf("resolving catalog path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reload(abs, m, logger)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("catalog watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

func reload(path string, m *Matcher, logger *zap.Logger) {
	c, err := Load(path)
	if err != nil {
		observability.CatalogReloads.WithLabelValues("error").Inc()
		logger.Warn("catalog reload failed, keeping previous catalog",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	m.Set(c)
	observability.CatalogReloads.WithLabelValues("ok").Inc()
	logger.Info("catalog reloaded",
		zap.String("path", path),
		zap.Int("entries", c.Len()),
	)
}
