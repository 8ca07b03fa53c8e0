package lsp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/treehl/pkg/grammar"
	"github.com/walteh/treehl/pkg/highlight"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"gopkg.in/fsnotify.v1"
)

// reloadPatterns selects the workspace files whose edits invalidate
// compiled bindings.
var reloadPatterns = []string{
	"**/*.scm",
	"**/" + grammar.DefaultConfigName,
}

// assetWatcher reloads the provider whenever a query file or the
// workspace configuration changes on disk.
type assetWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu   sync.Mutex
	errs error
}

func watchAssets(ctx context.Context, workspace string, provider *highlight.Provider) (*assetWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating workspace watcher: %w", err)
	}

	// fsnotify does not recurse, so register every directory up front
	walkErr := filepath.Walk(workspace, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if name := info.Name(); strings.HasPrefix(name, ".") && path != workspace {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if walkErr != nil {
		watcher.Close()
		return nil, errors.Errorf("registering workspace directories: %w", walkErr)
	}

	w := &assetWatcher{
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go w.loop(ctx, workspace, provider)
	return w, nil
}

func (w *assetWatcher) loop(ctx context.Context, workspace string, provider *highlight.Provider) {
	defer close(w.done)
	logger := zerolog.Ctx(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !matchesReloadPattern(workspace, event.Name) {
				continue
			}
			logger.Debug().Str("path", event.Name).Msg("highlight asset changed, reloading")
			if err := provider.Reload(ctx); err != nil {
				logger.Warn().Err(err).Msg("reload after asset change failed")
				w.record(err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("workspace watcher error")
			w.record(err)
		}
	}
}

func matchesReloadPattern(workspace, path string) bool {
	rel, err := filepath.Rel(workspace, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range reloadPatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *assetWatcher) record(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = multierr.Append(w.errs, err)
}

// Close stops watching and reports both the shutdown error and any
// errors the watch loop accumulated.
func (w *assetWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	return multierr.Append(w.errs, err)
}
