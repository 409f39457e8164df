package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PolicyWatcher reloads the TTL policy file into a TTLPolicy whenever the
// file changes. Invalid files are logged and the current policy is kept.
type PolicyWatcher struct {
	path     string
	policy   *TTLPolicy
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	reloaded func()
}

// NewPolicyWatcher loads path once and prepares to watch it.
func NewPolicyWatcher(path string, policy *TTLPolicy, logger *zap.Logger) (*PolicyWatcher, error) {
	settings, err := LoadPolicyFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial policy: %w", err)
	}
	policy.Apply(settings)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory so atomic saves (write to temp, rename) are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch policy directory: %w", err)
	}

	return &PolicyWatcher{
		path:     path,
		policy:   policy,
		watcher:  watcher,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start watches in the background until Stop.
func (w *PolicyWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Cache policy watcher started", zap.String("path", w.path))
}

func (w *PolicyWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *PolicyWatcher) watchLoop() {
	var timer *time.Timer
	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *PolicyWatcher) reload() {
	settings, err := LoadPolicyFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload cache policy, keeping current", zap.Error(err))
		return
	}
	w.policy.Apply(settings)
	w.logger.Info("Cache policy reloaded", zap.String("path", w.path))
	if w.reloaded != nil {
		w.reloaded()
	}
}
