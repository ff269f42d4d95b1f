package file

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure PolicyWatcher implements the interface.
var _ driven.PolicySource = (*PolicyWatcher)(nil)

// PolicyWatcher serves a policy loaded from a file and reloads it when the file changes.
// A reload that fails to parse or validate keeps the last good policy.
type PolicyWatcher struct {
	path string

	mu      sync.RWMutex
	current *domain.Policy
	lastErr error

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewPolicyWatcher loads the policy file. The initial load must succeed.
// Call Start to begin watching.
func NewPolicyWatcher(path string) (*PolicyWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve policy path: %w", err)
	}
	policy, err := LoadPolicyFile(abs)
	if err != nil {
		return nil, err
	}
	return &PolicyWatcher{
		path:    abs,
		current: policy,
		done:    make(chan struct{}),
	}, nil
}

// Current returns the last good policy.
func (w *PolicyWatcher) Current() *domain.Policy {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// LastError returns the error of the most recent failed reload, or nil.
func (w *PolicyWatcher) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// Start watches the policy file's directory until ctx is cancelled or Close is called.
// The directory is watched so that editors replacing the file are noticed.
func (w *PolicyWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = watcher

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

func (w *PolicyWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				w.Reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("policy watcher error", "path", w.path, "error", err)
		}
	}
}

// handleEvent reports whether the event should trigger a reload.
func (w *PolicyWatcher) handleEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// Reload reads the policy file again. On failure the current policy is kept.
func (w *PolicyWatcher) Reload() {
	policy, err := LoadPolicyFile(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.lastErr = err
		slog.Warn("policy reload failed, keeping last good policy",
			"path", w.path, "policy", w.current.Name, "error", err)
		return
	}
	w.current = policy
	w.lastErr = nil
	slog.Info("policy reloaded", "path", w.path, "policy", policy.Name, "rules", len(policy.Rules))
}

// Close stops watching.
func (w *PolicyWatcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
	}
	w.wg.Wait()
	return err
}
