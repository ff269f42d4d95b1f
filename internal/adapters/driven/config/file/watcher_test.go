package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

func writePolicy(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestNewPolicyWatcher_InitialLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	writePolicy(t, path, tomlPolicy)

	w, err := NewPolicyWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, "escritorio", w.Current().Name)
	assert.NoError(t, w.LastError())

	writePolicy(t, path, "name = [")
	_, err = NewPolicyWatcher(path)
	assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
}

func TestPolicyWatcher_ReloadKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	writePolicy(t, path, tomlPolicy)

	w, err := NewPolicyWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	writePolicy(t, path, "name = [")
	w.Reload()
	assert.Equal(t, "escritorio", w.Current().Name)
	assert.ErrorIs(t, w.LastError(), domain.ErrInvalidPolicy)

	writePolicy(t, path, strings.Replace(tomlPolicy, `name = "escritorio"`, `name = "escritorio-v2"`, 1))
	w.Reload()
	assert.Equal(t, "escritorio-v2", w.Current().Name)
	assert.NoError(t, w.LastError())
}

func TestPolicyWatcher_HandleEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	writePolicy(t, path, tomlPolicy)

	w, err := NewPolicyWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		name   string
		event  fsnotify.Event
		reload bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create after rename", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"write and chmod", fsnotify.Event{Name: path, Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"chmod only", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: path, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "other.toml"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reload, w.handleEvent(tt.event))
		})
	}
}

func TestPolicyWatcher_Start(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	writePolicy(t, path, tomlPolicy)

	w, err := NewPolicyWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	writePolicy(t, path, strings.Replace(tomlPolicy, `name = "escritorio"`, `name = "recarregada"`, 1))

	assert.Eventually(t, func() bool {
		return w.Current().Name == "recarregada"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
