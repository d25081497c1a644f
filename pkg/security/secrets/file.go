package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads secrets from one file per secret in a directory, the way
// Kubernetes mounts them. Files must be 0600 or 0400. Values are cached until
// Refresh, which the optional watcher calls on every write to the directory.
type FileSource struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewFileSource creates a FileSource over dir.
func NewFileSource(dir string, watch bool) (*FileSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", dir)
	}

	s := &FileSource{
		dir:    dir,
		cache:  make(map[string]string),
		stopCh: make(chan struct{}),
	}
	if !watch {
		return s, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch secrets directory: %w", err)
	}
	s.watcher = w
	go s.watchLoop()

	slog.Info("watching secrets directory", "path", dir)
	return s, nil
}

func (s *FileSource) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	value, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return value, nil
	}

	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret %s is not a regular file", name)
	}
	if mode := info.Mode().Perm(); mode != 0o600 && mode != 0o400 {
		return "", fmt.Errorf("insecure permissions on secret %s: %o (expected 0600 or 0400)", name, mode)
	}

	// #nosec G304 -- path is confined to dir above
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	value = strings.TrimSpace(string(data))

	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()
	return value, nil
}

func (s *FileSource) Names(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *FileSource) Kind() string { return "file" }

// Refresh drops cached values.
func (s *FileSource) Refresh() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Close stops the watcher.
func (s *FileSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		err = s.watcher.Close()
	})
	return err
}

func (s *FileSource) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FileSource) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				slog.Debug("secrets changed, dropping cache", "file", filepath.Base(event.Name), "op", event.Op.String())
				s.Refresh()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("secrets watcher error", "error", err)
		case <-s.stopCh:
			return
		}
	}
}
