package localstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// File is a Medium persisted as a single JSON object of string values,
// rewritten atomically on every change.
type File struct {
	path   string
	quota  int64
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]string
	used    int64
	written []byte
}

// OpenFile loads the medium at path, creating an empty one if the file does
// not exist.
func OpenFile(path string, quota int64, logger *zap.Logger) (*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &File{
		path:    path,
		quota:   quota,
		logger:  logger,
		entries: make(map[string]string),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	if _, err := f.reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

func (f *File) Get(key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (f *File) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	old, hadOld := f.entries[key]
	if err := checkQuota(key, value, []byte(old), hadOld, f.used, f.quota); err != nil {
		return err
	}

	next := cloneEntries(f.entries)
	next[key] = string(value)
	return f.commitLocked(next)
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[key]; !ok {
		return nil
	}
	next := cloneEntries(f.entries)
	delete(next, key)
	return f.commitLocked(next)
}

func (f *File) Usage() (int64, int64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.used, f.quota
}

func (f *File) commitLocked(next map[string]string) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".localstore-*")
	if err != nil {
		return fmt.Errorf("creating temp storage file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing storage: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing storage: %w", err)
	}

	f.entries = next
	f.used = usage(next)
	f.written = data
	return nil
}

// reload re-reads the file and returns the keys whose values changed.
func (f *File) reload() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("reading storage: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if data != nil && bytes.Equal(data, f.written) {
		return nil, nil
	}

	next := make(map[string]string)
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &next); err != nil {
			return nil, fmt.Errorf("parsing storage %s: %w", f.path, err)
		}
	}

	changed := diffKeys(f.entries, next)
	f.entries = next
	f.used = usage(next)
	f.written = data
	return changed, nil
}

// Watch reports external modifications of the backing file until ctx is
// done. onChange receives the keys whose values differ from what the medium
// last held; writes made through this File are not reported.
func (f *File) Watch(ctx context.Context, onChange func(keys []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating storage watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watching storage dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			keys, err := f.reload()
			if err != nil {
				f.logger.Warn("ignoring unreadable storage change", zap.String("path", f.path), zap.Error(err))
				continue
			}
			if len(keys) > 0 {
				f.logger.Debug("storage changed on disk", zap.Strings("keys", keys))
				onChange(keys)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("storage watcher error: %w", err)
		}
	}
}

func cloneEntries(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func usage(entries map[string]string) int64 {
	var n int64
	for k, v := range entries {
		n += int64(len(k) + len(v))
	}
	return n
}

func diffKeys(prev, next map[string]string) []string {
	var keys []string
	for k, v := range next {
		if old, ok := prev[k]; !ok || old != v {
			keys = append(keys, k)
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
