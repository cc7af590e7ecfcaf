// Package inmemory provides a map-backed blob.Store.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
)

// Driver implements blob.Store using in-memory maps.
type Driver struct {
	// mu is a read write sync mutex for locking the asset and setting maps
	mu sync.RWMutex

	assets   map[string]*blob.Asset
	settings map[string]string
}

// NewDriver creates a new in-memory blob store.
func NewDriver() *Driver {
	return &Driver{
		assets:   make(map[string]*blob.Asset),
		settings: make(map[string]string),
	}
}

func copyAsset(a *blob.Asset) *blob.Asset {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// Put stores an asset, replacing any asset with the same name.
func (s *Driver) Put(_ context.Context, a *blob.Asset) error {
	if a == nil || a.Name == "" {
		return errors.New("cannot store unnamed asset")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyAsset(a)
	stored.Size = int64(len(stored.Data))
	s.assets[a.Name] = stored
	return nil
}

// Get retrieves an asset by name.
func (s *Driver) Get(_ context.Context, name string) (*blob.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[name]
	if !ok {
		return nil, blob.ErrNotFound{Name: name}
	}
	return copyAsset(a), nil
}

// Has checks if an asset exists by name.
func (s *Driver) Has(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.assets[name]
	return ok, nil
}

// List returns all asset metadata ordered by name.
func (s *Driver) List(_ context.Context) ([]blob.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]blob.Info, 0, len(s.assets))
	for _, a := range s.assets {
		infos = append(infos, a.Info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes an asset.
func (s *Driver) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.assets, name)
	return nil
}

// Clear removes all assets. Settings are kept.
func (s *Driver) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assets = make(map[string]*blob.Asset)
	return nil
}

// Size returns the total bytes stored.
func (s *Driver) Size(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, a := range s.assets {
		total += a.Size
	}
	return total, nil
}

func (s *Driver) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *Driver) SaveSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

// Close is a no-op for the in-memory driver.
func (s *Driver) Close() error {
	return nil
}
