package localstore

import "sync"

// Memory is an in-process Medium.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	used    int64
	quota   int64
}

// NewMemory returns an empty medium. A quota of zero or less disables the
// limit.
func NewMemory(quota int64) *Memory {
	return &Memory{
		entries: make(map[string][]byte),
		quota:   quota,
	}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, hadOld := m.entries[key]
	if err := checkQuota(key, value, old, hadOld, m.used, m.quota); err != nil {
		return err
	}
	if hadOld {
		m.used -= entrySize(key, old)
	}
	m.entries[key] = append([]byte(nil), value...)
	m.used += entrySize(key, value)
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.entries, key)
	}
	return nil
}

func (m *Memory) Usage() (int64, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used, m.quota
}

// SetQuota changes the quota. Existing entries are kept even when they no
// longer fit.
func (m *Memory) SetQuota(quota int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quota = quota
}
