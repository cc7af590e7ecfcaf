package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	backupFile = "backup.json"
)

// BackupState records the most recent scheduled backup.
type BackupState struct {
	// LastBackupAt is when the last backup finished.
	LastBackupAt time.Time `json:"lastBackupAt"`

	// Path is where the last backup was written.
	Path string `json:"path"`

	// Format is "json" or "zip".
	Format string `json:"format"`

	// Failures counts consecutive failed attempts since the last success.
	Failures int `json:"failures,omitempty"`
}

// LoadBackupState loads the backup state from a target .bibweb/backup.json.
// Returns nil, nil if no backup has been recorded yet.
func (m *Manager) LoadBackupState(overrideDir string) (*BackupState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, backupFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup state: %w", err)
	}

	state := &BackupState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing backup state: %w", err)
	}

	return state, nil
}

// SaveBackupState persists the backup state to a target .bibweb/backup.json.
func (m *Manager) SaveBackupState(state *BackupState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil backup state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling backup state: %w", err)
	}

	path := filepath.Join(dir, backupFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing backup state: %w", err)
	}

	return nil
}
