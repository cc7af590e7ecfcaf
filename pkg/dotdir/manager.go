// Package dotdir manages the .bibweb/ and ~/.bibweb directories.
//
// A workspace directory holds the configuration, the graph snapshot, the
// asset store and small JSON state files such as the backup record.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the bibweb directory.
	dirName = ".bibweb"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .bibweb/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.bibweb/ dir
//  3. Home ~/.bibweb/ dir, created when missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating bibweb directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// InitLocal creates ./.bibweb/ in the current working directory and returns
// its absolute path.
func (m *Manager) InitLocal() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return m.Target(filepath.Join(cwd, dirName))
}

// localDirExists checks whether a .bibweb/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
