// Package backup exports the graph on a cron schedule while a workspace is
// being served, and records the outcome in the .bibweb/ directory.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/bundle"
	"github.com/Ben-Eze/BibWeb/pkg/dotdir"
)

const filePrefix = "paper-web-"

// Exporter writes the graph and its assets to w.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) (bundle.Format, error)
}

// Config is the configuration for a Scheduler.
type Config struct {
	// Schedule is a standard five-field cron spec or a descriptor such as
	// "@daily".
	Schedule string

	// Dir receives the backup files.
	Dir string

	// StateDir is the .bibweb/ directory the backup record is kept in.
	StateDir string

	Exporter Exporter
	Logger   *zap.Logger

	// Now is overridden in tests.
	Now func() time.Time
}

// Scheduler runs backups on a cron schedule.
type Scheduler struct {
	config *Config
	cron   *cron.Cron
	ddm    *dotdir.Manager
	logger *zap.Logger

	mu sync.Mutex
}

// New validates the schedule and creates a stopped Scheduler.
func New(c *Config) (*Scheduler, error) {
	if c.Exporter == nil {
		return nil, errors.New("backup requires an exporter")
	}
	if c.Dir == "" {
		return nil, errors.New("backup requires a directory")
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	s := &Scheduler{
		config: c,
		cron:   cron.New(),
		ddm:    dotdir.NewManager(),
		logger: c.Logger,
	}

	if _, err := s.cron.AddFunc(c.Schedule, s.scheduled); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", c.Schedule, err)
	}
	return s, nil
}

// Start begins running backups in the background.
func (s *Scheduler) Start() {
	s.logger.Info("scheduled backups enabled",
		zap.String("schedule", s.config.Schedule),
		zap.String("dir", s.config.Dir),
	)
	s.cron.Start()
}

// Stop stops the schedule and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) scheduled() {
	s.logger.Info("running scheduled backup")
	state, err := s.Run(context.Background())
	if err != nil {
		s.logger.Error("scheduled backup failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled backup completed",
		zap.String("path", state.Path),
		zap.String("format", state.Format),
	)
}

// Run writes one backup now and records the result. A failure bumps the
// failure count of the previous record instead of replacing it.
func (s *Scheduler) Run(ctx context.Context) (*dotdir.BackupState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.ddm.LoadBackupState(s.config.StateDir)
	if err != nil {
		s.logger.Warn("ignoring unreadable backup state", zap.Error(err))
		state = nil
	}
	if state == nil {
		state = &dotdir.BackupState{}
	}

	path, format, err := s.write(ctx)
	if err != nil {
		state.Failures++
		if saveErr := s.ddm.SaveBackupState(state, s.config.StateDir); saveErr != nil {
			s.logger.Debug("could not record backup failure", zap.Error(saveErr))
		}
		return nil, err
	}

	state = &dotdir.BackupState{
		LastBackupAt: s.config.Now().UTC(),
		Path:         path,
		Format:       string(format),
	}
	if err := s.ddm.SaveBackupState(state, s.config.StateDir); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Scheduler) write(ctx context.Context) (string, bundle.Format, error) {
	var buf bytes.Buffer
	format, err := s.config.Exporter.Export(ctx, &buf)
	if err != nil {
		return "", "", fmt.Errorf("exporting graph: %w", err)
	}

	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating backup dir: %w", err)
	}

	name := FileName(s.config.Now(), format)
	path := filepath.Join(s.config.Dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", "", fmt.Errorf("writing backup: %w", err)
	}
	return path, format, nil
}

// FileName is the name a backup taken at t is written under.
func FileName(t time.Time, format bundle.Format) string {
	return filePrefix + t.UTC().Format("20060102-150405") + format.Ext()
}
