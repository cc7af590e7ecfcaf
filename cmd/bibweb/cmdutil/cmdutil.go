// Package cmdutil holds the pieces every bibweb subcommand shares: opening
// the workspace with the layered configuration and resolving papers named on
// the command line.
package cmdutil

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/config"
	"github.com/Ben-Eze/BibWeb/pkg/dotdir"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/logger"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
	"github.com/Ben-Eze/BibWeb/pkg/session"
)

// workspaceFlags are the registry keys bound for every command that opens
// the workspace.
var workspaceFlags = []string{
	config.FlagSnapshot,
	config.FlagQuota,
	config.FlagAssetsProvider,
	config.FlagAssetsPath,
	config.FlagAssetsDSN,
	config.FlagS3Bucket,
	config.FlagS3Endpoint,
	config.FlagEventsProvider,
}

// WorkspaceFlags holds the flag targets registered by AddWorkspaceFlags.
// Values are read back through viper so flags only win when set.
type WorkspaceFlags struct {
	snapshot       string
	quota          int64
	assetsProvider string
	assetsPath     string
	assetsDSN      string
	s3Bucket       string
	s3Endpoint     string
	eventsProvider string
}

// AddWorkspaceFlags registers the storage flags on cmd.
func AddWorkspaceFlags(cmd *cobra.Command) *WorkspaceFlags {
	f := &WorkspaceFlags{}
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagSnapshot, &f.snapshot)
	config.AddInt64Flag(cmd, config.DefaultFlags, config.FlagQuota, &f.quota)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagAssetsProvider, &f.assetsProvider)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagAssetsPath, &f.assetsPath)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagAssetsDSN, &f.assetsDSN)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagS3Bucket, &f.s3Bucket)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagS3Endpoint, &f.s3Endpoint)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagEventsProvider, &f.eventsProvider)
	return f
}

// Workspace is an open session together with the resolved settings it was
// opened with.
type Workspace struct {
	*session.Session

	ConfigDir string
	Logger    *zap.Logger
}

// LoadConfig resolves the configuration for cmd: flags (including extra
// registry keys), BIBWEB_* environment, config.toml, then defaults.
func LoadConfig(cmd *cobra.Command, extraFlags ...string) (*config.Config, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, "", err
	}
	config.BindRegisteredFlags(v, cmd, config.DefaultFlags, append(workspaceFlags, extraFlags...))

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, "", err
	}
	return config.FromViper(v), dir, nil
}

// Open opens the workspace for cmd. The caller must Close it.
func Open(cmd *cobra.Command, extraFlags ...string) (*Workspace, error) {
	cfg, dir, err := LoadConfig(cmd, extraFlags...)
	if err != nil {
		return nil, err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	log := logger.NewLogger(debug)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := session.Open(ctx, session.Options{
		Dir:    dir,
		Config: cfg,
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("opening workspace %s: %w", dir, err)
	}

	return &Workspace{Session: s, ConfigDir: dir, Logger: log}, nil
}

// Close closes the session and flushes the logger.
func (w *Workspace) Close() error {
	err := w.Session.Close()
	_ = w.Logger.Sync()
	return err
}

// ResolvePaper finds a paper by id, or by title when arg is not a number.
func ResolvePaper(store *graph.Store, arg string) (*paper.Paper, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		p, ok := store.Paper(id)
		if !ok {
			return nil, fmt.Errorf("paper %d: %w", id, graph.ErrPaperNotFound)
		}
		return p, nil
	}

	p, ok := store.FindByTitle(arg)
	if !ok {
		return nil, fmt.Errorf("paper %q: %w", arg, graph.ErrPaperNotFound)
	}
	return p, nil
}
