// Package servecmder provides the serve command, which runs the HTTP API
// over the workspace together with scheduled backups.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/api"
	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/backup"
	"github.com/Ben-Eze/BibWeb/pkg/config"
)

const backupsDir = "backups"

type serveCommander struct {
	listen         string
	backupSchedule string
	backupDir      string
	flags          *cmdutil.WorkspaceFlags
}

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagBackupSchedule,
	config.FlagBackupDir,
}

const serveLongDesc string = `Run the BibWeb API server.

Serves the graph, assets, import/export and notes over HTTP under /v1,
with /ping for health checks and /metrics for Prometheus. Canvases can
follow graph changes live on /v1/events (Server-Sent Events). The snapshot
file is watched, so edits made with other bibweb commands while the server
runs are picked up.

When backup.schedule is set (a cron spec such as "0 3 * * *" or
"@daily"), an export is written to backup.dir on that schedule. The
directory defaults to backups/ inside the .bibweb directory.

Examples:
  bibweb serve
  bibweb serve --listen :9000 --backup-schedule @hourly`

const serveShortDesc string = "Run the API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagBackupSchedule, &cmder.backupSchedule)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagBackupDir, &cmder.backupDir)
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	ws, err := cmdutil.Open(cmd, serveFlags...)
	if err != nil {
		return err
	}
	defer ws.Close()

	log := ws.Logger
	cfg := ws.Config

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Backup.Schedule != "" {
		dir := cfg.Backup.Dir
		if dir == "" {
			dir = filepath.Join(ws.ConfigDir, backupsDir)
		}
		scheduler, err := backup.New(&backup.Config{
			Schedule: cfg.Backup.Schedule,
			Dir:      dir,
			StateDir: ws.ConfigDir,
			Exporter: ws.Bundler,
			Logger:   log.Named("backup"),
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	apiServer := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, ws.Session, log)

	log.Info("starting api server",
		zap.String("api_addr", cfg.API.Listen),
		zap.String("workspace", ws.Dir),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	go func() {
		if err := ws.Watch(ctx); err != nil {
			errChan <- fmt.Errorf("watching snapshot: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	cancel()
	if err := apiServer.Shutdown(); err != nil {
		log.Warn("api server shutdown", zap.Error(err))
	}
	return nil
}
