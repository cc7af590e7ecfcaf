// Package initcmder provides the init command for initializing a local
// .bibweb directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/pkg/config"
	"github.com/Ben-Eze/BibWeb/pkg/dotdir"
)

const (
	dirName = ".bibweb"
)

const initLongDesc string = `Initialize a new .bibweb/ directory in the current working directory.

Creates a local .bibweb/ directory that takes precedence over the default
~/.bibweb/ directory for the graph snapshot, assets, configuration and
backup state.

This is useful for keeping a separate paper web per project.

Use --preset to write a config.toml for a particular asset store:
  local    assets as files under .bibweb/assets (default)
  sqlite   assets in .bibweb/assets.db
  minio    assets in an S3 bucket on a local MinIO

Examples:
  bibweb init
  bibweb init --preset sqlite`

const initShortDesc string = "Initialize a local .bibweb/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Write a config.toml for a preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dir := filepath.Join(cwd, dirName)

	var preset *config.Config
	if c.preset != "" {
		preset, err = config.PresetConfig(c.preset)
		if err != nil {
			return err
		}
	}

	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()

	if !existed {
		dir, err = dotdir.NewManager().InitLocal()
		if err != nil {
			return fmt.Errorf("creating .bibweb directory: %w", err)
		}
	}

	if preset != nil {
		cfger, err := config.NewConfiger(dir)
		if err != nil {
			return err
		}
		if err := cfger.SaveConfig(preset); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s preset config: %s\n", c.preset, cfger.GetTarget())
	}

	if existed {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	}

	fmt.Fprintf(out, "Initialized .bibweb directory: %s\n", dir)
	return nil
}
