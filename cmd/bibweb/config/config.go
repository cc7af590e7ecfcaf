// Package configcmder provides the config command for managing persistent
// bibweb configuration stored in the .bibweb/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/config"
)

const configLongDesc string = `Manage persistent bibweb configuration.

Configuration is stored as config.toml in the .bibweb/ directory and provides
default values for command flags. CLI flags and BIBWEB_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.snapshot_path, storage.quota_bytes,
  assets.provider, assets.path, assets.dsn,
  assets.s3_bucket, assets.s3_region, assets.s3_endpoint, assets.s3_prefix,
  restore.fallback_delay, restore.settle_delay, restore.suppress_window,
  api.listen, events.provider, events.brokers, events.topic,
  backup.schedule, backup.dir

Use subcommands to get, set, or list configuration values:
  bibweb config set <key> <value>    Set a configuration value
  bibweb config get <key>            Get a configuration value
  bibweb config list                 List all configuration values

Examples:
  bibweb config set assets.provider sqlite
  bibweb config set backup.schedule "@daily"
  bibweb config get api.listen
  bibweb config list`

const configShortDesc string = "Manage persistent bibweb configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
