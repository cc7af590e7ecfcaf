package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands.
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag and BindRegisteredFlags to
// avoid typos or drift from one command to another.
const (
	FlagSnapshot       = "snapshot"
	FlagQuota          = "quota"
	FlagAssetsProvider = "assets-provider"
	FlagAssetsPath     = "assets-path"
	FlagAssetsDSN      = "assets-dsn"
	FlagS3Bucket       = "s3-bucket"
	FlagS3Endpoint     = "s3-endpoint"
	FlagAPIListen      = "listen"
	FlagEventsProvider = "events-provider"
	FlagBackupSchedule = "backup-schedule"
	FlagBackupDir      = "backup-dir"
)

// DefaultFlags is the flag registry shared by every bibweb command.
var DefaultFlags = FlagSet{
	FlagSnapshot: {
		Name:        "snapshot",
		ViperKey:    "storage.snapshot_path",
		Description: "Path to the graph snapshot file (defaults to web.json in the .bibweb dir)",
	},
	FlagQuota: {
		Name:        "quota",
		ViperKey:    "storage.quota_bytes",
		Description: "Byte quota of the snapshot medium",
	},
	FlagAssetsProvider: {
		Name:        "assets-provider",
		ViperKey:    "assets.provider",
		Description: "Asset store provider (fs, sqlite, postgres, s3)",
	},
	FlagAssetsPath: {
		Name:        "assets-path",
		ViperKey:    "assets.path",
		Description: "Directory (fs) or database file (sqlite) for assets",
	},
	FlagAssetsDSN: {
		Name:        "assets-dsn",
		ViperKey:    "assets.dsn",
		Description: "PostgreSQL connection string for assets",
	},
	FlagS3Bucket: {
		Name:        "s3-bucket",
		ViperKey:    "assets.s3_bucket",
		Description: "S3 bucket for assets",
	},
	FlagS3Endpoint: {
		Name:        "s3-endpoint",
		ViperKey:    "assets.s3_endpoint",
		Description: "Custom S3 endpoint (e.g. MinIO)",
	},
	FlagAPIListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	FlagEventsProvider: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Graph change feed (none, kafka)",
	},
	FlagBackupSchedule: {
		Name:        "backup-schedule",
		ViperKey:    "backup.schedule",
		Description: "Cron schedule for automatic backups while serving",
	},
	FlagBackupDir: {
		Name:        "backup-dir",
		ViperKey:    "backup.dir",
		Description: "Directory scheduled backups are written to",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddInt64Flag registers an int64 flag on cmd from the given FlagSet.
func AddInt64Flag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultInt64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Int64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Int64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultInt64 returns the default int64 value for a viper key from NewDefaultConfig.
func defaultInt64(viperKey string) int64 {
	v := viper.New()
	setViperDefaults(v)
	return v.GetInt64(viperKey)
}
