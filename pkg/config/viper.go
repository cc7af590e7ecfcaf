package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Ben-Eze/BibWeb/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the BIBWEB_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (BIBWEB_API_LISTEN, BIBWEB_ASSETS_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("BIBWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.snapshot_path", d.Storage.SnapshotPath)
	v.SetDefault("storage.quota_bytes", d.Storage.QuotaBytes)

	// Assets
	v.SetDefault("assets.provider", d.Assets.Provider)
	v.SetDefault("assets.path", d.Assets.Path)
	v.SetDefault("assets.dsn", d.Assets.DSN)
	v.SetDefault("assets.s3_bucket", d.Assets.S3Bucket)
	v.SetDefault("assets.s3_region", d.Assets.S3Region)
	v.SetDefault("assets.s3_endpoint", d.Assets.S3Endpoint)
	v.SetDefault("assets.s3_prefix", d.Assets.S3Prefix)

	// Restore
	v.SetDefault("restore.fallback_delay", d.Restore.FallbackDelay.Duration)
	v.SetDefault("restore.settle_delay", d.Restore.SettleDelay.Duration)
	v.SetDefault("restore.suppress_window", d.Restore.SuppressWindow.Duration)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// Backup
	v.SetDefault("backup.schedule", d.Backup.Schedule)
	v.SetDefault("backup.dir", d.Backup.Dir)
}

// FromViper assembles a Config from the resolved viper values.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			SnapshotPath: v.GetString("storage.snapshot_path"),
			QuotaBytes:   v.GetInt64("storage.quota_bytes"),
		},
		Assets: AssetsConfig{
			Provider:   v.GetString("assets.provider"),
			Path:       v.GetString("assets.path"),
			DSN:        v.GetString("assets.dsn"),
			S3Bucket:   v.GetString("assets.s3_bucket"),
			S3Region:   v.GetString("assets.s3_region"),
			S3Endpoint: v.GetString("assets.s3_endpoint"),
			S3Prefix:   v.GetString("assets.s3_prefix"),
		},
		Restore: RestoreConfig{
			FallbackDelay:  Duration{v.GetDuration("restore.fallback_delay")},
			SettleDelay:    Duration{v.GetDuration("restore.settle_delay")},
			SuppressWindow: Duration{v.GetDuration("restore.suppress_window")},
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetStringSlice("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		Backup: BackupConfig{
			Schedule: v.GetString("backup.schedule"),
			Dir:      v.GetString("backup.dir"),
		},
	}
}
