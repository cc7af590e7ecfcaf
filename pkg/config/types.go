package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent bibweb configuration stored as
// config.toml in the .bibweb/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Storage StorageConfig `toml:"storage"`
	Assets  AssetsConfig  `toml:"assets"`
	Restore RestoreConfig `toml:"restore"`
	API     APIConfig     `toml:"api"`
	Events  EventsConfig  `toml:"events"`
	Backup  BackupConfig  `toml:"backup"`
}

// StorageConfig holds settings for the graph snapshot medium.
type StorageConfig struct {
	SnapshotPath string `toml:"snapshot_path,omitempty"`
	QuotaBytes   int64  `toml:"quota_bytes,omitempty"`
}

// AssetsConfig selects and configures the blob store.
type AssetsConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Path       string `toml:"path,omitempty"`
	DSN        string `toml:"dsn,omitempty"`
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
}

// RestoreConfig tunes position restoration after a load.
type RestoreConfig struct {
	FallbackDelay  Duration `toml:"fallback_delay,omitempty"`
	SettleDelay    Duration `toml:"settle_delay,omitempty"`
	SuppressWindow Duration `toml:"suppress_window,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig configures the graph change feed.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// BackupConfig configures scheduled backups while serving.
type BackupConfig struct {
	Schedule string `toml:"schedule,omitempty"`
	Dir      string `toml:"dir,omitempty"`
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func durationKey(name string, field func(c *Config) *Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if field(c).Duration == 0 {
				return ""
			}
			return field(c).String()
		},
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			field(c).Duration = d
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.snapshot_path": stringKey(func(c *Config) *string { return &c.Storage.SnapshotPath }),
	"storage.quota_bytes": {
		get: func(c *Config) string {
			if c.Storage.QuotaBytes == 0 {
				return ""
			}
			return strconv.FormatInt(c.Storage.QuotaBytes, 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for storage.quota_bytes: %w", err)
			}
			c.Storage.QuotaBytes = n
			return nil
		},
	},
	"assets.provider": {
		get: func(c *Config) string { return c.Assets.Provider },
		set: func(c *Config, v string) error {
			if !IsValidAssetProvider(v) {
				return fmt.Errorf("invalid value for assets.provider: %q (available: %s)", v, strings.Join(AssetProviders, ", "))
			}
			c.Assets.Provider = v
			return nil
		},
	},
	"assets.path":        stringKey(func(c *Config) *string { return &c.Assets.Path }),
	"assets.dsn":         stringKey(func(c *Config) *string { return &c.Assets.DSN }),
	"assets.s3_bucket":   stringKey(func(c *Config) *string { return &c.Assets.S3Bucket }),
	"assets.s3_region":   stringKey(func(c *Config) *string { return &c.Assets.S3Region }),
	"assets.s3_endpoint": stringKey(func(c *Config) *string { return &c.Assets.S3Endpoint }),
	"assets.s3_prefix":   stringKey(func(c *Config) *string { return &c.Assets.S3Prefix }),
	"restore.fallback_delay": durationKey("restore.fallback_delay", func(c *Config) *Duration {
		return &c.Restore.FallbackDelay
	}),
	"restore.settle_delay": durationKey("restore.settle_delay", func(c *Config) *Duration {
		return &c.Restore.SettleDelay
	}),
	"restore.suppress_window": durationKey("restore.suppress_window", func(c *Config) *Duration {
		return &c.Restore.SuppressWindow
	}),
	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error {
			if v != EventsNone && v != EventsKafka {
				return fmt.Errorf("invalid value for events.provider: %q (available: %s, %s)", v, EventsNone, EventsKafka)
			}
			c.Events.Provider = v
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for _, b := range strings.Split(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Events.Brokers = append(c.Events.Brokers, b)
				}
			}
			return nil
		},
	},
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
	"backup.schedule": stringKey(func(c *Config) *string { return &c.Backup.Schedule }),
	"backup.dir":      stringKey(func(c *Config) *string { return &c.Backup.Dir }),
}
