package config

import "time"

// Asset store providers.
const (
	AssetsFS       = "fs"
	AssetsSQLite   = "sqlite"
	AssetsPostgres = "postgres"
	AssetsS3       = "s3"
)

// AssetProviders lists every supported assets.provider value.
var AssetProviders = []string{AssetsFS, AssetsSQLite, AssetsPostgres, AssetsS3}

// IsValidAssetProvider reports whether p is a supported assets.provider.
func IsValidAssetProvider(p string) bool {
	for _, known := range AssetProviders {
		if p == known {
			return true
		}
	}
	return false
}

// Event feed providers.
const (
	EventsNone  = "none"
	EventsKafka = "kafka"
)

const (
	defaultQuotaBytes     int64 = 5 << 20
	defaultAssetsProvider       = AssetsFS
	defaultS3Region             = "us-east-1"
	defaultFallbackDelay        = 500 * time.Millisecond
	defaultSettleDelay          = 100 * time.Millisecond
	defaultSuppressWindow       = time.Second
	defaultAPIListen            = ":8090"
	defaultEventsProvider       = EventsNone
	defaultEventsTopic          = "bibweb.graph"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. Paths left empty
// resolve inside the .bibweb/ directory.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			QuotaBytes: defaultQuotaBytes,
		},
		Assets: AssetsConfig{
			Provider: defaultAssetsProvider,
			S3Region: defaultS3Region,
		},
		Restore: RestoreConfig{
			FallbackDelay:  Duration{defaultFallbackDelay},
			SettleDelay:    Duration{defaultSettleDelay},
			SuppressWindow: Duration{defaultSuppressWindow},
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
