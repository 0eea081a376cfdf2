// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every variable read by Load.
const EnvPrefix = "PANTRY"

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Cloud   CloudConfig
	Remote  RemoteConfig
}

type AppConfig struct {
	HTTPPort    string `envconfig:"PANTRY_HTTP_PORT" default:"7101"`
	LogLevel    string `envconfig:"PANTRY_LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"PANTRY_LOG_FORMAT" default:"json"`
	CatalogFile string `envconfig:"PANTRY_CATALOG_FILE"`
}

// StorageConfig selects the persistence boundary. A Redis URL wins over the data directory.
type StorageConfig struct {
	DataDir  string `envconfig:"PANTRY_DATA_DIR" default:"./data"`
	RedisURL string `envconfig:"PANTRY_REDIS_URL"`
	StateKey string `envconfig:"PANTRY_STATE_KEY" default:"pantry_global_v1"`
	// SealKey is a 32 byte AES key; when set the persisted blob is encrypted.
	SealKey string `envconfig:"PANTRY_SEAL_KEY"`
}

// CloudConfig seeds the sync settings of a freshly initialised state.
type CloudConfig struct {
	Endpoint      string `envconfig:"PANTRY_CLOUD_ENDPOINT" default:"http://localhost:7102/rest/v1"`
	CredentialKey string `envconfig:"PANTRY_CLOUD_KEY"`
}

// RemoteConfig configures the reference app_state server.
type RemoteConfig struct {
	HTTPPort    string `envconfig:"PANTRY_REMOTE_HTTP_PORT" default:"7102"`
	BasePath    string `envconfig:"PANTRY_REMOTE_BASE_PATH" default:"/rest/v1"`
	APIKey      string `envconfig:"PANTRY_REMOTE_API_KEY"`
	DBDriver    string `envconfig:"PANTRY_REMOTE_DB_DRIVER" default:"memory"`
	DSN         string `envconfig:"PANTRY_REMOTE_DSN"`
	AutoMigrate bool   `envconfig:"PANTRY_REMOTE_AUTO_MIGRATE" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.SealKey != "" && len(c.Storage.SealKey) != 32 {
		return fmt.Errorf("%s_SEAL_KEY must be 32 bytes, got %d", EnvPrefix, len(c.Storage.SealKey))
	}
	c.Remote.DBDriver = strings.ToLower(c.Remote.DBDriver)
	switch c.Remote.DBDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported %s_REMOTE_DB_DRIVER %q", EnvPrefix, c.Remote.DBDriver)
	}
	if c.Remote.DBDriver != "memory" && c.Remote.DSN == "" {
		return fmt.Errorf("%s_REMOTE_DSN is required for driver %s", EnvPrefix, c.Remote.DBDriver)
	}
	c.Cloud.Endpoint = strings.TrimRight(c.Cloud.Endpoint, "/")
	return nil
}
