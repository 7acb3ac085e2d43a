package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	Hostname                  string        `koanf:"-"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`

	// Cloud sync settings. Sync stays fully off unless CloudSyncEnabled is
	// set and a token is present at CloudTokenPath.
	CloudEndpoint      string        `koanf:"cloud_endpoint"`
	CloudSyncEnabled   bool          `koanf:"cloud_sync_enabled"`
	CloudTokenPath     string        `koanf:"cloud_token_path"`
	PullInterval       time.Duration `koanf:"pull_interval"`
	QueueSweepInterval time.Duration `koanf:"queue_sweep_interval"`
}

const (
	environmentENV = "ENVIRONMENT"
	configFileENV  = "CONFIG_FILE"
	envPrefix      = "RST_"
)

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseBusyTimeout:       5 * time.Second,
		Hostname:                  hostname,
		ServerPort:                3689,
		PullInterval:              5 * time.Minute,
		QueueSweepInterval:        time.Minute,
	}

	switch os.Getenv(environmentENV) {
	case "development", "":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	case "production":
		loadProductionConfig(cfg)
	}

	if err := loadOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadOverrides layers an optional YAML config file and RST_-prefixed
// environment variables over the environment defaults.
func loadOverrides(cfg *Config) error {
	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return errors.Wrap(err, "failed to load config file")
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
