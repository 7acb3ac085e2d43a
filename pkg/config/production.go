package config

import (
	"os"
	"path/filepath"
)

func loadProductionConfig(cfg *Config) {
	dataDir := os.Getenv("DATA_DIRECTORY")
	if dataDir == "" {
		dataDir = "/data"
	}

	cfg.DatabaseFilePath = filepath.Join(dataDir, "data.sqlite")
	cfg.CloudTokenPath = filepath.Join(dataDir, "cloud-token")
	cfg.ServerHost = "0.0.0.0"
}
