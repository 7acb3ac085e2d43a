package config

import (
	"os"
	"strconv"
)

func loadDevelopmentConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	cfg.DatabaseDebug = true
	cfg.DatabaseFilePath = "./tmp/data.sqlite"
	cfg.ServerHost = "127.0.0.1"
	cfg.CloudEndpoint = "http://localhost:7070"
	cfg.CloudTokenPath = "./tmp/cloud-token"
}
