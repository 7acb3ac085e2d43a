package config

import "time"

func loadTestConfig(cfg *Config) {
	cfg.DatabaseFilePath = ":memory:"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	cfg.PullInterval = 50 * time.Millisecond
	cfg.QueueSweepInterval = 50 * time.Millisecond
}
