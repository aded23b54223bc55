package config

import (
	"os"
	"strconv"
)

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TASKVAULT_DB"); v != "" {
		cfg.DBFile = v
	}
	if v := os.Getenv("TASKVAULT_BACKUP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.KeepBackup = b
		}
	}
	if v := os.Getenv("TASKVAULT_FILE_LOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.FileLock = b
		}
	}
	if v := os.Getenv("TASKVAULT_LOCK_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LockTimeoutSeconds = n
		}
	}
	if v := os.Getenv("TASKVAULT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKVAULT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}
