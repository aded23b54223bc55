package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.config/taskvault/taskvault.toml)
// 3. Project config file (taskvault.toml or .taskvault.toml in current directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if userFile := findUserConfigFile(); userFile != "" {
		if err := loadConfigFile(cfg, userFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userFile, err)
		}
	}

	if projFile := findProjectConfigFile(); projFile != "" {
		if err := loadConfigFile(cfg, projFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projFile, err)
		}
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.DBFile = DefaultDBFile
	cfg.KeepBackup = DefaultKeepBackup
	cfg.FileLock = DefaultFileLock
	cfg.LockTimeoutSeconds = DefaultLockTimeoutSeconds
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// loadConfigFile loads TOML config from the given file.
func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

// parseFlags registers global flags on fs and parses args into cfg.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.DBFile, "db", cfg.DBFile, "Path to the task database")
	fs.BoolVar(&cfg.KeepBackup, "backup", cfg.KeepBackup, "Keep a .bak copy of the previous generation")
	fs.BoolVar(&cfg.FileLock, "file-lock", cfg.FileLock, "Hold an advisory cross-process lock around file access")
	fs.IntVar(&cfg.LockTimeoutSeconds, "lock-timeout", cfg.LockTimeoutSeconds, "Lock acquisition timeout in seconds")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|json|logfmt)")
	return fs.Parse(args)
}

// finalizeConfig computes derived values and validates settings.
func finalizeConfig(cfg *Config) error {
	cfg.DBFile = expandPath(cfg.DBFile)

	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}

	if !filepath.IsAbs(cfg.DBFile) {
		cfg.DBFile = filepath.Join(cfg.ProjectRoot, cfg.DBFile)
	}

	if cfg.LockTimeoutSeconds <= 0 {
		return fmt.Errorf("lock_timeout_seconds must be positive, got %d", cfg.LockTimeoutSeconds)
	}
	return nil
}
