// Package config handles configuration loading and defaults.
package config

// Default values.
const (
	DefaultDBFile             = ".taskvault.json"
	DefaultKeepBackup         = true
	DefaultFileLock           = true
	DefaultLockTimeoutSeconds = 10
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// Config holds the full configuration for taskvault.
type Config struct {
	// Path to the JSON task database.
	DBFile string `toml:"db_file"`

	// Keep a single-generation .bak sibling on every save.
	KeepBackup bool `toml:"keep_backup"`

	// Hold an advisory .lock sibling around loads and saves.
	FileLock bool `toml:"file_lock"`

	// Budget for lock acquisition, in seconds.
	LockTimeoutSeconds int `toml:"lock_timeout_seconds"`

	// Logging configuration
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}
