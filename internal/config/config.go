package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"     validate:"required"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper"  validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings. Token issuance lives in an
// external identity service; this application only verifies tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// JobsConfig controls the background job runner that delivers queued
// email and file-storage messages.
type JobsConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`
}

// StorageConfig controls where task attachments are stored.
type StorageConfig struct {
	Root string `mapstructure:"root" validate:"required"`
}

// SweeperConfig controls the daily overdue sweep.
type SweeperConfig struct {
	// Schedule is a cron expression for the daily run, e.g. "0 3 * * *".
	Schedule string `mapstructure:"schedule" validate:"required"`
	// Timezone pins the schedule to a location, e.g. "Europe/Berlin".
	Timezone string `mapstructure:"timezone" validate:"required"`
}
