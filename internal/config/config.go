package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Task     TaskConfig     `mapstructure:"task"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// Backend selects the repository implementation: "postgres" for the
// persistent store, "memory" for the in-memory store used in tests and
// local development.
type DatabaseConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=postgres memory"`
	URL     string `mapstructure:"url" validate:"required_if=Backend postgres,omitempty,url"`
}

// TaskConfig contains the tunable business-rule settings for the task service.
type TaskConfig struct {
	// MaxOpenTasks caps how many pending tasks a single owner may hold.
	MaxOpenTasks int `mapstructure:"max_open_tasks" validate:"required,gt=0"`
}
