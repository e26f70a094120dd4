// Package container provides dependency injection and lifecycle management
// for the legal approval service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Server configuration
	Server ServerConfig

	// Workflow engine configuration
	Workflow WorkflowConfig

	// Directory of selectable officers and approvers
	Directory []DirectoryEntry
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long a writer waits for the sqlite lock
	BusyTimeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// WorkflowConfig holds approval engine settings.
type WorkflowConfig struct {
	MaxRetries int
}

// DirectoryEntry is one person offered in officer and approver pickers.
type DirectoryEntry struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/legal.db",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Workflow: WorkflowConfig{
			MaxRetries: 3,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Workflow.MaxRetries < 1 {
		return fmt.Errorf("workflow.max_retries must be at least 1")
	}
	return nil
}
