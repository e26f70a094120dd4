package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix is prepended to every environment override, e.g. LEGAL_SERVER_PORT
const EnvPrefix = "LEGAL"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Directory DirectoryConfig `mapstructure:"directory"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// WorkflowConfig tunes the approval engine
type WorkflowConfig struct {
	// MaxRetries bounds re-evaluation after a concurrent writer bumped the version
	MaxRetries int `mapstructure:"max_retries"`
}

// DirectoryConfig lists the people offered as officers and approvers
type DirectoryConfig struct {
	Users []DirectoryUser `mapstructure:"users"`
}

// DirectoryUser is one selectable identity
type DirectoryUser struct {
	Name  string   `mapstructure:"name" json:"name"`
	Email string   `mapstructure:"email" json:"email"`
	Roles []string `mapstructure:"roles" json:"roles"`
}

// Load reads .env (when present), then the yaml file at configPath, then
// LEGAL_* environment overrides. An empty configPath uses defaults and env only.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key needs a default so
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	// Database defaults
	v.SetDefault("database.path", "data/legal.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Workflow defaults
	v.SetDefault("workflow.max_retries", 3)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Workflow.MaxRetries < 1 {
		return fmt.Errorf("workflow.max_retries must be at least 1")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console")
	}

	seen := make(map[string]bool, len(c.Directory.Users))
	for i, u := range c.Directory.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("directory.users[%d].email is required", i)
		}
		if seen[email] {
			return fmt.Errorf("directory.users[%d]: duplicate email %s", i, u.Email)
		}
		seen[email] = true
	}

	return nil
}
