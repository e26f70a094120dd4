package config

import (
	"github.com/garyjia/legal-approval/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
func (c *Config) ToContainerConfig() *container.Config {
	directory := make([]container.DirectoryEntry, 0, len(c.Directory.Users))
	for _, u := range c.Directory.Users {
		directory = append(directory, container.DirectoryEntry{
			Name:  u.Name,
			Email: u.Email,
			Roles: u.Roles,
		})
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
		},
		Server: container.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			AllowedOrigins: c.Server.AllowedOrigins,
		},
		Workflow: container.WorkflowConfig{
			MaxRetries: c.Workflow.MaxRetries,
		},
		Directory: directory,
	}
}
