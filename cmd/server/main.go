package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/internal/config"
	"github.com/garyjia/legal-approval/internal/container"
	httpapi "github.com/garyjia/legal-approval/internal/interfaces/http"
	"github.com/garyjia/legal-approval/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(resolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Legal Approval Service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container shutdown error", zap.Error(err))
		}
	}()

	services := c.Services()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, httpapi.Dependencies{
		Submissions: services.Submissions,
		Register:    services.Register,
		Engine:      c.WorkflowEngine(),
		Directory:   c.Directory(),
		Health:      c,
	}, container.NewLoggerAdapter(logger))

	// Blocks until SIGINT/SIGTERM
	if err := server.Start(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Server exited successfully")
}

// resolveConfigPath falls back to defaults and environment when the
// default config file is absent.
func resolveConfigPath(path string) string {
	if path != defaultConfigPath {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}
