// Command register-export writes the approval register workbook to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/internal/config"
	"github.com/garyjia/legal-approval/internal/container"
	"github.com/garyjia/legal-approval/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (defaults and LEGAL_* env when empty)")
	outPath := flag.String("out", "approval-register.xlsx", "output workbook path")
	status := flag.String("status", "", "only include submissions in this status")
	flag.Parse()

	if err := run(*configPath, *outPath, *status); err != nil {
		fmt.Fprintf(os.Stderr, "register-export: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, outPath, status string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	if err := c.Services().Register.Export(ctx, f, status); err != nil {
		f.Close()
		os.Remove(outPath)
		return fmt.Errorf("export register: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	logger.Info("Register written", zap.String("path", outPath), zap.String("status", status))
	return nil
}
