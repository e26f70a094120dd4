package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/internal/application/dispatcher"
	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/application/workflow"
	"github.com/garyjia/legal-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/legal-approval/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	conn         *database.DB
	db           *sqlite.DB
	repositories *workflow.Repositories

	// Application
	dispatcher dispatcher.Dispatcher
	workflow   workflow.WorkflowEngine
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database, migrations and repositories
// 2. Event dispatcher
// 3. Workflow engine
// 4. Application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Dispatcher: c.dispatcher,
		MaxRetries: c.config.Workflow.MaxRetries,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize workflow engine: %w", err)
	}
	c.workflow = engine
	c.logger.Info("Dispatcher and workflow engine initialized")

	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		Engine:     c.workflow,
		TxManager:  c.db,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Dispatcher closes before the database; async handlers still read from it
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	mark := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	switch {
	case c.conn == nil:
		mark("database", ComponentHealth{Message: "not initialized"})
	case c.closed.Load():
		mark("database", ComponentHealth{Message: "closed"})
	default:
		if err := c.conn.Ping(); err != nil {
			mark("database", ComponentHealth{Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			mark("database", ComponentHealth{Healthy: true})
		}
	}

	if c.dispatcher != nil {
		mark("dispatcher", ComponentHealth{Healthy: true})
	} else {
		mark("dispatcher", ComponentHealth{Message: "not initialized"})
	}

	if c.workflow != nil {
		mark("workflow", ComponentHealth{Healthy: true})
	} else {
		mark("workflow", ComponentHealth{Message: "not initialized"})
	}

	return status
}

func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.conn = bundle.Conn
	c.db = bundle.TransactionMgr

	repos, err := ProvideRepositories(bundle.SqlDB, c.logger)
	if err != nil {
		c.conn.Close()
		return err
	}

	c.repositories = repos
	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *workflow.Repositories {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() workflow.WorkflowEngine {
	return c.workflow
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Directory returns the configured officer and approver directory.
func (c *Container) Directory() []DirectoryEntry {
	return c.config.Directory
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// NewLoggerAdapter wraps zap for packages that take the key-value Logger interface.
func NewLoggerAdapter(logger *zap.Logger) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{logger: logger}
}

// ZapLoggerAdapter adapts zap.Logger to the Info/Error key-value logger
// interfaces used by the application packages.
type ZapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *ZapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *ZapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
