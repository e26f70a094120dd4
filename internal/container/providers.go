package container

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/internal/application/dispatcher"
	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/application/service"
	"github.com/garyjia/legal-approval/internal/application/workflow"
	"github.com/garyjia/legal-approval/internal/domain/event"
	"github.com/garyjia/legal-approval/internal/infrastructure/export"
	"github.com/garyjia/legal-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/legal-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/legal-approval/migrations"
	"github.com/garyjia/legal-approval/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the sqlite file, applies the embedded migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if _, err := database.NewMigrator(conn, logger).Run(migrations.FS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Conn:           conn,
		SqlDB:          conn.DB,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*workflow.Repositories, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &workflow.Repositories{
		Submissions: repository.NewSubmissionRepository(sqlDB, logger),
		Records:     repository.NewApprovalRecordRepository(sqlDB, logger),
		Specials:    repository.NewSpecialApproverRepository(sqlDB, logger),
		Events:      repository.NewEventRepository(sqlDB, logger),
		Comments:    repository.NewCommentRepository(sqlDB, logger),
		Documents:   repository.NewDocumentRepository(sqlDB, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher with the audit subscriber attached.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	disp := dispatcher.NewDispatcher(
		dispatcher.WithLogger(&ZapLoggerAdapter{logger: logger.Named("dispatcher")}),
	)
	disp.SubscribeAll("audit_log", auditLogHandler(logger.Named("audit")))

	return disp, nil
}

// auditLogHandler writes every committed transition to the audit logger
func auditLogHandler(logger *zap.Logger) dispatcher.Handler {
	return func(_ context.Context, evt *event.Event) error {
		logger.Info("Submission event",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type.String()),
			zap.Int64("submission_id", evt.SubmissionID),
			zap.String("correlation_id", evt.CorrelationID),
			zap.String("from_status", evt.GetPayloadString("from_status")),
			zap.String("to_status", evt.GetPayloadString("to_status")),
			zap.String("actor_email", evt.GetPayloadString("actor_email")),
		)
		return nil
	}
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *workflow.Repositories
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	MaxRetries int
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the approval engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []workflow.EngineOption{
		workflow.WithLogger(&ZapLoggerAdapter{logger: deps.Logger.Named("workflow")}),
		workflow.WithMaxRetries(deps.MaxRetries),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}

	return workflow.NewEngine(*deps.Repos, deps.TxManager, opts...), nil
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Submissions service.SubmissionService
	Register    service.RegisterService
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *workflow.Repositories
	Engine     workflow.WorkflowEngine
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates the submission and register services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil || deps.Engine == nil || deps.TxManager == nil {
		return nil, fmt.Errorf("repositories, engine and transaction manager are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &ZapLoggerAdapter{logger: deps.Logger.Named("service")}

	return &ServiceBundle{
		Submissions: service.NewSubmissionService(*deps.Repos, deps.Engine, deps.TxManager, deps.Dispatcher, serviceLogger),
		Register: service.NewRegisterService(
			deps.Repos.Submissions,
			deps.Repos.Records,
			export.NewRegisterXLSXWriter(deps.Logger.Named("export")),
			serviceLogger,
		),
	}, nil
}
