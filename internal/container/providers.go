package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/dispatcher"
	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/application/workflow"
	"github.com/garyjia/expense-workflow/internal/infrastructure/auth"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-workflow/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database, runs pending embedded migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if _, err := database.NewMigrator(db, logger).RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Expense:       repository.NewExpenseRepository(db.DB, logger),
		ApprovalEvent: repository.NewApprovalEventRepository(db.DB, logger),
		Category:      repository.NewCategoryRepository(db.DB, logger),
		User:          repository.NewUserRepository(db.DB, logger),
		Tenant:        repository.NewTenantRepository(db.DB, logger),
	}, nil
}

// ProvideIdentity creates the JWT identity provider and token issuer.
func ProvideIdentity(cfg *AuthConfig, users port.UserRepository, logger *zap.Logger) (*auth.JWTProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}
	provider, err := auth.NewJWTProvider(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.Issuer,
		TokenTTL: cfg.TokenTTL,
	}, users, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity provider: %w", err)
	}
	return provider, nil
}

// ProvideDispatcher creates the event dispatcher with the activity log subscribed.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	adapter := &LoggerAdapter{logger: logger.Named("dispatcher")}
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(adapter))
	dispatcher.RegisterActivityLog(d, &LoggerAdapter{logger: logger.Named("activity")})
	return d, nil
}

// WorkflowDeps holds dependencies for the expense engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
}

// ProvideWorkflowEngine creates the expense engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.ExpenseEngine, error) {
	if deps == nil || deps.Repos == nil || deps.TxManager == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}

	var opts []workflow.EngineOption
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}

	return workflow.NewEngine(
		deps.Repos.Expense,
		deps.Repos.ApprovalEvent,
		deps.Repos.Category,
		deps.TxManager,
		opts...,
	), nil
}

// ServiceDeps holds dependencies for the application services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil || deps.TxManager == nil || deps.Logger == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}

	repos := deps.Repos
	log := &LoggerAdapter{logger: deps.Logger.Named("service")}

	categories := service.NewCategoryService(repos.Category, deps.TxManager, log)
	users := service.NewUserService(repos.User, deps.TxManager, log)

	return &ServiceBundle{
		Expense:  service.NewExpenseService(repos.Expense, repos.ApprovalEvent, repos.User, repos.Category, log),
		Category: categories,
		User:     users,
		Tenant:   service.NewTenantService(repos.Tenant, users, categories, deps.TxManager, log),
	}, nil
}
