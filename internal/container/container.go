package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/dispatcher"
	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/application/workflow"
	"github.com/garyjia/expense-workflow/internal/infrastructure/auth"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-workflow/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	db           *database.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Identity
	identity *auth.JWTProvider

	// Application
	dispatcher dispatcher.Dispatcher
	engine     workflow.ExpenseEngine
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Expense       port.ExpenseRepository
	ApprovalEvent port.ApprovalEventRepository
	Category      port.CategoryRepository
	User          port.UserRepository
	Tenant        port.TenantRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Expense  service.ExpenseService
	Category service.CategoryService
	User     service.UserService
	Tenant   service.TenantService
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

// Start initializes all components in dependency order:
// 1. Database, migrations and repositories
// 2. Identity provider
// 3. Event dispatcher and expense engine
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

	if err := c.initIdentity(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	c.logger.Info("Identity provider initialized")

	if err := c.initDispatcherAndWorkflow(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher and workflow: %w", err)
	}
	c.logger.Info("Dispatcher and expense engine initialized")

	if err := c.initServices(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
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

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if err := c.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
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
	notInitialized := ComponentHealth{Healthy: false, Message: "not initialized"}

	switch {
	case c.db == nil:
		mark("database", notInitialized)
	default:
		if err := c.db.Ping(); err != nil {
			mark("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			mark("database", ComponentHealth{Healthy: true})
		}
	}

	if c.dispatcher != nil {
		mark("dispatcher", ComponentHealth{Healthy: true})
	} else {
		mark("dispatcher", notInitialized)
	}

	if c.repositories != nil && c.services != nil {
		mark("services", ComponentHealth{Healthy: true})
	} else {
		mark("services", notInitialized)
	}

	return status
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.txManager = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}
	c.repositories = repos
	return nil
}

// initIdentity creates the token verifier over the user repository.
func (c *Container) initIdentity() error {
	identity, err := ProvideIdentity(&c.config.Auth, c.repositories.User, c.logger.Named("auth"))
	if err != nil {
		return err
	}
	c.identity = identity
	return nil
}

// initDispatcherAndWorkflow initializes the event dispatcher and expense engine.
func (c *Container) initDispatcherAndWorkflow() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:      c.repositories,
		TxManager:  c.txManager,
		Dispatcher: c.dispatcher,
	})
	if err != nil {
		return err
	}
	c.engine = engine
	return nil
}

// initServices initializes all application services using providers.
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.txManager,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) closeDatabase() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
	c.db = nil
	return err
}

// Getters for accessing container components

// TransactionManager returns the transaction manager.
func (c *Container) TransactionManager() port.TransactionManager {
	return c.txManager
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Identity returns the identity provider.
func (c *Container) Identity() port.IdentityProvider {
	return c.identity
}

// TokenIssuer returns the token issuer.
func (c *Container) TokenIssuer() port.TokenIssuer {
	return c.identity
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Engine returns the expense workflow engine.
func (c *Container) Engine() workflow.ExpenseEngine {
	return c.engine
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// LoggerAdapter adapts zap.Logger to the narrow Info/Error logger
// interfaces of the service, dispatcher and http packages.
type LoggerAdapter struct {
	logger *zap.Logger
}

// NewLoggerAdapter wraps logger for packages that take key/value loggers.
func NewLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{logger: logger}
}

func (a *LoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *LoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
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
