// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to engine and
// service calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/application/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Mode:            gin.ReleaseMode,
	}
}

// Dependencies are the application components the routes call
type Dependencies struct {
	Identity   port.IdentityProvider
	Engine     workflow.ExpenseEngine
	Expenses   service.ExpenseService
	Categories service.CategoryService
	Users      service.UserService
	Tenants    service.TenantService

	// Ready reports whether the backing components are usable; nil means always
	Ready func() bool
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given dependencies
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(s.logger))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")

	// Public
	api.GET("/auth/tenants", h.ListTenants)

	authed := api.Group("", authMiddleware(s.deps.Identity))
	{
		expenses := authed.Group("/expenses")
		expenses.GET("", h.ListMyExpenses)
		expenses.GET("/pending", h.ListPendingApprovals)
		expenses.GET("/approved", h.ListAwaitingReimbursement)
		expenses.GET("/approval-history", h.ListApprovalHistory)
		expenses.GET("/:id", h.GetExpense)
		expenses.GET("/:id/history", h.GetExpenseHistory)
		expenses.POST("", h.CreateExpense)
		expenses.PUT("/:id", h.UpdateExpense)
		expenses.POST("/:id/submit", h.SubmitExpense)
		expenses.POST("/:id/approve", h.ApproveExpense)
		expenses.POST("/:id/reject", h.RejectExpense)
		expenses.POST("/:id/reimburse", h.ReimburseExpense)
		expenses.DELETE("/:id", h.DeleteExpense)

		authed.GET("/categories", h.ListCategories)

		admin := authed.Group("/admin")
		admin.GET("/users", h.ListUsers)
		admin.PUT("/users/:id/role", h.UpdateUserRole)
		admin.POST("/users/:id/toggle-active", h.ToggleUserActive)
		admin.PUT("/users/:id/department", h.UpdateUserDepartment)
		admin.GET("/categories", h.ListAllCategories)
		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.POST("/categories/:id/toggle-active", h.ToggleCategoryActive)
		admin.GET("/tenant/invite-code", h.GetInviteCode)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "route not found", Code: "NOT_FOUND"})
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
