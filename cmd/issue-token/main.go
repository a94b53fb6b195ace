// Command issue-token mints a bearer token for an existing user.
//
//	issue-token -tenant acme-corp -email ada@acme.test
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/config"
	"github.com/garyjia/expense-workflow/internal/container"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	tenantSlug := flag.String("tenant", "", "tenant slug")
	email := flag.String("email", "", "user email")
	flag.Parse()

	if *tenantSlug == "" || *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the token
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
		Service:    "issue-token",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	token, err := issue(cfg, logger, *tenantSlug, *email)
	if err != nil {
		logger.Error("Failed to issue token", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(token)
}

func issue(cfg *config.Config, logger *zap.Logger, tenantSlug, email string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return "", err
	}
	if err := c.Start(ctx); err != nil {
		return "", err
	}
	defer c.Close()

	repos := c.Repositories()
	tenant, err := repos.Tenant.GetBySlug(ctx, strings.TrimSpace(tenantSlug))
	if err != nil {
		return "", fmt.Errorf("tenant %q: %w", tenantSlug, err)
	}

	user, err := repos.User.GetByEmail(ctx, tenant.ID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("user %q: %w", email, err)
	}
	if !user.Active {
		return "", fmt.Errorf("user %q is inactive", email)
	}

	logger.Info("Issuing token",
		zap.String("tenant_id", tenant.ID),
		zap.String("user_id", user.ID),
		zap.String("role", user.Role.String()))

	return c.TokenIssuer().Issue(user)
}
