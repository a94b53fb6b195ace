// Command seed creates a demo tenant with one user per role and prints a
// bearer token for each of them as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/config"
	"github.com/garyjia/expense-workflow/internal/container"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

type seededUser struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  entity.Role `json:"role"`
	Token string      `json:"token"`
}

type seedResult struct {
	TenantID   string       `json:"tenant_id"`
	TenantSlug string       `json:"tenant_slug"`
	InviteCode string       `json:"invite_code"`
	Users      []seededUser `json:"users"`
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	name := flag.String("name", "Demo Company", "tenant name")
	domain := flag.String("domain", "demo.test", "email domain for the seeded users")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
		Service:    "seed",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	result, err := seed(cfg, logger, *name, *domain)
	if err != nil {
		logger.Error("Seeding failed", zap.Error(err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("Failed to write result", zap.Error(err))
		os.Exit(1)
	}
}

func seed(cfg *config.Config, logger *zap.Logger, name, domain string) (*seedResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	defer c.Close()

	services := c.Services()
	tenant, admin, err := services.Tenant.Create(ctx, service.TenantInput{
		Name:       name,
		AdminEmail: "admin@" + domain,
		AdminName:  "Admin",
	})
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	users := []*entity.User{admin}
	for _, in := range []service.UserInput{
		{Email: "manager@" + domain, Name: "Manager", Department: "Operations", Role: string(entity.RoleManager)},
		{Email: "finance@" + domain, Name: "Finance", Department: "Finance", Role: string(entity.RoleFinance)},
		{Email: "employee@" + domain, Name: "Employee", Department: "Sales", Role: string(entity.RoleEmployee)},
	} {
		u, err := services.User.Register(ctx, tenant.ID, in)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", in.Email, err)
		}
		users = append(users, u)
	}

	result := &seedResult{
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		InviteCode: tenant.InviteCode,
	}
	for _, u := range users {
		token, err := c.TokenIssuer().Issue(u)
		if err != nil {
			return nil, fmt.Errorf("issue token for %s: %w", u.Email, err)
		}
		result.Users = append(result.Users, seededUser{Email: u.Email, Name: u.Name, Role: u.Role, Token: token})
	}

	logger.Info("Tenant seeded",
		zap.String("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug),
		zap.Int("users", len(users)))
	return result, nil
}
