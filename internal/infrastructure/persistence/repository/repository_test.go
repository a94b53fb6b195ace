package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/workflow"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-workflow/pkg/database"
)

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
)

var baseTime = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type repos struct {
	db         *sqlite.DB
	expenses   *ExpenseRepository
	events     *ApprovalEventRepository
	categories *CategoryRepository
	users      *UserRepository
	tenants    *TenantRepository
}

// newRepos opens a migrated database in a temp dir with two tenants, one
// user per role in tenant A, an outsider in tenant B and one category each
func newRepos(t *testing.T) *repos {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "expenses.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.NewMigrator(db, logger).RunMigrations()
	require.NoError(t, err)

	r := &repos{
		db:         sqlite.NewDB(db.DB, logger),
		expenses:   NewExpenseRepository(db.DB, logger),
		events:     NewApprovalEventRepository(db.DB, logger),
		categories: NewCategoryRepository(db.DB, logger),
		users:      NewUserRepository(db.DB, logger),
		tenants:    NewTenantRepository(db.DB, logger),
	}

	ctx := context.Background()
	for i, id := range []string{tenantA, tenantB} {
		require.NoError(t, r.tenants.Create(ctx, &entity.Tenant{
			ID: id, Name: "Tenant " + id, Slug: id, InviteCode: []string{"111111", "222222"}[i],
			Active: true, CreatedAt: baseTime,
		}))
		require.NoError(t, r.categories.Create(ctx, &entity.Category{
			ID: "cat-" + id, TenantID: id, Name: "Travel", Icon: "✈️", Active: true, CreatedAt: baseTime,
		}))
	}

	for _, u := range []struct {
		id, tenant string
		role       entity.Role
	}{
		{"u1", tenantA, entity.RoleEmployee},
		{"u2", tenantA, entity.RoleManager},
		{"u3", tenantA, entity.RoleFinance},
		{"u4", tenantA, entity.RoleAdmin},
		{"x1", tenantB, entity.RoleAdmin},
	} {
		require.NoError(t, r.users.Create(ctx, &entity.User{
			ID: u.id, TenantID: u.tenant, Email: u.id + "@example.com", Name: "U" + u.id[1:],
			Role: u.role, Active: true, CreatedAt: baseTime, UpdatedAt: baseTime,
		}))
	}
	return r
}

func (r *repos) principal(t *testing.T, id string) *entity.Principal {
	t.Helper()
	tenant := tenantA
	if id == "x1" {
		tenant = tenantB
	}
	u, err := r.users.GetByID(context.Background(), tenant, id)
	require.NoError(t, err)
	return u.Principal()
}

func draftExpense(id, owner string, created time.Time) *entity.Expense {
	return &entity.Expense{
		ID:          id,
		TenantID:    tenantA,
		UserID:      owner,
		CategoryID:  "cat-" + tenantA,
		Title:       "Expense " + id,
		AmountCents: 5000,
		ExpenseDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Status:      workflow.StateDraft,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}
