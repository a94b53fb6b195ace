package container

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/application/workflow"
)

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "container.db")
	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Auth.JWTSecret = ""
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.Ready())
	assert.False(t, c.Health().Overall)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start")

	health := c.Health()
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(ctx), "start after close")
}

func TestContainer_WiresEndToEnd(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	tenant, admin, err := c.Services().Tenant.Create(ctx, service.TenantInput{
		Name: "Acme", AdminEmail: "admin@acme.test", AdminName: "Ada",
	})
	require.NoError(t, err)

	token, err := c.TokenIssuer().Issue(admin)
	require.NoError(t, err)
	p, err := c.Identity().Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, p.TenantID)

	cats, err := c.Services().Category.ListActive(ctx, p)
	require.NoError(t, err)
	require.NotEmpty(t, cats)

	exp, err := c.Engine().Create(ctx, p, workflow.ExpenseInput{
		Title: "Printer ink", Amount: "42.10", CategoryID: cats[0].ID, ExpenseDate: "2026-10-01",
	})
	require.NoError(t, err)

	view, err := c.Services().Expense.Get(ctx, p, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, "42.10", view.Amount)
	assert.Equal(t, "Ada", view.UserName)
}

func TestLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a := NewLoggerAdapter(zap.New(core))

	a.Info("Expense approved", "expense_id", "e1", "version", 2, 42, "dropped")
	a.Error("Save failed", "error", errors.New("disk full"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]interface{}{"expense_id": "e1", "version": int64(2)}, entries[0].ContextMap())
	assert.Equal(t, "disk full", entries[1].ContextMap()["error"])
}
