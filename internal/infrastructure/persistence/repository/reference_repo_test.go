package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

func TestCategoryRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	err := r.categories.Create(ctx, &entity.Category{ID: "dup", TenantID: tenantA, Name: "TRAVEL", Active: true, CreatedAt: baseTime})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists, "names are unique ignoring case")

	meals := &entity.Category{ID: "meals", TenantID: tenantA, Name: "Meals", Icon: "🍽️", Active: true, CreatedAt: baseTime}
	require.NoError(t, r.categories.Create(ctx, meals))

	byName, err := r.categories.GetByName(ctx, tenantA, "meals")
	require.NoError(t, err)
	assert.Equal(t, "meals", byName.ID)

	_, err = r.categories.GetByID(ctx, tenantB, "meals")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	meals.Active = false
	require.NoError(t, r.categories.Update(ctx, meals))

	active, err := r.categories.List(ctx, tenantA, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Travel", active[0].Name)

	all, err := r.categories.List(ctx, tenantA, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := r.categories.Count(ctx, tenantA)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	meals.Name = "travel"
	assert.ErrorIs(t, r.categories.Update(ctx, meals), apperr.ErrAlreadyExists)

	ghost := &entity.Category{ID: "ghost", TenantID: tenantA, Name: "Ghost"}
	assert.ErrorIs(t, r.categories.Update(ctx, ghost), apperr.ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	u, err := r.users.GetByEmail(ctx, tenantA, "U1@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, entity.RoleEmployee, u.Role)

	_, err = r.users.GetByEmail(ctx, tenantB, "u1@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	dup := &entity.User{ID: "u9", TenantID: tenantA, Email: "u1@example.com", Name: "Dup", Role: entity.RoleEmployee, CreatedAt: baseTime, UpdatedAt: baseTime}
	assert.ErrorIs(t, r.users.Create(ctx, dup), apperr.ErrAlreadyExists)

	u.Role = entity.RoleManager
	u.Department = "Sales"
	u.Active = false
	require.NoError(t, r.users.Update(ctx, u))

	got, err := r.users.GetByID(ctx, tenantA, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleManager, got.Role)
	assert.Equal(t, "Sales", got.Department)
	assert.False(t, got.Active)

	list, err := r.users.List(ctx, tenantA)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	u.TenantID = tenantB
	assert.ErrorIs(t, r.users.Update(ctx, u), apperr.ErrNotFound)
}

func TestTenantRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	got, err := r.tenants.GetBySlug(ctx, tenantA)
	require.NoError(t, err)
	assert.Equal(t, "111111", got.InviteCode)

	_, err = r.tenants.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	taken, err := r.tenants.ExistsInviteCode(ctx, "222222")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = r.tenants.ExistsInviteCode(ctx, "999999")
	require.NoError(t, err)
	assert.False(t, taken)

	err = r.tenants.Create(ctx, &entity.Tenant{ID: "t3", Name: "Clash", Slug: tenantA, InviteCode: "333333", Active: true, CreatedAt: baseTime})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	require.NoError(t, r.tenants.Create(ctx, &entity.Tenant{ID: "t4", Name: "Dormant", Slug: "dormant", InviteCode: "444444", Active: false, CreatedAt: baseTime}))
	active, err := r.tenants.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
