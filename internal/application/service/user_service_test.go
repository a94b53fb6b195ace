package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-workflow/internal/application/port/porttest"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

func newUserFixture(t *testing.T) (UserService, *entity.Principal, *entity.User) {
	t.Helper()
	store := porttest.NewStore()
	svc := NewUserService(store.Users(), store, nil)
	ctx := context.Background()

	adm, err := svc.Register(ctx, tenantA, UserInput{Email: "Ada@Example.com", Name: "Ada", Role: "ADMIN"})
	require.NoError(t, err)
	emp, err := svc.Register(ctx, tenantA, UserInput{Email: "erin@example.com", Name: "Erin", Role: "employee"})
	require.NoError(t, err)
	return svc, adm.Principal(), emp
}

func TestUserService_Register(t *testing.T) {
	svc, adm, emp := newUserFixture(t)
	ctx := context.Background()

	assert.Equal(t, entity.RoleEmployee, emp.Role)
	assert.True(t, emp.Active)

	users, err := svc.List(ctx, adm)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada@example.com", users[0].Email)

	_, err = svc.Register(ctx, tenantA, UserInput{Email: "ERIN@example.com", Name: "Dup", Role: "EMPLOYEE"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = svc.Register(ctx, tenantB, UserInput{Email: "erin@example.com", Name: "Erin B", Role: "EMPLOYEE"})
	assert.NoError(t, err, "emails are unique per tenant")

	_, err = svc.Register(ctx, tenantA, UserInput{Email: "bad", Name: "X", Role: "EMPLOYEE"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, tenantA, UserInput{Email: "root@example.com", Name: "Root", Role: "ROOT"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUserService_UpdateRole(t *testing.T) {
	svc, adm, emp := newUserFixture(t)
	ctx := context.Background()

	u, err := svc.UpdateRole(ctx, adm, emp.ID, "finance")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleFinance, u.Role)

	_, err = svc.UpdateRole(ctx, adm, adm.UserID, "EMPLOYEE")
	assert.ErrorIs(t, err, apperr.ErrForbidden, "self role change")

	_, err = svc.UpdateRole(ctx, adm, emp.ID, "OWNER")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateRole(ctx, emp.Principal(), adm.UserID, "EMPLOYEE")
	assert.ErrorIs(t, err, apperr.ErrForbidden, "non-admin")
}

func TestUserService_ToggleActive(t *testing.T) {
	svc, adm, emp := newUserFixture(t)
	ctx := context.Background()

	u, err := svc.ToggleActive(ctx, adm, emp.ID)
	require.NoError(t, err)
	assert.False(t, u.Active)

	u, err = svc.ToggleActive(ctx, adm, emp.ID)
	require.NoError(t, err)
	assert.True(t, u.Active)

	_, err = svc.ToggleActive(ctx, adm, adm.UserID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.ToggleActive(ctx, adm, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserService_UpdateDepartment(t *testing.T) {
	svc, adm, emp := newUserFixture(t)
	ctx := context.Background()

	u, err := svc.UpdateDepartment(ctx, adm, emp.ID, "  Finance Ops ")
	require.NoError(t, err)
	assert.Equal(t, "Finance Ops", u.Department)

	// Admins may change their own department
	_, err = svc.UpdateDepartment(ctx, adm, adm.UserID, "Leadership")
	assert.NoError(t, err)

	long := make([]byte, entity.DepartmentMaxLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.UpdateDepartment(ctx, adm, emp.ID, string(long))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
