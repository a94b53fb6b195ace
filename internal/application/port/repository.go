package port

import (
	"context"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// Every lookup below takes the tenant id as a mandatory argument. A row that
// belongs to another tenant is reported exactly like a missing row,
// apperr.ErrNotFound.

// ListOptions narrows ExpenseRepository.ListByStatus
type ListOptions struct {
	// ExcludeOwnerID drops expenses owned by this user
	ExcludeOwnerID string
	// OrderByUpdated sorts by last update instead of creation, newest first
	OrderByUpdated bool
}

// ExpenseRepository defines persistence operations for Expense
type ExpenseRepository interface {
	// Create inserts a new expense. Version is set to 1.
	Create(ctx context.Context, expense *entity.Expense) error

	// GetByID returns apperr.ErrNotFound when absent in tenantID
	GetByID(ctx context.Context, tenantID, id string) (*entity.Expense, error)

	// ListByOwner returns the owner's expenses, newest first
	ListByOwner(ctx context.Context, tenantID, userID string) ([]*entity.Expense, error)

	// ListByStatus returns expenses in any of statuses
	ListByStatus(ctx context.Context, tenantID string, statuses []workflow.State, opts ListOptions) ([]*entity.Expense, error)

	// Update writes expense if the stored version still equals expense.Version,
	// then increments expense.Version. A stale version yields apperr.ErrConflict.
	Update(ctx context.Context, expense *entity.Expense) error

	// Delete removes the expense at the given version
	Delete(ctx context.Context, tenantID, id string, version int64) error
}

// ApprovalEventRepository defines the append-only audit trail
type ApprovalEventRepository interface {
	Append(ctx context.Context, evt *entity.ApprovalEvent) error

	// ListByExpense returns events oldest first
	ListByExpense(ctx context.Context, tenantID, expenseID string) ([]*entity.ApprovalEvent, error)
}

// CategoryRepository defines persistence operations for Category
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Category, error)
	GetByName(ctx context.Context, tenantID, name string) (*entity.Category, error)
	List(ctx context.Context, tenantID string, includeInactive bool) ([]*entity.Category, error)
	Count(ctx context.Context, tenantID string) (int, error)
	Update(ctx context.Context, category *entity.Category) error
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*entity.User, error)
	List(ctx context.Context, tenantID string) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}

// TenantRepository defines persistence operations for Tenant.
// Tenants are the isolation root, so their lookups are not tenant-scoped.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)
	ExistsInviteCode(ctx context.Context, code string) (bool, error)
	ListActive(ctx context.Context) ([]*entity.Tenant, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
