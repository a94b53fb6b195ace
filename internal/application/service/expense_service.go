package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/application/workflow"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// ExpenseService serves the read side of the expense workflow. Every query
// is scoped to the principal's tenant.
type ExpenseService interface {
	// ListMine returns the caller's expenses in every status, newest first
	ListMine(ctx context.Context, p *entity.Principal) ([]*ExpenseView, error)

	// ListPendingApprovals returns SUBMITTED expenses of other users
	ListPendingApprovals(ctx context.Context, p *entity.Principal) ([]*ExpenseView, error)

	// ListAwaitingReimbursement returns APPROVED expenses
	ListAwaitingReimbursement(ctx context.Context, p *entity.Principal) ([]*ExpenseView, error)

	// ListApprovalHistory returns decided expenses, most recently updated first
	ListApprovalHistory(ctx context.Context, p *entity.Principal) ([]*ExpenseView, error)

	// Get returns one expense of the caller's tenant
	Get(ctx context.Context, p *entity.Principal, id string) (*ExpenseView, error)

	// History returns the audit trail of one expense, oldest first
	History(ctx context.Context, p *entity.Principal, id string) ([]*ApprovalView, error)

	// View assembles the client shape of an expense returned by the engine
	View(ctx context.Context, p *entity.Principal, e *entity.Expense) (*ExpenseView, error)
}

type expenseServiceImpl struct {
	expenses   port.ExpenseRepository
	events     port.ApprovalEventRepository
	users      port.UserRepository
	categories port.CategoryRepository
	logger     Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenses port.ExpenseRepository,
	events port.ApprovalEventRepository,
	users port.UserRepository,
	categories port.CategoryRepository,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenses:   expenses,
		events:     events,
		users:      users,
		categories: categories,
		logger:     orNop(logger),
	}
}

// ListMine returns the caller's expenses
func (s *expenseServiceImpl) ListMine(ctx context.Context, p *entity.Principal) ([]*ExpenseView, error) {
	if err := workflow.RequireActive(p); err != nil {
		return nil, err
	}
	list, err := s.expenses.ListByOwner(ctx, p.TenantID, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list own expenses: %w", err)
	}
	return s.assemble(ctx, p.TenantID, list), nil
}

// ListPendingApprovals returns SUBMITTED expenses awaiting a decision
func (s *expenseServiceImpl) ListPendingApprovals(ctx context.Context, p *entity.Principal) ([]*ExpenseView, error) {
	return s.listByStatus(ctx, p, workflow.ApproverRoles(),
		[]domainwf.State{domainwf.StateSubmitted},
		port.ListOptions{ExcludeOwnerID: principalID(p)})
}

// ListAwaitingReimbursement returns APPROVED expenses
func (s *expenseServiceImpl) ListAwaitingReimbursement(ctx context.Context, p *entity.Principal) ([]*ExpenseView, error) {
	return s.listByStatus(ctx, p, workflow.ReimburserRoles(),
		[]domainwf.State{domainwf.StateApproved},
		port.ListOptions{})
}

// ListApprovalHistory returns APPROVED, REJECTED and REIMBURSED expenses
func (s *expenseServiceImpl) ListApprovalHistory(ctx context.Context, p *entity.Principal) ([]*ExpenseView, error) {
	return s.listByStatus(ctx, p, workflow.ApproverRoles(),
		[]domainwf.State{domainwf.StateApproved, domainwf.StateRejected, domainwf.StateReimbursed},
		port.ListOptions{OrderByUpdated: true})
}

func (s *expenseServiceImpl) listByStatus(
	ctx context.Context,
	p *entity.Principal,
	roles []entity.Role,
	statuses []domainwf.State,
	opts port.ListOptions,
) ([]*ExpenseView, error) {
	if err := workflow.RequireActive(p); err != nil {
		return nil, err
	}
	if err := workflow.RequireRole(p, roles...); err != nil {
		return nil, err
	}

	list, err := s.expenses.ListByStatus(ctx, p.TenantID, statuses, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return s.assemble(ctx, p.TenantID, list), nil
}

// Get returns one expense of the caller's tenant
func (s *expenseServiceImpl) Get(ctx context.Context, p *entity.Principal, id string) (*ExpenseView, error) {
	if err := workflow.RequireActive(p); err != nil {
		return nil, err
	}
	exp, err := s.expenses.GetByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, p.TenantID, []*entity.Expense{exp})[0], nil
}

// History returns the audit trail of one expense
func (s *expenseServiceImpl) History(ctx context.Context, p *entity.Principal, id string) ([]*ApprovalView, error) {
	if err := workflow.RequireActive(p); err != nil {
		return nil, err
	}
	// The expense itself must be visible before its trail is
	if _, err := s.expenses.GetByID(ctx, p.TenantID, id); err != nil {
		return nil, err
	}

	events, err := s.events.ListByExpense(ctx, p.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval events: %w", err)
	}

	views := make([]*ApprovalView, len(events))
	for i, evt := range events {
		views[i] = newApprovalView(evt)
	}
	return views, nil
}

// View assembles the client shape of an expense
func (s *expenseServiceImpl) View(ctx context.Context, p *entity.Principal, e *entity.Expense) (*ExpenseView, error) {
	if err := workflow.RequireActive(p); err != nil {
		return nil, err
	}
	if e.TenantID != p.TenantID {
		return nil, fmt.Errorf("%w: expense %s", apperr.ErrNotFound, e.ID)
	}
	return s.assemble(ctx, p.TenantID, []*entity.Expense{e})[0], nil
}

// assemble resolves owner and category details once per distinct id.
// Lookup failures leave the display fields empty rather than failing the read.
func (s *expenseServiceImpl) assemble(ctx context.Context, tenantID string, list []*entity.Expense) []*ExpenseView {
	users := make(map[string]*entity.User)
	cats := make(map[string]*entity.Category)

	views := make([]*ExpenseView, 0, len(list))
	for _, e := range list {
		owner, ok := users[e.UserID]
		if !ok {
			owner = s.lookupUser(ctx, tenantID, e.UserID)
			users[e.UserID] = owner
		}
		cat, ok := cats[e.CategoryID]
		if !ok {
			cat = s.lookupCategory(ctx, tenantID, e.CategoryID)
			cats[e.CategoryID] = cat
		}
		views = append(views, newExpenseView(e, owner, cat))
	}
	return views
}

func (s *expenseServiceImpl) lookupUser(ctx context.Context, tenantID, id string) *entity.User {
	u, err := s.users.GetByID(ctx, tenantID, id)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Error("Failed to resolve expense owner", "tenant_id", tenantID, "user_id", id, "error", err)
		}
		return nil
	}
	return u
}

func (s *expenseServiceImpl) lookupCategory(ctx context.Context, tenantID, id string) *entity.Category {
	c, err := s.categories.GetByID(ctx, tenantID, id)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Error("Failed to resolve expense category", "tenant_id", tenantID, "category_id", id, "error", err)
		}
		return nil
	}
	return c
}

func principalID(p *entity.Principal) string {
	if p == nil {
		return ""
	}
	return p.UserID
}
