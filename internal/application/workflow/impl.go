package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/garyjia/expense-workflow/internal/application/dispatcher"
	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/event"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// engineImpl is the concrete implementation of ExpenseEngine. It holds no
// per-expense state; a fresh state machine is built from every loaded record.
type engineImpl struct {
	expenses   port.ExpenseRepository
	events     port.ApprovalEventRepository
	categories port.CategoryRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	validate   *validator.Validate
	now        func() time.Time
	newID      func() string
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for post-commit notifications
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// WithIDGenerator overrides id generation for new records
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *engineImpl) {
		e.newID = newID
	}
}

// NewEngine creates a new expense workflow engine
func NewEngine(
	expenses port.ExpenseRepository,
	events port.ApprovalEventRepository,
	categories port.CategoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) ExpenseEngine {
	e := &engineImpl{
		expenses:   expenses,
		events:     events,
		categories: categories,
		txManager:  txManager,
		validate:   newValidator(),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create stores a new DRAFT expense owned by p
func (e *engineImpl) Create(ctx context.Context, p *entity.Principal, in ExpenseInput) (*entity.Expense, error) {
	if err := RequireActive(p); err != nil {
		return nil, err
	}
	fields, err := e.parseInput(in)
	if err != nil {
		return nil, err
	}

	now := e.now()
	exp := &entity.Expense{
		ID:        e.newID(),
		TenantID:  p.TenantID,
		UserID:    p.UserID,
		Status:    domainwf.StateDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.applyTo(exp)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.checkCategory(txCtx, p.TenantID, fields.categoryID); err != nil {
			return err
		}
		if err := e.expenses.Create(txCtx, exp); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, event.TypeExpenseCreated, p, exp)
	return exp.Clone(), nil
}

// Update replaces the editable fields of a DRAFT or REJECTED expense
func (e *engineImpl) Update(ctx context.Context, p *entity.Principal, id string, in ExpenseInput) (*entity.Expense, error) {
	if err := RequireActive(p); err != nil {
		return nil, err
	}
	fields, err := e.parseInput(in)
	if err != nil {
		return nil, err
	}

	return e.transition(ctx, p, id, domainwf.TriggerUpdate, event.TypeExpenseUpdated,
		func(txCtx context.Context, exp *entity.Expense, _ time.Time) (*entity.ApprovalEvent, error) {
			if fields.categoryID != exp.CategoryID {
				if err := e.checkCategory(txCtx, p.TenantID, fields.categoryID); err != nil {
					return nil, err
				}
			}
			fields.applyTo(exp)
			exp.Reopen()
			return nil, nil
		})
}

// Submit moves a DRAFT expense to SUBMITTED
func (e *engineImpl) Submit(ctx context.Context, p *entity.Principal, id string) (*entity.Expense, error) {
	if err := RequireActive(p); err != nil {
		return nil, err
	}

	return e.transition(ctx, p, id, domainwf.TriggerSubmit, event.TypeExpenseSubmitted,
		func(_ context.Context, exp *entity.Expense, now time.Time) (*entity.ApprovalEvent, error) {
			exp.SubmittedAt = &now
			return e.auditEntry(p, exp, entity.ActionSubmitted, "", now), nil
		})
}

// Approve moves a SUBMITTED expense to APPROVED and snapshots the approver
func (e *engineImpl) Approve(ctx context.Context, p *entity.Principal, id string) (*entity.Expense, error) {
	if err := RequireActive(p); err != nil {
		return nil, err
	}

	return e.transition(ctx, p, id, domainwf.TriggerApprove, event.TypeExpenseApproved,
		func(_ context.Context, exp *entity.Expense, now time.Time) (*entity.ApprovalEvent, error) {
			exp.ApprovedAt = &now
			exp.ApprovedByID = p.UserID
			exp.ApprovedByName = p.Name
			return e.auditEntry(p, exp, entity.ActionApproved, "", now), nil
		})
}

// Reject moves a SUBMITTED expense to REJECTED and records the reason
func (e *engineImpl) Reject(ctx context.Context, p *entity.Principal, id string, reason string) (*entity.Expense, error) {
	if err := RequireActive(p); err != nil {
		return nil, err
	}
	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}

	return e.transition(ctx, p, id, domainwf.TriggerReject, event.TypeExpenseRejected,
		func(_ context.Context, exp *entity.Expense, now time.Time) (*entity.ApprovalEvent, error) {
			exp.RejectionReason = reason
			return e.auditEntry(p, exp, entity.ActionRejected, reason, now), nil
		})
}

// Reimburse moves an APPROVED expense to REIMBURSED and snapshots the payer
func (e *engineImpl) Reimburse(ctx context.Context, p *entity.Principal, id string) (*entity.Expense, error) {
	if err := RequireActive(p); err != nil {
		return nil, err
	}

	return e.transition(ctx, p, id, domainwf.TriggerReimburse, event.TypeExpenseReimbursed,
		func(_ context.Context, exp *entity.Expense, now time.Time) (*entity.ApprovalEvent, error) {
			exp.ReimbursedAt = &now
			exp.ReimbursedByID = p.UserID
			exp.ReimbursedByName = p.Name
			return e.auditEntry(p, exp, entity.ActionReimbursed, "", now), nil
		})
}

// Delete removes a DRAFT expense owned by p
func (e *engineImpl) Delete(ctx context.Context, p *entity.Principal, id string) error {
	if err := RequireActive(p); err != nil {
		return err
	}

	var deleted *entity.Expense
	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		exp, err := e.expenses.GetByID(txCtx, p.TenantID, id)
		if err != nil {
			return err
		}
		if err := BuildExpenseStateMachine(exp.Status).Fire(txCtx, domainwf.TriggerDelete, subjectFor(p, exp)); err != nil {
			return err
		}
		if err := e.expenses.Delete(txCtx, p.TenantID, exp.ID, exp.Version); err != nil {
			return err
		}
		deleted = exp
		return nil
	})
	if err != nil {
		return err
	}

	e.emit(ctx, event.TypeExpenseDeleted, p, deleted)
	return nil
}

// mutation applies a transition's effect to the loaded expense and returns
// the audit entry to append, or nil when the trigger is not audited
type mutation func(txCtx context.Context, exp *entity.Expense, now time.Time) (*entity.ApprovalEvent, error)

// transition runs the shared command pipeline: role gate, tenant-scoped load,
// guarded fire, mutation, compare-and-swap save and audit append.
func (e *engineImpl) transition(
	ctx context.Context,
	p *entity.Principal,
	id string,
	trigger domainwf.Trigger,
	eventType event.Type,
	mutate mutation,
) (*entity.Expense, error) {
	if roles := requiredRoles(trigger); roles != nil {
		if err := RequireRole(p, roles...); err != nil {
			return nil, err
		}
	}

	var result *entity.Expense
	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		exp, err := e.expenses.GetByID(txCtx, p.TenantID, id)
		if err != nil {
			return err
		}

		machine := BuildExpenseStateMachine(exp.Status)
		if err := machine.Fire(txCtx, trigger, subjectFor(p, exp)); err != nil {
			return err
		}

		now := e.now()
		audit, err := mutate(txCtx, exp, now)
		if err != nil {
			return err
		}
		exp.Status = machine.State()
		exp.UpdatedAt = now

		if err := e.expenses.Update(txCtx, exp); err != nil {
			return err
		}
		if audit != nil {
			if err := e.events.Append(txCtx, audit); err != nil {
				return fmt.Errorf("failed to append approval event: %w", err)
			}
		}

		result = exp
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, eventType, p, result)
	return result.Clone(), nil
}

func (e *engineImpl) checkCategory(ctx context.Context, tenantID, categoryID string) error {
	cat, err := e.categories.GetByID(ctx, tenantID, categoryID)
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: category %s", apperr.ErrNotFound, categoryID)
	}
	if err != nil {
		return err
	}
	if !cat.Active {
		return fmt.Errorf("%w: category %s is inactive", apperr.ErrValidation, cat.Name)
	}
	return nil
}

func (e *engineImpl) auditEntry(p *entity.Principal, exp *entity.Expense, action entity.ApprovalAction, comment string, now time.Time) *entity.ApprovalEvent {
	return &entity.ApprovalEvent{
		ID:        e.newID(),
		TenantID:  exp.TenantID,
		ExpenseID: exp.ID,
		ActorID:   p.UserID,
		ActorName: p.Name,
		Action:    action,
		Comment:   comment,
		CreatedAt: now,
	}
}

// emit dispatches a post-commit notification. Failures stay inside the dispatcher.
func (e *engineImpl) emit(ctx context.Context, eventType event.Type, p *entity.Principal, exp *entity.Expense) {
	if e.dispatcher == nil || exp == nil {
		return
	}
	e.dispatcher.DispatchAsync(ctx, event.NewEvent(eventType, exp.TenantID, exp.ID, map[string]interface{}{
		"actor_id": p.UserID,
		"status":   exp.Status.String(),
		"version":  exp.Version,
	}))
}
