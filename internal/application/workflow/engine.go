package workflow

import (
	"context"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// ExpenseEngine executes expense lifecycle commands for an explicit principal.
// Each command runs in a single transaction: either the status change, the
// version bump and the audit entry all commit, or none of them do.
type ExpenseEngine interface {
	// Create stores a new DRAFT expense owned by p
	Create(ctx context.Context, p *entity.Principal, in ExpenseInput) (*entity.Expense, error)

	// Update replaces the editable fields. A REJECTED expense returns to DRAFT.
	Update(ctx context.Context, p *entity.Principal, id string, in ExpenseInput) (*entity.Expense, error)

	// Submit moves a DRAFT expense to SUBMITTED
	Submit(ctx context.Context, p *entity.Principal, id string) (*entity.Expense, error)

	// Approve moves a SUBMITTED expense to APPROVED
	Approve(ctx context.Context, p *entity.Principal, id string) (*entity.Expense, error)

	// Reject moves a SUBMITTED expense to REJECTED with a reason
	Reject(ctx context.Context, p *entity.Principal, id string, reason string) (*entity.Expense, error)

	// Reimburse moves an APPROVED expense to REIMBURSED
	Reimburse(ctx context.Context, p *entity.Principal, id string) (*entity.Expense, error)

	// Delete removes a DRAFT expense
	Delete(ctx context.Context, p *entity.Principal, id string) error
}
