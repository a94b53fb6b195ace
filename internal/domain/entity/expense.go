package entity

import (
	"time"

	"github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// Expense is one claim submitted by one user in one tenant
type Expense struct {
	ID               string         `json:"id"`
	TenantID         string         `json:"tenant_id"`
	UserID           string         `json:"user_id"`
	CategoryID       string         `json:"category_id"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	AmountCents      int64          `json:"amount_cents"`
	ExpenseDate      time.Time      `json:"expense_date"`
	ReceiptURL       string         `json:"receipt_url,omitempty"`
	RejectionReason  string         `json:"rejection_reason,omitempty"`
	Status           workflow.State `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	SubmittedAt      *time.Time     `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty"`
	ApprovedByID     string         `json:"approved_by_id,omitempty"`
	ApprovedByName   string         `json:"approved_by_name,omitempty"`
	ReimbursedAt     *time.Time     `json:"reimbursed_at,omitempty"`
	ReimbursedByID   string         `json:"reimbursed_by_id,omitempty"`
	ReimbursedByName string         `json:"reimbursed_by_name,omitempty"`
	Version          int64          `json:"version"`
}

// IsOwnedBy reports whether userID owns the expense
func (e *Expense) IsOwnedBy(userID string) bool {
	return userID != "" && e.UserID == userID
}

// Reopen returns a rejected expense to DRAFT and clears the rejection reason.
// It reports whether the status changed.
func (e *Expense) Reopen() bool {
	if e.Status != workflow.StateRejected {
		return false
	}
	e.Status = workflow.StateDraft
	e.RejectionReason = ""
	return true
}

// Clone returns a copy that shares no pointers with e
func (e *Expense) Clone() *Expense {
	c := *e
	c.SubmittedAt = cloneTime(e.SubmittedAt)
	c.ApprovedAt = cloneTime(e.ApprovedAt)
	c.ReimbursedAt = cloneTime(e.ReimbursedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
