package service

import (
	"time"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// ExpenseView is an expense as shown to API clients, with owner and
// category details resolved and the amount rendered with two decimals
type ExpenseView struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Amount           string     `json:"amount"`
	ExpenseDate      string     `json:"expense_date"`
	ReceiptURL       string     `json:"receipt_url,omitempty"`
	Status           string     `json:"status"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
	CategoryID       string     `json:"category_id"`
	CategoryName     string     `json:"category_name,omitempty"`
	CategoryIcon     string     `json:"category_icon,omitempty"`
	UserID           string     `json:"user_id"`
	UserName         string     `json:"user_name,omitempty"`
	UserDepartment   string     `json:"user_department,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ApprovedByID     string     `json:"approved_by_id,omitempty"`
	ApprovedByName   string     `json:"approved_by_name,omitempty"`
	ReimbursedAt     *time.Time `json:"reimbursed_at,omitempty"`
	ReimbursedByID   string     `json:"reimbursed_by_id,omitempty"`
	ReimbursedByName string     `json:"reimbursed_by_name,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int64      `json:"version"`
}

// ApprovalView is one audit trail entry
type ApprovalView struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Comment   string    `json:"comment,omitempty"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantView is the public listing shape of a tenant
type TenantView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func newExpenseView(e *entity.Expense, owner *entity.User, cat *entity.Category) *ExpenseView {
	v := &ExpenseView{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		Amount:           entity.FormatAmount(e.AmountCents),
		ExpenseDate:      e.ExpenseDate.Format(entity.DateLayout),
		ReceiptURL:       e.ReceiptURL,
		Status:           e.Status.String(),
		RejectionReason:  e.RejectionReason,
		CategoryID:       e.CategoryID,
		UserID:           e.UserID,
		SubmittedAt:      e.SubmittedAt,
		ApprovedAt:       e.ApprovedAt,
		ApprovedByID:     e.ApprovedByID,
		ApprovedByName:   e.ApprovedByName,
		ReimbursedAt:     e.ReimbursedAt,
		ReimbursedByID:   e.ReimbursedByID,
		ReimbursedByName: e.ReimbursedByName,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
		Version:          e.Version,
	}
	if owner != nil {
		v.UserName = owner.Name
		v.UserDepartment = owner.Department
	}
	if cat != nil {
		v.CategoryName = cat.Name
		v.CategoryIcon = cat.Icon
	}
	return v
}

func newApprovalView(evt *entity.ApprovalEvent) *ApprovalView {
	return &ApprovalView{
		ID:        evt.ID,
		Action:    evt.Action.String(),
		Comment:   evt.Comment,
		ActorID:   evt.ActorID,
		ActorName: evt.ActorName,
		CreatedAt: evt.CreatedAt,
	}
}
