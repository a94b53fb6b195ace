package entity

import (
	"fmt"
	"time"
)

// ApprovalAction is the kind of workflow step recorded in the audit trail
type ApprovalAction string

const (
	ActionSubmitted  ApprovalAction = "SUBMITTED"
	ActionApproved   ApprovalAction = "APPROVED"
	ActionRejected   ApprovalAction = "REJECTED"
	ActionReimbursed ApprovalAction = "REIMBURSED"
)

var validActions = map[ApprovalAction]bool{
	ActionSubmitted:  true,
	ActionApproved:   true,
	ActionRejected:   true,
	ActionReimbursed: true,
}

// ParseApprovalAction converts a persisted action string into an ApprovalAction
func ParseApprovalAction(s string) (ApprovalAction, error) {
	a := ApprovalAction(s)
	if !validActions[a] {
		return "", fmt.Errorf("unknown approval action %q", s)
	}
	return a, nil
}

// String returns the string representation of the action
func (a ApprovalAction) String() string {
	return string(a)
}

// ApprovalEvent is one immutable entry of an expense's audit trail
type ApprovalEvent struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	ExpenseID string         `json:"expense_id"`
	ActorID   string         `json:"actor_id"`
	ActorName string         `json:"actor_name"`
	Action    ApprovalAction `json:"action"`
	Comment   string         `json:"comment,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
