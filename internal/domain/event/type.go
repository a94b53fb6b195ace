package event

// Type identifies the type of domain event
type Type string

const (
	TypeExpenseCreated    Type = "expense.created"
	TypeExpenseUpdated    Type = "expense.updated"
	TypeExpenseSubmitted  Type = "expense.submitted"
	TypeExpenseApproved   Type = "expense.approved"
	TypeExpenseRejected   Type = "expense.rejected"
	TypeExpenseReimbursed Type = "expense.reimbursed"
	TypeExpenseDeleted    Type = "expense.deleted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeExpenseCreated,
		TypeExpenseUpdated,
		TypeExpenseSubmitted,
		TypeExpenseApproved,
		TypeExpenseRejected,
		TypeExpenseReimbursed,
		TypeExpenseDeleted:
		return true
	default:
		return false
	}
}
