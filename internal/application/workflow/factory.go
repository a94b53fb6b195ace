package workflow

import (
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// BuildExpenseStateMachine creates a state machine configured for the expense
// lifecycle, positioned at initialState. Role and ownership guards run before
// the transition table is consulted, so an unauthorized caller learns nothing
// about the record's status.
func BuildExpenseStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.
		Guard(domainwf.TriggerUpdate, ownerOnly).
		Guard(domainwf.TriggerSubmit, ownerOnly).
		Guard(domainwf.TriggerDelete, ownerOnly).
		Guard(domainwf.TriggerApprove, roleIn(approverRoles...)).
		Guard(domainwf.TriggerApprove, notOwner).
		Guard(domainwf.TriggerReject, roleIn(approverRoles...)).
		Guard(domainwf.TriggerReject, notOwner).
		Guard(domainwf.TriggerReimburse, roleIn(reimburserRoles...))

	// DRAFT is the only fully editable state
	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerUpdate, domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StateSubmitted).
		Permit(domainwf.TriggerDelete, domainwf.StateDraft)

	builder.Configure(domainwf.StateSubmitted).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateApproved).
		Permit(domainwf.TriggerReimburse, domainwf.StateReimbursed)

	// An owner edit sends a rejected claim back to DRAFT
	builder.Configure(domainwf.StateRejected).
		Permit(domainwf.TriggerUpdate, domainwf.StateDraft)

	// REIMBURSED is terminal - no outgoing transitions

	return builder.Build(initialState)
}
