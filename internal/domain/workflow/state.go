package workflow

import "fmt"

// State represents an expense status in the approval lifecycle
type State string

const (
	StateDraft      State = "DRAFT"
	StateSubmitted  State = "SUBMITTED"
	StateApproved   State = "APPROVED"
	StateRejected   State = "REJECTED"
	StateReimbursed State = "REIMBURSED"
)

var validStates = map[State]bool{
	StateDraft:      true,
	StateSubmitted:  true,
	StateApproved:   true,
	StateRejected:   true,
	StateReimbursed: true,
}

var terminalStates = map[State]bool{
	StateReimbursed: true,
}

// editableStates are the states from which the owner may still change the claim
var editableStates = map[State]bool{
	StateDraft:    true,
	StateRejected: true,
}

// ParseState converts a persisted status string into a State.
// Unknown values are rejected so corrupt rows never reach business logic.
func ParseState(s string) (State, error) {
	state := State(s)
	if !state.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return state, nil
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsEditable returns true if the owner may still update the claim in this state
func (s State) IsEditable() bool {
	return editableStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// States returns every known state in lifecycle order
func States() []State {
	return []State{StateDraft, StateSubmitted, StateApproved, StateRejected, StateReimbursed}
}
