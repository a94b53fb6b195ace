package workflow

import "context"

// Subject identifies who fires a trigger and who owns the record being moved.
// Guards decide on it; the machine itself never interprets the fields.
type Subject struct {
	ActorID   string
	ActorRole string
	OwnerID   string
}

// IsOwner reports whether the actor owns the record
func (s Subject) IsOwner() bool {
	return s.ActorID != "" && s.ActorID == s.OwnerID
}

// StateMachine represents a state machine that tracks current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state.
	// Guards are not evaluated.
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger, subject Subject) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger

	// SourceStates returns the states from which the trigger is configured
	SourceStates(trigger Trigger) []State
}
