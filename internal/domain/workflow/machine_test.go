package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/garyjia/expense-workflow/internal/domain/apperr"
)

var errDenied = errors.New("denied")

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateSubmitted, false},
		{StateApproved, false},
		{StateRejected, false},
		{StateReimbursed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsEditable(t *testing.T) {
	for _, s := range States() {
		want := s == StateDraft || s == StateRejected
		if got := s.IsEditable(); got != want {
			t.Errorf("%s.IsEditable() = %v, want %v", s, got, want)
		}
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    State
		wantErr bool
	}{
		{"draft", "DRAFT", StateDraft, false},
		{"reimbursed", "REIMBURSED", StateReimbursed, false},
		{"lowercase", "draft", "", true},
		{"unknown", "PENDING", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseState(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidState) {
				t.Errorf("ParseState(%q) error = %v, want %v", tt.input, err, ErrInvalidState)
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	if config2 := builder.Configure(StateDraft); config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	NewBuilder().Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State("INVALID"))
}

func TestStateConfiguration_PermitPanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	NewBuilder().Configure(StateDraft).Permit(TriggerSubmit, State("INVALID"))
}

func TestStateConfiguration_Permit(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	machine := builder.Build(StateDraft)

	if !machine.CanFire(TriggerSubmit) {
		t.Error("CanFire() should return true for permitted trigger")
	}

	if err := machine.Fire(context.Background(), TriggerSubmit, Subject{}); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine.State() != StateSubmitted {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateSubmitted)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		PermitIf(TriggerSubmit, StateSubmitted, func(ctx context.Context, s Subject) error {
			if !s.IsOwner() {
				return errDenied
			}
			return nil
		})

	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerSubmit, Subject{ActorID: "u2", OwnerID: "u1"})
	if !errors.Is(err, errDenied) {
		t.Fatalf("Fire() error = %v, want %v", err, errDenied)
	}
	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}

	if err := machine.Fire(context.Background(), TriggerSubmit, Subject{ActorID: "u1", OwnerID: "u1"}); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateSubmitted {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateSubmitted)
	}
}

func TestStateConfiguration_PermitIf_MultipleTransitions(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		PermitIf(TriggerApprove, StateReimbursed, func(ctx context.Context, s Subject) error {
			if s.ActorRole != "FAST" {
				return errDenied
			}
			return nil
		}).
		Permit(TriggerApprove, StateApproved)

	fast := builder.Build(StateSubmitted)
	if err := fast.Fire(context.Background(), TriggerApprove, Subject{ActorRole: "FAST"}); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if fast.State() != StateReimbursed {
		t.Errorf("State after Fire() = %v, want %v", fast.State(), StateReimbursed)
	}

	slow := builder.Build(StateSubmitted)
	if err := slow.Fire(context.Background(), TriggerApprove, Subject{ActorRole: "SLOW"}); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if slow.State() != StateApproved {
		t.Errorf("State after Fire() = %v, want %v", slow.State(), StateApproved)
	}
}

func TestStateMachine_TriggerGuardRunsBeforeStateLookup(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateApproved).Permit(TriggerReimburse, StateReimbursed)
	builder.Guard(TriggerReimburse, func(ctx context.Context, s Subject) error {
		return errDenied
	})

	// Not configured from DRAFT, but the guard must win
	machine := builder.Build(StateDraft)
	err := machine.Fire(context.Background(), TriggerReimburse, Subject{})
	if !errors.Is(err, errDenied) {
		t.Errorf("Fire() error = %v, want %v", err, errDenied)
	}
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).Permit(TriggerUpdate, StateDraft)
	builder.Configure(StateRejected).Permit(TriggerUpdate, StateDraft)

	machine := builder.Build(StateSubmitted)

	err := machine.Fire(context.Background(), TriggerUpdate, Subject{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("Fire() error should classify as apperr.ErrInvalidTransition")
	}
	if !strings.Contains(err.Error(), "requires DRAFT or REJECTED") {
		t.Errorf("Fire() error = %q, want required source states named", err.Error())
	}
	if machine.State() != StateSubmitted {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateSubmitted, machine.State())
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	machine := NewBuilder().Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerSubmit, Subject{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	machine := builder.Build(StateDraft)

	tests := []struct {
		trigger  Trigger
		expected bool
	}{
		{TriggerSubmit, true},
		{TriggerApprove, false},
		{TriggerReject, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			if got := machine.CanFire(tt.trigger); got != tt.expected {
				t.Errorf("CanFire() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted).
		Permit(TriggerDelete, StateDraft)

	triggers := builder.Build(StateDraft).PermittedTriggers()
	if len(triggers) != 2 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}

	if got := builder.Build(StateApproved).PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 0", len(got))
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	machine1 := builder.Build(StateDraft)
	machine2 := builder.Build(StateDraft)

	// Changes after Build must not leak into built machines
	builder.Configure(StateDraft).Permit(TriggerApprove, StateApproved)
	if machine1.CanFire(TriggerApprove) {
		t.Error("built machine picked up configuration added after Build()")
	}

	if err := machine1.Fire(context.Background(), TriggerSubmit, Subject{}); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine2.State() != StateDraft {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StateDraft)
	}
}

func TestSubject_IsOwner(t *testing.T) {
	if (Subject{}).IsOwner() {
		t.Error("empty subject should not own anything")
	}
	if !(Subject{ActorID: "u1", OwnerID: "u1"}).IsOwner() {
		t.Error("actor should own own record")
	}
}
