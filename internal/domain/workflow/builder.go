package workflow

import (
	"context"
	"fmt"
	"strings"
)

// GuardFunc evaluates whether a transition should be allowed. A non-nil
// error rejects the transition and is returned from Fire unchanged.
type GuardFunc func(ctx context.Context, subject Subject) error

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Guard registers a check that runs for the trigger before the current
	// state is consulted, whatever that state is
	Guard(trigger Trigger, guard GuardFunc) StateMachineBuilder

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows a trigger to transition to the target state if the guard condition passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type transition struct {
	toState State
	guard   GuardFunc
}

type stateConfig struct {
	fromState   State
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
	guards         map[Trigger][]GuardFunc
}

type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
	guards         map[Trigger][]GuardFunc
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
		guards:         make(map[Trigger][]GuardFunc),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// Guard registers a trigger-wide guard
func (b *stateMachineBuilder) Guard(trigger Trigger, guard GuardFunc) StateMachineBuilder {
	if guard == nil {
		panic(fmt.Sprintf("nil guard for trigger: %s", trigger))
	}
	b.guards[trigger] = append(b.guards[trigger], guard)
	return b
}

// Build creates a new state machine instance with the given initial state
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Deep copy so later builder calls cannot alter a built machine
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition, len(config.transitions))
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, transitions...)
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	guardsCopy := make(map[Trigger][]GuardFunc, len(b.guards))
	for trigger, guards := range b.guards {
		guardsCopy[trigger] = append([]GuardFunc{}, guards...)
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configsCopy,
		guards:         guardsCopy,
	}
}

// Permit allows a trigger to transition to the target state
func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf allows a trigger to transition to the target state if the guard condition passes
func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{
		toState: toState,
		guard:   guard,
	})

	return c
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// CanFire returns true if the trigger is configured for the current state
func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

// Fire runs the trigger-wide guards, then the transition guards of the
// current state, and moves to the first target whose guard passes.
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger, subject Subject) error {
	for _, guard := range m.guards[trigger] {
		if err := guard(ctx, subject); err != nil {
			return err
		}
	}

	var transitions []transition
	if config, exists := m.configurations[m.currentState]; exists {
		transitions = config.transitions[trigger]
	}
	if len(transitions) == 0 {
		return m.invalidTransition(trigger)
	}

	var firstErr error
	for _, t := range transitions {
		if t.guard == nil {
			m.currentState = t.toState
			return nil
		}
		err := t.guard(ctx, subject)
		if err == nil {
			m.currentState = t.toState
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (m *stateMachine) invalidTransition(trigger Trigger) error {
	sources := m.SourceStates(trigger)
	if len(sources) == 0 {
		return fmt.Errorf("%w: trigger %s is not configured", ErrInvalidTransition, trigger)
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.String()
	}
	return fmt.Errorf("%w: cannot %s from %s, requires %s",
		ErrInvalidTransition, strings.ToLower(trigger.String()), m.currentState, strings.Join(names, " or "))
}

// PermittedTriggers returns all triggers that can be fired in the current state
func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}

	return triggers
}

// SourceStates returns the configured source states for trigger in lifecycle order
func (m *stateMachine) SourceStates(trigger Trigger) []State {
	var sources []State
	for _, state := range States() {
		config, exists := m.configurations[state]
		if exists && len(config.transitions[trigger]) > 0 {
			sources = append(sources, state)
		}
	}
	return sources
}
