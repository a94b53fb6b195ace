package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"submitted", TypeExpenseSubmitted, true},
		{"approved", TypeExpenseApproved, true},
		{"rejected", TypeExpenseRejected, true},
		{"reimbursed", TypeExpenseReimbursed, true},
		{"deleted", TypeExpenseDeleted, true},
		{"unknown", Type("expense.archived"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	evt := NewEvent(TypeExpenseApproved, "t1", "e1", map[string]interface{}{"actor_id": "u2"})
	after := time.Now().UTC()

	if evt.ID == "" {
		t.Error("NewEvent() ID should not be empty")
	}
	if evt.CorrelationID == "" || evt.CorrelationID == evt.ID {
		t.Errorf("NewEvent() CorrelationID = %q, want a fresh id", evt.CorrelationID)
	}
	if evt.Type != TypeExpenseApproved || evt.TenantID != "t1" || evt.ExpenseID != "e1" {
		t.Errorf("NewEvent() = %+v, fields not populated", evt)
	}
	if evt.Timestamp.Before(before) || evt.Timestamp.After(after) {
		t.Errorf("NewEvent() Timestamp = %v, want between %v and %v", evt.Timestamp, before, after)
	}
	if got := evt.GetPayloadString("actor_id"); got != "u2" {
		t.Errorf("GetPayloadString() = %q, want %q", got, "u2")
	}
}

func TestNewEvent_NilPayload(t *testing.T) {
	evt := NewEvent(TypeExpenseDeleted, "t1", "e1", nil)
	if evt.Payload == nil {
		t.Fatal("NewEvent() payload should never be nil")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeExpenseSubmitted, "t1", "e1", nil, "req-42")
	if evt.CorrelationID != "req-42" {
		t.Errorf("CorrelationID = %q, want %q", evt.CorrelationID, "req-42")
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeExpenseRejected, "t1", "e1", map[string]interface{}{"reason": "no receipt"})
	updated := original.WithPayload("version", int64(3))

	if _, ok := original.Payload["version"]; ok {
		t.Error("WithPayload() mutated the original event")
	}
	if updated.GetPayloadString("reason") != "no receipt" {
		t.Error("WithPayload() lost existing keys")
	}
	if updated.GetPayloadInt("version") != 3 {
		t.Errorf("GetPayloadInt() = %d, want 3", updated.GetPayloadInt("version"))
	}
	if updated.ID != original.ID {
		t.Error("WithPayload() should keep the event id")
	}
}

func TestEvent_GetPayloadInt(t *testing.T) {
	evt := NewEvent(TypeExpenseUpdated, "t1", "e1", map[string]interface{}{
		"int":    7,
		"int64":  int64(8),
		"float":  float64(9),
		"string": "10",
	})

	tests := []struct {
		key  string
		want int64
	}{
		{"int", 7},
		{"int64", 8},
		{"float", 9},
		{"string", 0},
		{"missing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := evt.GetPayloadInt(tt.key); got != tt.want {
				t.Errorf("GetPayloadInt(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}
