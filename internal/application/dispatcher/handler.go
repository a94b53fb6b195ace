package dispatcher

import (
	"context"

	"github.com/garyjia/expense-workflow/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// ActivityLogHandler writes one structured line per committed workflow step
func ActivityLogHandler(logger Logger) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		logger.Info("Expense activity",
			"event_type", evt.Type,
			"tenant_id", evt.TenantID,
			"expense_id", evt.ExpenseID,
			"actor_id", evt.GetPayloadString("actor_id"),
			"status", evt.GetPayloadString("status"),
			"version", evt.GetPayloadInt("version"),
			"correlation_id", evt.CorrelationID,
		)
		return nil
	}
}

// RegisterActivityLog subscribes the activity log to every expense event type
func RegisterActivityLog(d Dispatcher, logger Logger) {
	for _, t := range []event.Type{
		event.TypeExpenseCreated,
		event.TypeExpenseUpdated,
		event.TypeExpenseSubmitted,
		event.TypeExpenseApproved,
		event.TypeExpenseRejected,
		event.TypeExpenseReimbursed,
		event.TypeExpenseDeleted,
	} {
		d.SubscribeNamed(t, "activity-log", ActivityLogHandler(logger))
	}
}
