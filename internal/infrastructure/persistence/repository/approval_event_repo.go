package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ApprovalEventRepository implements port.ApprovalEventRepository.
// The table rejects UPDATE and DELETE through triggers.
type ApprovalEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalEventRepository creates a new approval event repository
func NewApprovalEventRepository(db *sql.DB, logger *zap.Logger) *ApprovalEventRepository {
	return &ApprovalEventRepository{
		db:     db,
		logger: logger,
	}
}

// Append records one audit trail entry
func (r *ApprovalEventRepository) Append(ctx context.Context, evt *entity.ApprovalEvent) error {
	query := `
		INSERT INTO approval_events (
			id, tenant_id, expense_id, actor_id, actor_name, action, comment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		evt.ID,
		evt.TenantID,
		evt.ExpenseID,
		evt.ActorID,
		evt.ActorName,
		evt.Action.String(),
		evt.Comment,
		evt.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to append approval event",
			zap.String("expense_id", evt.ExpenseID),
			zap.String("action", evt.Action.String()),
			zap.Error(err))
		return fmt.Errorf("failed to append approval event: %w", err)
	}
	return nil
}

// ListByExpense returns the trail of one expense, oldest first.
// Events with equal timestamps keep insertion order.
func (r *ApprovalEventRepository) ListByExpense(ctx context.Context, tenantID, expenseID string) ([]*entity.ApprovalEvent, error) {
	query := `
		SELECT id, tenant_id, expense_id, actor_id, actor_name, action, comment, created_at
		FROM approval_events
		WHERE tenant_id = ? AND expense_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, tenantID, expenseID)
	if err != nil {
		r.logger.Error("Failed to list approval events", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval events: %w", err)
	}
	defer rows.Close()

	events := []*entity.ApprovalEvent{}
	for rows.Next() {
		var evt entity.ApprovalEvent
		var action string
		if err := rows.Scan(
			&evt.ID,
			&evt.TenantID,
			&evt.ExpenseID,
			&evt.ActorID,
			&evt.ActorName,
			&action,
			&evt.Comment,
			&evt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval event: %w", err)
		}
		if evt.Action, err = entity.ParseApprovalAction(action); err != nil {
			return nil, fmt.Errorf("approval event %s: %w", evt.ID, err)
		}
		evt.CreatedAt = evt.CreatedAt.UTC()
		events = append(events, &evt)
	}
	return events, rows.Err()
}

// Verify interface compliance
var _ port.ApprovalEventRepository = (*ApprovalEventRepository)(nil)
