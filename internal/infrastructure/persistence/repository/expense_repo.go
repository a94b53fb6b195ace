package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/workflow"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const expenseColumns = `
	id, tenant_id, user_id, category_id, title, description, amount_cents,
	expense_date, receipt_url, rejection_reason, status,
	created_at, updated_at, submitted_at,
	approved_at, approved_by_id, approved_by_name,
	reimbursed_at, reimbursed_by_id, reimbursed_by_name, version`

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new expense at version 1
func (r *ExpenseRepository) Create(ctx context.Context, e *entity.Expense) error {
	query := `INSERT INTO expenses (` + expenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	e.Version = 1
	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		e.ID,
		e.TenantID,
		e.UserID,
		e.CategoryID,
		e.Title,
		e.Description,
		e.AmountCents,
		e.ExpenseDate.Format(entity.DateLayout),
		e.ReceiptURL,
		e.RejectionReason,
		e.Status.String(),
		e.CreatedAt.UTC(),
		e.UpdatedAt.UTC(),
		nullTime(e.SubmittedAt),
		nullTime(e.ApprovedAt),
		e.ApprovedByID,
		e.ApprovedByName,
		nullTime(e.ReimbursedAt),
		e.ReimbursedByID,
		e.ReimbursedByName,
		e.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expense %s", apperr.ErrAlreadyExists, e.ID)
		}
		r.logger.Error("Failed to create expense", zap.String("expense_id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense of tenantID
func (r *ExpenseRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ? AND tenant_id = ?`

	e, err := scanExpense(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: expense %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.String("tenant_id", tenantID), zap.String("expense_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListByOwner returns the owner's expenses, newest first
func (r *ExpenseRepository) ListByOwner(ctx context.Context, tenantID, userID string) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE tenant_id = ? AND user_id = ?
		ORDER BY created_at DESC, rowid DESC`

	return r.list(ctx, query, tenantID, userID)
}

// ListByStatus returns expenses of tenantID in any of statuses
func (r *ExpenseRepository) ListByStatus(ctx context.Context, tenantID string, statuses []workflow.State, opts port.ListOptions) ([]*entity.Expense, error) {
	if len(statuses) == 0 {
		return []*entity.Expense{}, nil
	}

	args := []interface{}{tenantID}
	marks := make([]string, len(statuses))
	for i, s := range statuses {
		marks[i] = "?"
		args = append(args, s.String())
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + expenseColumns + ` FROM expenses WHERE tenant_id = ? AND status IN (`)
	b.WriteString(strings.Join(marks, ", "))
	b.WriteString(`)`)
	if opts.ExcludeOwnerID != "" {
		b.WriteString(` AND user_id <> ?`)
		args = append(args, opts.ExcludeOwnerID)
	}
	if opts.OrderByUpdated {
		b.WriteString(` ORDER BY updated_at DESC, rowid DESC`)
	} else {
		b.WriteString(` ORDER BY created_at DESC, rowid DESC`)
	}

	return r.list(ctx, b.String(), args...)
}

// Update writes e if the stored version still equals e.Version, then
// increments e.Version
func (r *ExpenseRepository) Update(ctx context.Context, e *entity.Expense) error {
	query := `
		UPDATE expenses SET
			category_id = ?, title = ?, description = ?, amount_cents = ?,
			expense_date = ?, receipt_url = ?, rejection_reason = ?, status = ?,
			updated_at = ?, submitted_at = ?,
			approved_at = ?, approved_by_id = ?, approved_by_name = ?,
			reimbursed_at = ?, reimbursed_by_id = ?, reimbursed_by_name = ?,
			version = version + 1
		WHERE id = ? AND tenant_id = ? AND version = ?
	`

	exec := sqlite.Conn(ctx, r.db)
	result, err := exec.ExecContext(ctx, query,
		e.CategoryID,
		e.Title,
		e.Description,
		e.AmountCents,
		e.ExpenseDate.Format(entity.DateLayout),
		e.ReceiptURL,
		e.RejectionReason,
		e.Status.String(),
		e.UpdatedAt.UTC(),
		nullTime(e.SubmittedAt),
		nullTime(e.ApprovedAt),
		e.ApprovedByID,
		e.ApprovedByName,
		nullTime(e.ReimbursedAt),
		e.ReimbursedByID,
		e.ReimbursedByName,
		e.ID,
		e.TenantID,
		e.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.String("expense_id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}

	if err := r.checkAffected(ctx, exec, result, e.TenantID, e.ID, e.Version); err != nil {
		return err
	}
	e.Version++
	return nil
}

// Delete removes the expense if it is still at version
func (r *ExpenseRepository) Delete(ctx context.Context, tenantID, id string, version int64) error {
	query := `DELETE FROM expenses WHERE id = ? AND tenant_id = ? AND version = ?`

	exec := sqlite.Conn(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, id, tenantID, version)
	if err != nil {
		r.logger.Error("Failed to delete expense", zap.String("expense_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return r.checkAffected(ctx, exec, result, tenantID, id, version)
}

// checkAffected turns a zero-row write into NotFound or Conflict
func (r *ExpenseRepository) checkAffected(ctx context.Context, exec sqlite.Executor, result sql.Result, tenantID, id string, version int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current int64
	err = exec.QueryRowContext(ctx,
		`SELECT version FROM expenses WHERE id = ? AND tenant_id = ?`, id, tenantID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: expense %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read expense version: %w", err)
	}

	r.logger.Info("Stale expense write rejected",
		zap.String("expense_id", id),
		zap.Int64("expected_version", version),
		zap.Int64("current_version", current))
	return fmt.Errorf("%w: expense %s is at version %d, not %d", apperr.ErrConflict, id, current, version)
}

func (r *ExpenseRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Expense, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*entity.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			r.logger.Error("Failed to scan expense", zap.Error(err))
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var (
		e            entity.Expense
		expenseDate  string
		status       string
		submittedAt  sql.NullTime
		approvedAt   sql.NullTime
		reimbursedAt sql.NullTime
	)

	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.UserID,
		&e.CategoryID,
		&e.Title,
		&e.Description,
		&e.AmountCents,
		&expenseDate,
		&e.ReceiptURL,
		&e.RejectionReason,
		&status,
		&e.CreatedAt,
		&e.UpdatedAt,
		&submittedAt,
		&approvedAt,
		&e.ApprovedByID,
		&e.ApprovedByName,
		&reimbursedAt,
		&e.ReimbursedByID,
		&e.ReimbursedByName,
		&e.Version,
	)
	if err != nil {
		return nil, err
	}

	if e.Status, err = workflow.ParseState(status); err != nil {
		return nil, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	if e.ExpenseDate, err = time.Parse(entity.DateLayout, expenseDate); err != nil {
		return nil, fmt.Errorf("expense %s: bad expense_date %q: %w", e.ID, expenseDate, err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	e.SubmittedAt = timePtr(submittedAt)
	e.ApprovedAt = timePtr(approvedAt)
	e.ReimbursedAt = timePtr(reimbursedAt)
	return &e, nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
