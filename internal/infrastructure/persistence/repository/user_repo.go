package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const userColumns = `id, tenant_id, email, name, department, role, active, created_at, updated_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user. Emails are unique per tenant, ignoring case.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		u.ID, u.TenantID, u.Email, u.Name, u.Department, u.Role.String(), u.Active,
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", apperr.ErrAlreadyExists, u.Email)
		}
		r.logger.Error("Failed to create user", zap.String("tenant_id", u.TenantID), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user of tenantID
func (r *UserRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND tenant_id = ?`
	return r.get(ctx, query, "user "+id, id, tenantID)
}

// GetByEmail retrieves a user of tenantID by case-insensitive email
func (r *UserRepository) GetByEmail(ctx context.Context, tenantID, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = ? AND email = ?`
	return r.get(ctx, query, "user "+email, tenantID, email)
}

// List returns the tenant's users by name
func (r *UserRepository) List(ctx context.Context, tenantID string) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = ? ORDER BY name ASC`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, tenantID)
	if err != nil {
		r.logger.Error("Failed to list users", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update writes the mutable profile fields
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	query := `
		UPDATE users SET name = ?, department = ?, role = ?, active = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		u.Name, u.Department, u.Role.String(), u.Active, u.UpdatedAt.UTC(), u.ID, u.TenantID,
	)
	if err != nil {
		r.logger.Error("Failed to update user", zap.String("user_id", u.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, u.ID)
	}
	return nil
}

func (r *UserRepository) get(ctx context.Context, query, what string, args ...interface{}) (*entity.User, error) {
	u, err := scanUser(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("lookup", what), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	var role string
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Department, &role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	r, err := entity.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Role = r
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
