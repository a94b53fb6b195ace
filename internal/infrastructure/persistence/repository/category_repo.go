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

const categoryColumns = `id, tenant_id, name, icon, description, active, created_at`

// CategoryRepository implements port.CategoryRepository
type CategoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a category. Names are unique per tenant, ignoring case.
func (r *CategoryRepository) Create(ctx context.Context, c *entity.Category) error {
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		c.ID, c.TenantID, c.Name, c.Icon, c.Description, c.Active, c.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q", apperr.ErrAlreadyExists, c.Name)
		}
		r.logger.Error("Failed to create category", zap.String("tenant_id", c.TenantID), zap.Error(err))
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves a category of tenantID
func (r *CategoryRepository) GetByID(ctx context.Context, tenantID, id string) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ? AND tenant_id = ?`
	return r.get(ctx, query, "category "+id, id, tenantID)
}

// GetByName retrieves a category of tenantID by case-insensitive name
func (r *CategoryRepository) GetByName(ctx context.Context, tenantID, name string) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE tenant_id = ? AND name = ?`
	return r.get(ctx, query, fmt.Sprintf("category %q", name), tenantID, name)
}

// List returns the tenant's categories by name
func (r *CategoryRepository) List(ctx context.Context, tenantID string, includeInactive bool) ([]*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE tenant_id = ?`
	if !includeInactive {
		query += ` AND active = 1`
	}
	query += ` ORDER BY name ASC`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, tenantID)
	if err != nil {
		r.logger.Error("Failed to list categories", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*entity.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Count returns the number of categories of the tenant, active or not
func (r *CategoryRepository) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE tenant_id = ?`, tenantID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return n, nil
}

// Update writes name, icon, description and active flag
func (r *CategoryRepository) Update(ctx context.Context, c *entity.Category) error {
	query := `
		UPDATE categories SET name = ?, icon = ?, description = ?, active = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		c.Name, c.Icon, c.Description, c.Active, c.ID, c.TenantID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q", apperr.ErrAlreadyExists, c.Name)
		}
		r.logger.Error("Failed to update category", zap.String("category_id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: category %s", apperr.ErrNotFound, c.ID)
	}
	return nil
}

func (r *CategoryRepository) get(ctx context.Context, query, what string, args ...interface{}) (*entity.Category, error) {
	c, err := scanCategory(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	if err != nil {
		r.logger.Error("Failed to get category", zap.String("lookup", what), zap.Error(err))
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func scanCategory(row rowScanner) (*entity.Category, error) {
	var c entity.Category
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Icon, &c.Description, &c.Active, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// Verify interface compliance
var _ port.CategoryRepository = (*CategoryRepository)(nil)
