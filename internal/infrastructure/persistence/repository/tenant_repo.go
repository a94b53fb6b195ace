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

const tenantColumns = `id, name, slug, invite_code, active, created_at`

// TenantRepository implements port.TenantRepository
type TenantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *sql.DB, logger *zap.Logger) *TenantRepository {
	return &TenantRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a tenant; slug and invite code are unique
func (r *TenantRepository) Create(ctx context.Context, t *entity.Tenant) error {
	query := `INSERT INTO tenants (` + tenantColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		t.ID, t.Name, t.Slug, t.InviteCode, t.Active, t.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tenant %q", apperr.ErrAlreadyExists, t.Slug)
		}
		r.logger.Error("Failed to create tenant", zap.String("slug", t.Slug), zap.Error(err))
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, "tenant "+id, id)
}

// GetBySlug retrieves a tenant by slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	return r.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = ?`, "tenant "+slug, slug)
}

// ExistsInviteCode reports whether any tenant already uses code
func (r *TenantRepository) ExistsInviteCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE invite_code = ?)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return exists, nil
}

// ListActive returns active tenants by name
func (r *TenantRepository) ListActive(ctx context.Context) ([]*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE active = 1 ORDER BY name ASC`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list tenants", zap.Error(err))
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*entity.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) get(ctx context.Context, query, what string, args ...interface{}) (*entity.Tenant, error) {
	t, err := scanTenant(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	if err != nil {
		r.logger.Error("Failed to get tenant", zap.String("lookup", what), zap.Error(err))
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return t, nil
}

func scanTenant(row rowScanner) (*entity.Tenant, error) {
	var t entity.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.InviteCode, &t.Active, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// Verify interface compliance
var _ port.TenantRepository = (*TenantRepository)(nil)
