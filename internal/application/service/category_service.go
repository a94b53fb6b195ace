package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/application/workflow"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

// CategoryInput carries the admin-editable fields of a category
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Icon        string `json:"icon" validate:"max=16"`
	Description string `json:"description" validate:"max=500"`
}

// CategoryService manages the per-tenant category list
type CategoryService interface {
	// ListActive returns active categories, seeding the defaults for a tenant that has none
	ListActive(ctx context.Context, p *entity.Principal) ([]*entity.Category, error)

	// ListAll returns every category including inactive ones (admin)
	ListAll(ctx context.Context, p *entity.Principal) ([]*entity.Category, error)

	// Create adds a category (admin)
	Create(ctx context.Context, p *entity.Principal, in CategoryInput) (*entity.Category, error)

	// Update renames or re-describes a category (admin)
	Update(ctx context.Context, p *entity.Principal, id string, in CategoryInput) (*entity.Category, error)

	// ToggleActive flips a category's active flag (admin)
	ToggleActive(ctx context.Context, p *entity.Principal, id string) (*entity.Category, error)

	// SeedDefaults inserts the default categories when tenantID has none
	SeedDefaults(ctx context.Context, tenantID string) error
}

type categoryServiceImpl struct {
	categories port.CategoryRepository
	txManager  port.TransactionManager
	validate   *validator.Validate
	logger     Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categories port.CategoryRepository, txManager port.TransactionManager, logger Logger) CategoryService {
	return &categoryServiceImpl{
		categories: categories,
		txManager:  txManager,
		validate:   utils.NewValidator(),
		logger:     orNop(logger),
	}
}

// ListActive returns active categories
func (s *categoryServiceImpl) ListActive(ctx context.Context, p *entity.Principal) ([]*entity.Category, error) {
	if err := workflow.RequireActive(p); err != nil {
		return nil, err
	}
	if err := s.SeedDefaults(ctx, p.TenantID); err != nil {
		return nil, err
	}
	return s.categories.List(ctx, p.TenantID, false)
}

// ListAll returns every category of the tenant
func (s *categoryServiceImpl) ListAll(ctx context.Context, p *entity.Principal) ([]*entity.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.categories.List(ctx, p.TenantID, true)
}

// Create adds a category
func (s *categoryServiceImpl) Create(ctx context.Context, p *entity.Principal, in CategoryInput) (*entity.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	cat := &entity.Category{
		ID:          uuid.NewString(),
		TenantID:    p.TenantID,
		Name:        in.Name,
		Icon:        in.Icon,
		Description: in.Description,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureNameFree(txCtx, p.TenantID, in.Name, ""); err != nil {
			return err
		}
		return s.categories.Create(txCtx, cat)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Category created", "tenant_id", p.TenantID, "category_id", cat.ID, "name", cat.Name)
	return cat, nil
}

// Update renames or re-describes a category
func (s *categoryServiceImpl) Update(ctx context.Context, p *entity.Principal, id string, in CategoryInput) (*entity.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	var cat *entity.Category
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		cat, err = s.categories.GetByID(txCtx, p.TenantID, id)
		if err != nil {
			return err
		}
		if err := s.ensureNameFree(txCtx, p.TenantID, in.Name, cat.ID); err != nil {
			return err
		}
		cat.Name = in.Name
		cat.Icon = in.Icon
		cat.Description = in.Description
		return s.categories.Update(txCtx, cat)
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// ToggleActive flips a category's active flag
func (s *categoryServiceImpl) ToggleActive(ctx context.Context, p *entity.Principal, id string) (*entity.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var cat *entity.Category
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		cat, err = s.categories.GetByID(txCtx, p.TenantID, id)
		if err != nil {
			return err
		}
		cat.Active = !cat.Active
		return s.categories.Update(txCtx, cat)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Category toggled", "tenant_id", p.TenantID, "category_id", cat.ID, "active", cat.Active)
	return cat, nil
}

// SeedDefaults inserts the default categories when the tenant has none
func (s *categoryServiceImpl) SeedDefaults(ctx context.Context, tenantID string) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.categories.Count(txCtx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		if n > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, d := range entity.DefaultCategories() {
			cat := d
			cat.ID = uuid.NewString()
			cat.TenantID = tenantID
			cat.Active = true
			cat.CreatedAt = now
			if err := s.categories.Create(txCtx, &cat); err != nil {
				return fmt.Errorf("failed to seed category %s: %w", cat.Name, err)
			}
		}

		s.logger.Info("Default categories seeded", "tenant_id", tenantID, "count", entity.DefaultCategoryCount)
		return nil
	})
}

func (s *categoryServiceImpl) clean(in CategoryInput) (CategoryInput, error) {
	in.Name = utils.SanitizeString(in.Name)
	in.Icon = utils.SanitizeString(in.Icon)
	in.Description = utils.SanitizeString(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return in, fmt.Errorf("%w: %s", apperr.ErrValidation, utils.ValidationMessage(err))
	}
	return in, nil
}

func (s *categoryServiceImpl) ensureNameFree(ctx context.Context, tenantID, name, selfID string) error {
	existing, err := s.categories.GetByName(ctx, tenantID, name)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return fmt.Errorf("%w: category %q", apperr.ErrAlreadyExists, name)
	default:
		return nil
	}
}

func requireAdmin(p *entity.Principal) error {
	if err := workflow.RequireActive(p); err != nil {
		return err
	}
	return workflow.RequireRole(p, entity.RoleAdmin)
}
