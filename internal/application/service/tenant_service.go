package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

const inviteCodeAttempts = 10

// TenantInput describes a new organization and its first administrator
type TenantInput struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	AdminEmail string `json:"admin_email" validate:"required,email"`
	AdminName  string `json:"admin_name" validate:"required,max=100"`
}

// TenantService manages tenants, the isolation root
type TenantService interface {
	// ListActive returns active tenants; it needs no principal
	ListActive(ctx context.Context) ([]*TenantView, error)

	// Create sets up a tenant with default categories and one admin
	Create(ctx context.Context, in TenantInput) (*entity.Tenant, *entity.User, error)

	// InviteCode returns the admin's tenant invite code
	InviteCode(ctx context.Context, p *entity.Principal) (string, error)
}

type tenantServiceImpl struct {
	tenants    port.TenantRepository
	users      UserService
	categories CategoryService
	txManager  port.TransactionManager
	validate   *validator.Validate
	logger     Logger
	inviteCode func() string
}

// TenantOption configures the tenant service
type TenantOption func(*tenantServiceImpl)

// WithInviteCodeGenerator overrides invite code generation
func WithInviteCodeGenerator(gen func() string) TenantOption {
	return func(s *tenantServiceImpl) {
		s.inviteCode = gen
	}
}

// NewTenantService creates a new TenantService
func NewTenantService(
	tenants port.TenantRepository,
	users UserService,
	categories CategoryService,
	txManager port.TransactionManager,
	logger Logger,
	opts ...TenantOption,
) TenantService {
	s := &tenantServiceImpl{
		tenants:    tenants,
		users:      users,
		categories: categories,
		txManager:  txManager,
		validate:   utils.NewValidator(),
		logger:     orNop(logger),
		inviteCode: randomInviteCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListActive returns active tenants
func (s *tenantServiceImpl) ListActive(ctx context.Context) ([]*TenantView, error) {
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	views := make([]*TenantView, len(tenants))
	for i, t := range tenants {
		views[i] = &TenantView{ID: t.ID, Name: t.Name, Slug: t.Slug}
	}
	return views, nil
}

// Create sets up a tenant with default categories and one admin
func (s *tenantServiceImpl) Create(ctx context.Context, in TenantInput) (*entity.Tenant, *entity.User, error) {
	in.Name = utils.SanitizeString(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", apperr.ErrValidation, utils.ValidationMessage(err))
	}
	slug := utils.Slugify(in.Name)
	if slug == "" {
		return nil, nil, fmt.Errorf("%w: name: must contain letters or digits", apperr.ErrValidation)
	}

	tenant := &entity.Tenant{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Slug:      slug,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	var admin *entity.User
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.tenants.GetBySlug(txCtx, slug); err == nil {
			return fmt.Errorf("%w: tenant %q", apperr.ErrAlreadyExists, slug)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		code, err := s.uniqueInviteCode(txCtx)
		if err != nil {
			return err
		}
		tenant.InviteCode = code

		if err := s.tenants.Create(txCtx, tenant); err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}
		if err := s.categories.SeedDefaults(txCtx, tenant.ID); err != nil {
			return err
		}

		admin, err = s.users.Register(txCtx, tenant.ID, UserInput{
			Email: in.AdminEmail,
			Name:  in.AdminName,
			Role:  entity.RoleAdmin.String(),
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Tenant created", "tenant_id", tenant.ID, "slug", tenant.Slug, "admin_id", admin.ID)
	return tenant, admin, nil
}

// InviteCode returns the admin's tenant invite code
func (s *tenantServiceImpl) InviteCode(ctx context.Context, p *entity.Principal) (string, error) {
	if err := requireAdmin(p); err != nil {
		return "", err
	}
	t, err := s.tenants.GetByID(ctx, p.TenantID)
	if err != nil {
		return "", err
	}
	return t.InviteCode, nil
}

func (s *tenantServiceImpl) uniqueInviteCode(ctx context.Context) (string, error) {
	for i := 0; i < inviteCodeAttempts; i++ {
		code := s.inviteCode()
		taken, err := s.tenants.ExistsInviteCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: no free invite code after %d attempts", apperr.ErrAlreadyExists, inviteCodeAttempts)
}

func randomInviteCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}
