package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

// UserInput describes a user to register
type UserInput struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	Name       string `json:"name" validate:"required,max=100"`
	Department string `json:"department" validate:"max=100"`
	Role       string `json:"role" validate:"required,oneof=EMPLOYEE MANAGER FINANCE ADMIN"`
}

// UserService administers the members of a tenant
type UserService interface {
	// List returns every user of the admin's tenant
	List(ctx context.Context, p *entity.Principal) ([]*entity.User, error)

	// UpdateRole changes another user's role
	UpdateRole(ctx context.Context, p *entity.Principal, id string, role string) (*entity.User, error)

	// ToggleActive flips another user's active flag
	ToggleActive(ctx context.Context, p *entity.Principal, id string) (*entity.User, error)

	// UpdateDepartment changes a user's department
	UpdateDepartment(ctx context.Context, p *entity.Principal, id string, department string) (*entity.User, error)

	// Register creates a user in tenantID. It is used by tenant setup and
	// operator tooling, never by request handlers.
	Register(ctx context.Context, tenantID string, in UserInput) (*entity.User, error)
}

type userServiceImpl struct {
	users     port.UserRepository
	txManager port.TransactionManager
	validate  *validator.Validate
	logger    Logger
}

// NewUserService creates a new UserService
func NewUserService(users port.UserRepository, txManager port.TransactionManager, logger Logger) UserService {
	return &userServiceImpl{
		users:     users,
		txManager: txManager,
		validate:  utils.NewValidator(),
		logger:    orNop(logger),
	}
}

// List returns every user of the tenant
func (s *userServiceImpl) List(ctx context.Context, p *entity.Principal) ([]*entity.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.users.List(ctx, p.TenantID)
}

// UpdateRole changes another user's role
func (s *userServiceImpl) UpdateRole(ctx context.Context, p *entity.Principal, id string, role string) (*entity.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	newRole, err := entity.ParseRole(strings.ToUpper(strings.TrimSpace(role)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if id == p.UserID {
		return nil, fmt.Errorf("%w: cannot change your own role", apperr.ErrForbidden)
	}

	u, err := s.modify(ctx, p.TenantID, id, func(u *entity.User) { u.Role = newRole })
	if err != nil {
		return nil, err
	}
	s.logger.Info("User role changed", "tenant_id", p.TenantID, "user_id", id, "role", newRole, "by", p.UserID)
	return u, nil
}

// ToggleActive flips another user's active flag
func (s *userServiceImpl) ToggleActive(ctx context.Context, p *entity.Principal, id string) (*entity.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if id == p.UserID {
		return nil, fmt.Errorf("%w: cannot deactivate yourself", apperr.ErrForbidden)
	}

	u, err := s.modify(ctx, p.TenantID, id, func(u *entity.User) { u.Active = !u.Active })
	if err != nil {
		return nil, err
	}
	s.logger.Info("User active flag changed", "tenant_id", p.TenantID, "user_id", id, "active", u.Active, "by", p.UserID)
	return u, nil
}

// UpdateDepartment changes a user's department
func (s *userServiceImpl) UpdateDepartment(ctx context.Context, p *entity.Principal, id string, department string) (*entity.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	department = utils.SanitizeString(department)
	if len([]rune(department)) > entity.DepartmentMaxLen {
		return nil, fmt.Errorf("%w: department: must be at most %d characters", apperr.ErrValidation, entity.DepartmentMaxLen)
	}

	return s.modify(ctx, p.TenantID, id, func(u *entity.User) { u.Department = department })
}

// Register creates a user in tenantID
func (s *userServiceImpl) Register(ctx context.Context, tenantID string, in UserInput) (*entity.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = utils.SanitizeString(in.Name)
	in.Department = utils.SanitizeString(in.Department)
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, utils.ValidationMessage(err))
	}

	now := time.Now().UTC()
	u := &entity.User{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Email:      in.Email,
		Name:       in.Name,
		Department: in.Department,
		Role:       entity.Role(in.Role),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := s.users.GetByEmail(txCtx, tenantID, u.Email)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user %s", apperr.ErrAlreadyExists, u.Email)
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
		return s.users.Create(txCtx, u)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "tenant_id", tenantID, "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *userServiceImpl) modify(ctx context.Context, tenantID, id string, change func(*entity.User)) (*entity.User, error) {
	var u *entity.User
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		u, err = s.users.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		change(u)
		u.UpdatedAt = time.Now().UTC()
		return s.users.Update(txCtx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
