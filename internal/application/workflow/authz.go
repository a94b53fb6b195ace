package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

var (
	approverRoles   = []entity.Role{entity.RoleManager, entity.RoleFinance, entity.RoleAdmin}
	reimburserRoles = []entity.Role{entity.RoleFinance, entity.RoleAdmin}
)

// ApproverRoles lists the roles that may approve or reject
func ApproverRoles() []entity.Role {
	return append([]entity.Role(nil), approverRoles...)
}

// ReimburserRoles lists the roles that may reimburse
func ReimburserRoles() []entity.Role {
	return append([]entity.Role(nil), reimburserRoles...)
}

// RequireActive rejects a missing or deactivated principal
func RequireActive(p *entity.Principal) error {
	if p == nil || p.UserID == "" || p.TenantID == "" {
		return fmt.Errorf("%w: no principal", apperr.ErrUnauthenticated)
	}
	if !p.Active {
		return fmt.Errorf("%w: user %s is inactive", apperr.ErrUnauthenticated, p.UserID)
	}
	return nil
}

// RequireRole fails with apperr.ErrForbidden unless p holds one of roles
func RequireRole(p *entity.Principal, roles ...entity.Role) error {
	if !p.HasRole(roles...) {
		return fmt.Errorf("%w: role %s may not perform this action", apperr.ErrForbidden, p.Role)
	}
	return nil
}

// requiredRoles is the role gate applied before a record is loaded
func requiredRoles(trigger domainwf.Trigger) []entity.Role {
	switch trigger {
	case domainwf.TriggerApprove, domainwf.TriggerReject:
		return approverRoles
	case domainwf.TriggerReimburse:
		return reimburserRoles
	default:
		return nil
	}
}

func subjectFor(p *entity.Principal, exp *entity.Expense) domainwf.Subject {
	return domainwf.Subject{
		ActorID:   p.UserID,
		ActorRole: p.Role.String(),
		OwnerID:   exp.UserID,
	}
}

func ownerOnly(_ context.Context, s domainwf.Subject) error {
	if !s.IsOwner() {
		return fmt.Errorf("%w: only the owner may do this", apperr.ErrForbidden)
	}
	return nil
}

func notOwner(_ context.Context, s domainwf.Subject) error {
	if s.IsOwner() {
		return fmt.Errorf("%w: cannot act on your own expense", apperr.ErrForbidden)
	}
	return nil
}

func roleIn(roles ...entity.Role) domainwf.GuardFunc {
	return func(_ context.Context, s domainwf.Subject) error {
		if !entity.Role(s.ActorRole).In(roles...) {
			return fmt.Errorf("%w: role %s may not perform this action", apperr.ErrForbidden, s.ActorRole)
		}
		return nil
	}
}
