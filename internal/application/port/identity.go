package port

import (
	"context"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// IdentityProvider resolves the acting principal from a request credential.
// Unknown, invalid or inactive identities yield apperr.ErrUnauthenticated.
type IdentityProvider interface {
	Authenticate(ctx context.Context, credential string) (*entity.Principal, error)
}

// TokenIssuer mints credentials that an IdentityProvider accepts
type TokenIssuer interface {
	Issue(user *entity.User) (string, error)
}
