// Package auth resolves request principals from signed bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// MinSecretLength is the shortest accepted HMAC secret, in bytes
const MinSecretLength = 32

// Config configures token signing and verification
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Claims carries the user id in the subject and the tenant id alongside it
type Claims struct {
	TenantID string `json:"tid"`
	jwt.RegisteredClaims
}

// JWTProvider issues HS256 tokens and authenticates them against the user
// store, so role and active flag always come from the stored user
type JWTProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	users  port.UserRepository
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a JWTProvider
type Option func(*JWTProvider)

// WithClock replaces time.Now for issuing and expiry checks
func WithClock(now func() time.Time) Option {
	return func(p *JWTProvider) {
		p.now = now
	}
}

// NewJWTProvider creates a provider. The secret must be at least MinSecretLength bytes.
func NewJWTProvider(cfg Config, users port.UserRepository, logger *zap.Logger, opts ...Option) (*JWTProvider, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}

	p := &JWTProvider{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		users:  users,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Issue mints a token for user
func (p *JWTProvider) Issue(user *entity.User) (string, error) {
	if user == nil || user.ID == "" || user.TenantID == "" {
		return "", fmt.Errorf("%w: user id and tenant id are required", apperr.ErrValidation)
	}

	now := p.now()
	claims := Claims{
		TenantID: user.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies credential and loads the user it names
func (p *JWTProvider) Authenticate(ctx context.Context, credential string) (*entity.Principal, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: missing token", apperr.ErrUnauthenticated)
	}

	var claims Claims
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(p.issuer))
	}

	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnauthenticated, tokenProblem(err))
	}
	if claims.Subject == "" || claims.TenantID == "" {
		return nil, fmt.Errorf("%w: token has no subject or tenant", apperr.ErrUnauthenticated)
	}

	user, err := p.users.GetByID(ctx, claims.TenantID, claims.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown user", apperr.ErrUnauthenticated)
	}
	if err != nil {
		p.logger.Error("Failed to load token subject",
			zap.String("tenant_id", claims.TenantID),
			zap.String("user_id", claims.Subject),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: user is inactive", apperr.ErrUnauthenticated)
	}

	return user.Principal(), nil
}

func tokenProblem(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "wrong issuer"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unsupported signing method"
	default:
		return "malformed token"
	}
}

// Verify interface compliance
var (
	_ port.IdentityProvider = (*JWTProvider)(nil)
	_ port.TokenIssuer      = (*JWTProvider)(nil)
)
