// Package apitoken provides local HS256 bearer-token issuance and
// verification for the host-UI bridge (spec.md §6-EXP). Unlike the
// multi-tenant OIDC setups larger deployments use, a LatticeForge kernel
// instance is a single-operator process: there is no external identity
// provider to federate with, so tokens are signed and checked against a
// single shared secret configured at startup.
package apitoken

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/pkg/errors"
)

// AuthProvider issues and verifies bearer tokens for the kernel's HTTP/gRPC
// surfaces.
type AuthProvider interface {
	IssueToken(subject string, scopes []string) (string, error)
	VerifyToken(ctx context.Context, rawToken string) (*TokenClaims, error)
	Health(ctx context.Context) error
}

// TokenClaims is the claim set a verified bearer token carries.
type TokenClaims struct {
	Subject   string    `json:"sub"`
	Scopes    []string  `json:"scopes"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	Issuer    string    `json:"iss"`
}

// Config configures the token provider.
type Config struct {
	// SigningKey is the shared HS256 secret. Required.
	SigningKey []byte `json:"-"`
	// Issuer is embedded in issued tokens and checked on verification.
	Issuer string `json:"issuer"`
	// TokenTTL is the lifetime applied to tokens minted by IssueToken.
	TokenTTL time.Duration `json:"token_ttl"`
}

type tokenClaims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

type apiTokenProvider struct {
	cfg    Config
	logger logging.Logger
}

// NewAPITokenProvider returns an AuthProvider backed by cfg's shared secret.
func NewAPITokenProvider(cfg Config, logger logging.Logger) (AuthProvider, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, ErrInvalidConfig.WithDetail("SigningKey is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "latticeforge-kernel"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &apiTokenProvider{cfg: cfg, logger: logger}, nil
}

func (p *apiTokenProvider) IssueToken(subject string, scopes []string) (string, error) {
	if subject == "" {
		return "", ErrInvalidConfig.WithDetail("subject is required")
	}
	now := time.Now()
	claims := tokenClaims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    p.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.cfg.SigningKey)
	if err != nil {
		return "", ErrSigningFailed.WithCause(err)
	}
	return signed, nil
}

func (p *apiTokenProvider) VerifyToken(ctx context.Context, rawToken string) (*TokenClaims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.cfg.SigningKey, nil
	}, jwt.WithIssuer(p.cfg.Issuer))

	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		default:
			return nil, ErrTokenMalformed.WithCause(err)
		}
	}
	if !token.Valid {
		return nil, ErrTokenInvalidSignature
	}

	tc := &TokenClaims{
		Subject: claims.Subject,
		Scopes:  claims.Scopes,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		tc.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		tc.ExpiresAt = claims.ExpiresAt.Time
	}
	return tc, nil
}

// Health reports whether the provider is configured correctly. There is no
// external dependency to reach, so this only re-checks its own invariants.
func (p *apiTokenProvider) Health(ctx context.Context) error {
	if len(p.cfg.SigningKey) == 0 {
		return ErrInvalidConfig
	}
	return nil
}

var (
	ErrTokenExpired          = errors.Unauthorized("token expired")
	ErrTokenInvalidSignature = errors.Unauthorized("invalid token signature")
	ErrTokenMalformed        = errors.Unauthorized("malformed token")
	ErrSigningFailed         = errors.Internal("failed to sign token")
	ErrInvalidConfig         = errors.Internal("invalid apitoken configuration")
)
