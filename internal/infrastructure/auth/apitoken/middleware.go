package apitoken

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/pkg/errors"
)

type contextKey string

const (
	ContextKeyClaims contextKey = "auth_claims"
	ContextKeySubject contextKey = "auth_subject"
)

var (
	ErrMissingAuthHeader = errors.Unauthorized("missing authorization header")
	ErrInvalidAuthFormat = errors.Unauthorized("invalid authorization format")
)

// AuthMiddleware authenticates incoming HTTP requests against an
// AuthProvider, mirroring the teacher platform's skip-path/prefix shape but
// without the tenant/role plumbing a single-operator kernel has no use for.
type AuthMiddleware struct {
	provider      AuthProvider
	logger        logging.Logger
	skipPaths     map[string]bool
	skipPrefixes  []string
	onAuthFailure func(w http.ResponseWriter, r *http.Request, err error)
}

// MiddlewareConfig configures AuthMiddleware.
type MiddlewareConfig struct {
	SkipPaths    []string
	SkipPrefixes []string
}

// NewAuthMiddleware returns an AuthMiddleware backed by provider.
func NewAuthMiddleware(provider AuthProvider, logger logging.Logger, cfg MiddlewareConfig) *AuthMiddleware {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	return &AuthMiddleware{
		provider:      provider,
		logger:        logger,
		skipPaths:     skip,
		skipPrefixes:  cfg.SkipPrefixes,
		onAuthFailure: defaultAuthFailureHandler,
	}
}

// MiddlewareOption applies optional AuthMiddleware behavior.
type MiddlewareOption func(*AuthMiddleware)

func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(mw *AuthMiddleware) {
		for _, p := range paths {
			mw.skipPaths[p] = true
		}
	}
}

func WithAuthFailureHandler(handler func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(mw *AuthMiddleware) { mw.onAuthFailure = handler }
}

// Handler wraps next with bearer-token authentication.
func (mw *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mw.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		for _, prefix := range mw.skipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		token, err := extractBearerToken(r)
		if err != nil {
			mw.handleError(w, r, err)
			return
		}

		claims, err := mw.provider.VerifyToken(r.Context(), token)
		if err != nil {
			mw.handleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
		ctx = context.WithValue(ctx, ContextKeySubject, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandlerFunc is a convenience wrapper over Handler for http.HandlerFunc.
func (mw *AuthMiddleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mw.Handler(next).ServeHTTP(w, r)
	}
}

func (mw *AuthMiddleware) handleError(w http.ResponseWriter, r *http.Request, err error) {
	mw.logger.Warn("authentication failed",
		logging.String("path", r.URL.Path),
		logging.String("remote_addr", r.RemoteAddr),
		logging.Err(err),
	)
	mw.onAuthFailure(w, r, err)
}

func extractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingAuthHeader
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidAuthFormat
	}
	return strings.TrimPrefix(auth, "Bearer "), nil
}

func defaultAuthFailureHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")

	code := errors.GetCode(err)
	status := code.HTTPStatus()
	if status == 0 {
		status = http.StatusUnauthorized
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code.String(),
		"message": err.Error(),
	})
}

// ClaimsFromContext retrieves the verified TokenClaims injected by Handler.
func ClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	c, ok := ctx.Value(ContextKeyClaims).(*TokenClaims)
	return c, ok
}

// SubjectFromContext retrieves the authenticated subject.
func SubjectFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeySubject).(string)
	return v, ok
}

// HasScope reports whether claims grants scope.
func HasScope(claims *TokenClaims, scope string) bool {
	if claims == nil {
		return false
	}
	for _, s := range claims.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
