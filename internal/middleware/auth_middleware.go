package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/neven/neven/internal/models"
	"github.com/neven/neven/internal/service"
	"github.com/sirupsen/logrus"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier is the part of the token service the middleware needs.
type TokenVerifier interface {
	Extract(r *http.Request, cookieName string) (string, bool)
	VerifyContext(ctx context.Context, token string) (*models.SessionIdentity, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
	logger *logrus.Logger
}

func NewAuthMiddleware(tokens TokenVerifier, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// RequireRole rejects requests without a valid session for role. A missing
// token, an invalid token and a token for another role all get the same 401.
func (m *AuthMiddleware) RequireRole(role models.Role, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := m.Authenticate(r, role, cookieName)
			if err != nil {
				m.logger.WithError(err).WithField("path", r.URL.Path).Debug("Request not authenticated")
				respondUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// Authenticate resolves the session for role without writing a response.
func (m *AuthMiddleware) Authenticate(r *http.Request, role models.Role, cookieName string) (*models.SessionIdentity, error) {
	token, ok := m.tokens.Extract(r, cookieName)
	if !ok {
		return nil, service.ErrUnauthenticated
	}

	identity, err := m.tokens.VerifyContext(r.Context(), token)
	if err != nil {
		return nil, service.ErrInvalidSession
	}

	if identity.Role != role {
		return nil, service.ErrInvalidSession
	}

	return identity, nil
}

// IdentityFromContext returns the identity stored by RequireRole.
func IdentityFromContext(ctx context.Context) (*models.SessionIdentity, bool) {
	identity, ok := ctx.Value(identityKey).(*models.SessionIdentity)
	return identity, ok && identity != nil
}

// WithIdentity stores identity in ctx the way RequireRole does.
func WithIdentity(ctx context.Context, identity *models.SessionIdentity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func respondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": "Invalid or missing session",
		},
	})
}
