package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/neven/neven/internal/config"
	"github.com/neven/neven/internal/metrics"
	"github.com/neven/neven/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	AdminCookieName    = "admin_token"
	CustomerCookieName = "customer_token"
)

// Denylist holds token ids that were revoked before their expiry.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenService issues and verifies stateless HS256 session tokens.
//
// Verification needs only the signing secret, so there is no server-side
// session record: a token stays valid until its exp unless a Denylist is
// configured and the token id was revoked. Auxiliary claims are copied at
// issuance and are not refreshed until the holder logs in again.
type TokenService struct {
	secretKey   []byte
	adminTTL    time.Duration
	customerTTL time.Duration
	denylist    Denylist
	now         func() time.Time
	logger      *logrus.Logger
}

// NewTokenService fails when the secret is shorter than 32 bytes. denylist may be nil.
func NewTokenService(cfg *config.JWTConfig, denylist Denylist, logger *logrus.Logger) (*TokenService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &TokenService{
		secretKey:   secretKey,
		adminTTL:    cfg.AdminSessionTTL,
		customerTTL: cfg.CustomerSessionTTL,
		denylist:    denylist,
		now:         time.Now,
		logger:      logger,
	}, nil
}

type Claims struct {
	Role  models.Role       `json:"role"`
	Extra map[string]string `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// TTLFor returns the default session lifetime for role.
func (s *TokenService) TTLFor(role models.Role) time.Duration {
	if role == models.RoleAdmin {
		return s.adminTTL
	}
	return s.customerTTL
}

// IssueFor signs a token with the role's default TTL.
func (s *TokenService) IssueFor(subjectID string, role models.Role, claims map[string]string) (string, error) {
	return s.Issue(subjectID, role, claims, s.TTLFor(role))
}

// Issue signs a token for subjectID. A non-positive ttl produces a token that
// is already expired.
func (s *TokenService) Issue(subjectID string, role models.Role, claims map[string]string, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", ErrInvalidSubject
	}
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	now := s.now()
	tokenClaims := &Claims{
		Role:  role,
		Extra: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign session token")
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(role)).Inc()
	return tokenString, nil
}

// Verify checks signature, structure and expiry. Every failure yields
// ErrInvalidSession; the underlying reason is only logged at debug level.
func (s *TokenService) Verify(tokenString string) (*models.SessionIdentity, error) {
	identity, err := s.parse(tokenString)
	if err != nil {
		s.logger.WithError(err).Debug("Session token rejected")
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidSession
	}

	metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
	return identity, nil
}

// VerifyContext is Verify plus the revocation check when a denylist is configured.
// A denylist lookup failure rejects the token.
func (s *TokenService) VerifyContext(ctx context.Context, tokenString string) (*models.SessionIdentity, error) {
	identity, err := s.Verify(tokenString)
	if err != nil || s.denylist == nil {
		return identity, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, identity.TokenID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to check token denylist")
		return nil, ErrInvalidSession
	}
	if revoked {
		metrics.TokenVerificationsTotal.WithLabelValues("revoked").Inc()
		return nil, ErrInvalidSession
	}

	return identity, nil
}

// Revoke denies the identity's token id until it expires. Without a denylist
// this is a no-op and the token remains valid until exp.
func (s *TokenService) Revoke(ctx context.Context, identity *models.SessionIdentity) error {
	if s.denylist == nil || identity == nil || identity.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session token: %w", err)
	}
	return nil
}

// RevocationEnabled reports whether Revoke has any effect.
func (s *TokenService) RevocationEnabled() bool {
	return s.denylist != nil
}

// Extract finds a candidate token in the Authorization bearer header, falling
// back to the named cookie. It does not verify the token.
func (s *TokenService) Extract(r *http.Request, cookieName string) (string, bool) {
	return ExtractToken(r, cookieName)
}

func ExtractToken(r *http.Request, cookieName string) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token, true
			}
		}
	}

	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, true
		}
	}

	return "", false
}

func (s *TokenService) parse(tokenString string) (*models.SessionIdentity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("token has unknown role %q", claims.Role)
	}

	identity := &models.SessionIdentity{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		Claims:    claims.Extra,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}

	return identity, nil
}
