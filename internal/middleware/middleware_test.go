package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neven/neven/internal/config"
	"github.com/neven/neven/internal/models"
	"github.com/neven/neven/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) (*AuthMiddleware, *service.TokenService) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tokens, err := service.NewTokenService(&config.JWTConfig{
		SecretKey:          "middleware-test-secret-0123456789abcdef",
		AdminSessionTTL:    time.Hour,
		CustomerSessionTTL: time.Hour,
	}, nil, logger)
	require.NoError(t, err)
	return NewAuthMiddleware(tokens, logger), tokens
}

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !assert.True(t, ok) {
			return
		}
		_, _ = w.Write([]byte(identity.SubjectID))
	})
}

func TestRequireRole(t *testing.T) {
	auth, tokens := newTestAuth(t)
	handler := auth.RequireRole(models.RoleAdmin, service.AdminCookieName)(protectedHandler(t))

	adminToken, err := tokens.Issue("admin-1", models.RoleAdmin, nil, time.Hour)
	require.NoError(t, err)
	customerToken, err := tokens.Issue("cust-1", models.RoleCustomer, nil, time.Hour)
	require.NoError(t, err)
	expiredToken, err := tokens.Issue("admin-1", models.RoleAdmin, nil, -time.Minute)
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
		r.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin-1", w.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
		r.AddCookie(&http.Cookie{Name: service.AdminCookieName, Value: adminToken})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	rejected := map[string]func(r *http.Request){
		"missing":    func(r *http.Request) {},
		"garbage":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
		"expired":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expiredToken) },
		"wrong role": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+customerToken) },
		"wrong cookie": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: service.CustomerCookieName, Value: adminToken})
		},
	}

	var firstBody string
	for name, prepare := range rejected {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
			prepare(r)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"UNAUTHORIZED"`)
			if firstBody == "" {
				firstBody = w.Body.String()
			}
			assert.Equal(t, firstBody, w.Body.String())
		})
	}
}

func TestAuthenticate(t *testing.T) {
	auth, tokens := newTestAuth(t)

	token, err := tokens.Issue("cust-1", models.RoleCustomer, map[string]string{"phone": "+919876543210"}, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: service.CustomerCookieName, Value: token})

	identity, err := auth.Authenticate(r, models.RoleCustomer, service.CustomerCookieName)
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", identity.Claim("phone"))

	_, err = auth.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil), models.RoleCustomer, service.CustomerCookieName)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestWithIdentity(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := IdentityFromContext(r.Context())
	assert.False(t, ok)

	ctx := WithIdentity(r.Context(), &models.SessionIdentity{SubjectID: "x", Role: models.RoleAdmin})
	identity, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "x", identity.SubjectID)
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	handler := CORSMiddleware([]string{"https://admin.neven.com", "https://shop.neven.com/"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }),
	)

	r := httptest.NewRequest(http.MethodOptions, "/api/admin/login", nil)
	r.Header.Set("Origin", "https://admin.neven.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, called)
	assert.Equal(t, "https://admin.neven.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/api/customer/me", nil)
	r.Header.Set("Origin", "https://shop.neven.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.True(t, called)
	assert.Equal(t, "https://shop.neven.com", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddlewareIgnoresUnlistedOrigins(t *testing.T) {
	handler := CORSMiddleware([]string{"https://admin.neven.com"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	for _, origin := range []string{"https://evil.example", "https://admin.neven.com.evil.example", "null"} {
		for _, method := range []string{http.MethodGet, http.MethodOptions} {
			r := httptest.NewRequest(method, "/api/customer/me", nil)
			r.Header.Set("Origin", origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), "%s %s", method, origin)
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"), "%s %s", method, origin)
		}
	}
}

func TestCORSMiddlewareWithoutAllowList(t *testing.T) {
	handler := CORSMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	r.Header.Set("Origin", "https://admin.neven.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
