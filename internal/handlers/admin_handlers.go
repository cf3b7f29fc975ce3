package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/neven/neven/internal/middleware"
	"github.com/neven/neven/internal/models"
	"github.com/neven/neven/internal/repository"
	"github.com/neven/neven/internal/service"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// dummyPasswordHash is compared against when the email is unknown so both
// failure paths cost one bcrypt comparison.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("neven-dummy-password"), bcrypt.DefaultCost)

type AdminHandlers struct {
	admins   repository.AdminRepository
	sessions SessionManager
	cookies  CookieOptions
	now      func() time.Time
	logger   *logrus.Logger
}

func NewAdminHandlers(
	admins repository.AdminRepository,
	sessions SessionManager,
	cookies CookieOptions,
	logger *logrus.Logger,
) *AdminHandlers {
	return &AdminHandlers{
		admins:   admins,
		sessions: sessions,
		cookies:  cookies,
		now:      time.Now,
		logger:   logger,
	}
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminResponse struct {
	ID          string                  `json:"id"`
	Email       string                  `json:"email"`
	Name        string                  `json:"name"`
	Role        models.AdminRole        `json:"role"`
	Permissions models.AdminPermissions `json:"permissions"`
}

type AdminLoginResponse struct {
	Success   bool          `json:"success"`
	Token     string        `json:"token"`
	TokenType string        `json:"token_type"`
	ExpiresIn int64         `json:"expires_in"`
	Admin     AdminResponse `json:"admin"`
}

type AdminMeResponse struct {
	Authenticated bool          `json:"authenticated"`
	Admin         AdminResponse `json:"admin"`
}

func toAdminResponse(admin *models.Admin) AdminResponse {
	return AdminResponse{
		ID:          admin.ID,
		Email:       admin.Email,
		Name:        admin.Name,
		Role:        admin.Role,
		Permissions: admin.Permissions,
	}
}

func (h *AdminHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decodeAndValidate(r, &req, func() {
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	admin, err := h.admins.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up admin")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	if admin == nil {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(req.Password))
		h.logger.WithField("email", req.Email).Warn("Admin login failed: unknown email")
		respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.WithField("email", req.Email).Warn("Admin login failed: password mismatch")
		respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}

	if !admin.IsActive {
		respondWithError(w, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled")
		return
	}

	if err := h.admins.UpdateLastLogin(r.Context(), admin, h.now().UTC()); err != nil {
		h.logger.WithError(err).Warn("Failed to record admin last login")
	}

	token, err := h.sessions.IssueFor(admin.ID, models.RoleAdmin, map[string]string{
		"email":      admin.Email,
		"admin_role": string(admin.Role),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue admin session")
		respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to create session")
		return
	}

	ttl := h.sessions.TTLFor(models.RoleAdmin)
	setSessionCookie(w, service.AdminCookieName, token, ttl, h.cookies)

	respondWithJSON(w, http.StatusOK, AdminLoginResponse{
		Success:   true,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(ttl.Seconds()),
		Admin:     toAdminResponse(admin),
	})
}

// Me returns the current admin record. Must be mounted behind RequireRole(admin).
func (h *AdminHandlers) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session")
		return
	}

	admin, err := h.admins.GetByID(r.Context(), identity.SubjectID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load admin for session")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	if admin == nil || !admin.IsActive {
		h.logger.WithField("admin_id", identity.SubjectID).Warn("Session refers to a missing or disabled admin")
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session")
		return
	}

	respondWithJSON(w, http.StatusOK, AdminMeResponse{
		Authenticated: true,
		Admin:         toAdminResponse(admin),
	})
}

// Logout always clears the cookie; the token itself is revoked only when a
// denylist is configured.
func (h *AdminHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	revokeSession(r, h.sessions, models.RoleAdmin, service.AdminCookieName, h.logger)
	clearSessionCookie(w, service.AdminCookieName, h.cookies)

	respondWithJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

func revokeSession(r *http.Request, sessions SessionManager, role models.Role, cookieName string, logger *logrus.Logger) {
	token, ok := sessions.Extract(r, cookieName)
	if !ok {
		return
	}

	identity, err := sessions.VerifyContext(r.Context(), token)
	if err != nil || identity.Role != role {
		return
	}

	if err := sessions.Revoke(r.Context(), identity); err != nil {
		logger.WithError(err).Warn("Failed to revoke session on logout")
	}
}
