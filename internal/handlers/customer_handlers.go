package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neven/neven/internal/middleware"
	"github.com/neven/neven/internal/models"
	"github.com/neven/neven/internal/repository"
	"github.com/neven/neven/internal/service"
	"github.com/neven/neven/internal/sms"
	"github.com/sirupsen/logrus"
)

// OTPManager is the OTP service surface the customer handlers use.
type OTPManager interface {
	Issue(ctx context.Context, phone string, ttl time.Duration) (string, error)
	Verify(ctx context.Context, phone, code string) (bool, error)
	Delete(ctx context.Context, phone string) error
}

type CustomerHandlers struct {
	customers repository.CustomerRepository
	otp       OTPManager
	sender    sms.Sender
	sessions  SessionManager
	cookies   CookieOptions
	otpTTL    time.Duration
	logger    *logrus.Logger
}

func NewCustomerHandlers(
	customers repository.CustomerRepository,
	otp OTPManager,
	sender sms.Sender,
	sessions SessionManager,
	cookies CookieOptions,
	otpTTL time.Duration,
	logger *logrus.Logger,
) *CustomerHandlers {
	return &CustomerHandlers{
		customers: customers,
		otp:       otp,
		sender:    sender,
		sessions:  sessions,
		cookies:   cookies,
		otpTTL:    otpTTL,
		logger:    logger,
	}
}

type SendOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type CustomerLoginRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type CustomerSignupRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Name  string `json:"name" validate:"required,max=100"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type CustomerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type CustomerSessionResponse struct {
	Success   bool             `json:"success"`
	Token     string           `json:"token"`
	TokenType string           `json:"token_type"`
	ExpiresIn int64            `json:"expires_in"`
	Customer  CustomerResponse `json:"customer"`
}

type CustomerMeResponse struct {
	Customer CustomerResponse `json:"customer"`
}

func toCustomerResponse(customer *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:    customer.ID,
		Name:  customer.Name,
		Phone: customer.Phone,
		Email: customer.Email,
	}
}

func (h *CustomerHandlers) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := decodeAndValidate(r, &req, func() {
		req.Phone = normalizePhone(req.Phone)
	}); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_PHONE", "Valid phone number is required")
		return
	}

	code, err := h.otp.Issue(r.Context(), req.Phone, h.otpTTL)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate OTP")
		respondWithError(w, http.StatusInternalServerError, "OTP_GENERATION_FAILED", "Failed to send OTP. Please try again.")
		return
	}

	if err := h.sender.SendOTP(r.Context(), req.Phone, code); err != nil {
		h.logger.WithError(err).WithField("phone", req.Phone).Error("Failed to dispatch OTP")
		if delErr := h.otp.Delete(r.Context(), req.Phone); delErr != nil {
			h.logger.WithError(delErr).Warn("Failed to discard undelivered OTP")
		}
		respondWithError(w, http.StatusInternalServerError, "OTP_DELIVERY_FAILED", "Failed to send OTP. Please try again.")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "OTP sent to your phone",
	})
}

func (h *CustomerHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req CustomerSignupRequest
	if err := decodeAndValidate(r, &req, func() {
		req.Phone = normalizePhone(req.Phone)
		req.Name = strings.TrimSpace(req.Name)
		req.OTP = strings.TrimSpace(req.OTP)
	}); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if !h.consumeOTP(w, r, req.Phone, req.OTP) {
		return
	}

	existing, err := h.customers.GetByPhone(r.Context(), req.Phone)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up customer")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account")
		return
	}
	if existing != nil {
		respondWithError(w, http.StatusConflict, "ACCOUNT_EXISTS", "Account already exists. Please login.")
		return
	}

	customer := &models.Customer{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := h.customers.Create(r.Context(), customer); err != nil {
		if errors.Is(err, repository.ErrCustomerExists) {
			respondWithError(w, http.StatusConflict, "ACCOUNT_EXISTS", "Account already exists. Please login.")
			return
		}
		h.logger.WithError(err).Error("Failed to create customer")
		respondWithError(w, http.StatusInternalServerError, "USER_CREATION_FAILED", "Failed to create account")
		return
	}

	h.startSession(w, customer)
}

func (h *CustomerHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req CustomerLoginRequest
	if err := decodeAndValidate(r, &req, func() {
		req.Phone = normalizePhone(req.Phone)
		req.OTP = strings.TrimSpace(req.OTP)
	}); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if !h.consumeOTP(w, r, req.Phone, req.OTP) {
		return
	}

	customer, err := h.customers.GetByPhone(r.Context(), req.Phone)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up customer")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if customer == nil {
		respondWithError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found. Please sign up first.")
		return
	}
	if !customer.IsActive {
		respondWithError(w, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled")
		return
	}

	h.startSession(w, customer)
}

// Me returns the current customer record. Must be mounted behind RequireRole(customer).
func (h *CustomerHandlers) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session")
		return
	}

	customer, err := h.customers.GetByID(r.Context(), identity.SubjectID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load customer for session")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	if customer == nil {
		respondWithError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found")
		return
	}
	if !customer.IsActive {
		h.logger.WithField("customer_id", identity.SubjectID).Warn("Session refers to a disabled customer")
		respondWithError(w, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled")
		return
	}

	respondWithJSON(w, http.StatusOK, CustomerMeResponse{Customer: toCustomerResponse(customer)})
}

func (h *CustomerHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	revokeSession(r, h.sessions, models.RoleCustomer, service.CustomerCookieName, h.logger)
	clearSessionCookie(w, service.CustomerCookieName, h.cookies)

	respondWithJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// consumeOTP verifies and then discards the code, writing the error response
// itself when verification does not succeed.
func (h *CustomerHandlers) consumeOTP(w http.ResponseWriter, r *http.Request, phone, code string) bool {
	valid, err := h.otp.Verify(r.Context(), phone, code)
	if err != nil {
		h.logger.WithError(err).Error("Failed to verify OTP")
		respondWithError(w, http.StatusInternalServerError, "OTP_VERIFICATION_FAILED", "Failed to verify OTP")
		return false
	}
	if !valid {
		respondWithError(w, http.StatusUnauthorized, "INVALID_OTP", "Invalid or expired OTP")
		return false
	}

	if err := h.otp.Delete(r.Context(), phone); err != nil {
		h.logger.WithError(err).Warn("Failed to clear used OTP")
	}
	return true
}

func (h *CustomerHandlers) startSession(w http.ResponseWriter, customer *models.Customer) {
	token, err := h.sessions.IssueFor(customer.ID, models.RoleCustomer, map[string]string{
		"phone": customer.Phone,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue customer session")
		respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to create session")
		return
	}

	ttl := h.sessions.TTLFor(models.RoleCustomer)
	setSessionCookie(w, service.CustomerCookieName, token, ttl, h.cookies)

	respondWithJSON(w, http.StatusOK, CustomerSessionResponse{
		Success:   true,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(ttl.Seconds()),
		Customer:  toCustomerResponse(customer),
	})
}
