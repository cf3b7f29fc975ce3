package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/neven/neven/internal/config"
	"github.com/neven/neven/internal/metrics"
	"github.com/neven/neven/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpMin   = 100000
	otpRange = 900000
)

// OTPStore keeps at most one entry per phone. Set overwrites any previous
// entry and resets its attempt counter. Get returns nil, nil when absent.
type OTPStore interface {
	Set(ctx context.Context, entry models.OTPEntry, ttl time.Duration) error
	Get(ctx context.Context, phone string) (*models.OTPEntry, error)
	Delete(ctx context.Context, phone string) (bool, error)
	IncrementAttempts(ctx context.Context, phone string) (int, error)
}

type OTPService struct {
	store  OTPStore
	cfg    *config.OTPConfig
	now    func() time.Time
	random io.Reader
	logger *logrus.Logger
}

// NewOTPService refuses a test-mode configuration in production.
func NewOTPService(store OTPStore, cfg *config.OTPConfig, production bool, logger *logrus.Logger) (*OTPService, error) {
	if cfg.TestMode {
		if production {
			return nil, fmt.Errorf("otp test mode cannot be enabled in production")
		}
		logger.Warn("OTP TEST MODE IS ACTIVE: a fixed bypass code is accepted for every phone number")
	}

	return &OTPService{
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		random: rand.Reader,
		logger: logger,
	}, nil
}

// Issue generates a fresh 6-digit code for phone, replacing any outstanding
// one, and returns it for dispatch. ttl <= 0 uses the configured expiry.
func (s *OTPService) Issue(ctx context.Context, phone string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.cfg.Expiry
	}

	code, err := s.generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash OTP: %w", err)
	}

	now := s.now()
	entry := models.OTPEntry{
		Phone:     phone,
		CodeHash:  string(hashed),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.store.Set(ctx, entry, ttl); err != nil {
		s.logger.WithError(err).Error("Failed to store OTP")
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}

	metrics.OTPIssuedTotal.Inc()
	return code, nil
}

// Verify reports whether code is the live code for phone. Absent, expired,
// mismatched and locked codes all return false with a nil error; only store
// failures produce an error.
func (s *OTPService) Verify(ctx context.Context, phone, code string) (bool, error) {
	if s.cfg.TestMode && code == s.cfg.TestCode {
		s.logger.WithField("phone", phone).Warn("OTP accepted via test-mode bypass code")
		metrics.OTPVerificationsTotal.WithLabelValues("bypass").Inc()
		if s.cfg.SingleUse {
			if _, err := s.store.Delete(ctx, phone); err != nil {
				s.logger.WithError(err).Warn("Failed to clear OTP after bypass")
			}
		}
		return true, nil
	}

	entry, err := s.store.Get(ctx, phone)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get OTP")
		return false, fmt.Errorf("failed to get OTP: %w", err)
	}

	if entry == nil {
		return s.reject(phone, ErrOTPNotFound, "not_found"), nil
	}

	if entry.Expired(s.now()) {
		if _, err := s.store.Delete(ctx, phone); err != nil {
			return false, fmt.Errorf("failed to delete expired OTP: %w", err)
		}
		return s.reject(phone, ErrOTPExpired, "expired"), nil
	}

	if s.cfg.MaxAttempts > 0 && entry.Attempts >= s.cfg.MaxAttempts {
		if _, err := s.store.Delete(ctx, phone); err != nil {
			return false, fmt.Errorf("failed to delete locked OTP: %w", err)
		}
		return s.reject(phone, errors.New("maximum attempts exceeded"), "locked"), nil
	}

	if bcrypt.CompareHashAndPassword([]byte(entry.CodeHash), []byte(code)) != nil {
		attempts, err := s.store.IncrementAttempts(ctx, phone)
		if err != nil {
			return false, fmt.Errorf("failed to record OTP attempt: %w", err)
		}
		if s.cfg.MaxAttempts > 0 && attempts >= s.cfg.MaxAttempts {
			if _, err := s.store.Delete(ctx, phone); err != nil {
				return false, fmt.Errorf("failed to delete locked OTP: %w", err)
			}
		}
		return s.reject(phone, ErrOTPMismatch, "mismatch"), nil
	}

	if s.cfg.SingleUse {
		// Only the caller that removes the entry wins a concurrent double submit.
		removed, err := s.store.Delete(ctx, phone)
		if err != nil {
			return false, fmt.Errorf("failed to consume OTP: %w", err)
		}
		if !removed {
			return s.reject(phone, ErrOTPNotFound, "not_found"), nil
		}
	}

	metrics.OTPVerificationsTotal.WithLabelValues("ok").Inc()
	return true, nil
}

// Delete removes any outstanding code for phone.
func (s *OTPService) Delete(ctx context.Context, phone string) error {
	if _, err := s.store.Delete(ctx, phone); err != nil {
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	return nil
}

func (s *OTPService) reject(phone string, reason error, result string) bool {
	s.logger.WithError(reason).WithField("phone", phone).Debug("OTP verification failed")
	metrics.OTPVerificationsTotal.WithLabelValues(result).Inc()
	return false
}

func (s *OTPService) generateCode() (string, error) {
	n, err := rand.Int(s.random, big.NewInt(otpRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
