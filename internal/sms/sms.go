// Package sms delivers one-time codes to phone numbers.
package sms

import (
	"context"
	"fmt"

	"github.com/neven/neven/internal/config"
	"github.com/neven/neven/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Sender dispatches an OTP to a phone number. Implementations other than
// LogSender must never log the code.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// NewSender picks the dispatcher for cfg. Outside production a missing API key
// or a failed send falls back to logging the code; in production the Fast2SMS
// client is used alone.
func NewSender(cfg *config.Config, logger *logrus.Logger) (Sender, error) {
	if cfg.IsProduction() {
		if cfg.SMS.Fast2SMSAPIKey == "" {
			return nil, fmt.Errorf("sms: FAST2SMS_API_KEY is required in production")
		}
		return NewFast2SMSClient(cfg.SMS.Fast2SMSAPIKey, cfg.SMS.Fast2SMSURL), nil
	}

	logSender := NewLogSender(logger)
	if cfg.SMS.Fast2SMSAPIKey == "" {
		logger.Warn("FAST2SMS_API_KEY not set: OTP codes will be written to the log")
		return logSender, nil
	}

	return &FallbackSender{
		Primary:  NewFast2SMSClient(cfg.SMS.Fast2SMSAPIKey, cfg.SMS.Fast2SMSURL),
		Fallback: logSender,
		logger:   logger,
	}, nil
}

// LogSender writes the code to the log. Development only.
type LogSender struct {
	logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOTP(_ context.Context, phone, code string) error {
	s.logger.WithFields(logrus.Fields{
		"phone": phone,
		"otp":   code,
	}).Warn("OTP generated (logged for development, SMS not sent)")
	metrics.SMSDispatchTotal.WithLabelValues("log", "sent").Inc()
	return nil
}

// FallbackSender tries Primary and hands the code to Fallback when it fails.
type FallbackSender struct {
	Primary  Sender
	Fallback Sender
	logger   *logrus.Logger
}

func (s *FallbackSender) SendOTP(ctx context.Context, phone, code string) error {
	err := s.Primary.SendOTP(ctx, phone, code)
	if err == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.WithError(err).Warn("SMS dispatch failed, using fallback sender")
	}
	return s.Fallback.SendOTP(ctx, phone, code)
}
