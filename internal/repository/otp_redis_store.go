package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neven/neven/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisOTPStore keeps OTP entries in redis with a per-key expiry so codes
// survive restarts and are shared by every instance.
type RedisOTPStore struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisOTPStore(client *redis.Client, logger *logrus.Logger) *RedisOTPStore {
	return &RedisOTPStore{
		client: client,
		logger: logger,
	}
}

func otpKey(phone string) string {
	return fmt.Sprintf("otp:%s", phone)
}

func otpAttemptsKey(phone string) string {
	return fmt.Sprintf("otp:attempts:%s", phone)
}

func (s *RedisOTPStore) Set(ctx context.Context, entry models.OTPEntry, ttl time.Duration) error {
	entry.Attempts = 0
	dataJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP data: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, otpKey(entry.Phone), dataJSON, ttl)
		pipe.Del(ctx, otpAttemptsKey(entry.Phone))
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to store OTP in Redis")
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	return nil
}

func (s *RedisOTPStore) Get(ctx context.Context, phone string) (*models.OTPEntry, error) {
	dataJSON, err := s.client.Get(ctx, otpKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	var entry models.OTPEntry
	if err := json.Unmarshal([]byte(dataJSON), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OTP data: %w", err)
	}

	attempts, err := s.client.Get(ctx, otpAttemptsKey(phone)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get OTP attempts: %w", err)
	}
	entry.Attempts = attempts

	return &entry, nil
}

func (s *RedisOTPStore) Delete(ctx context.Context, phone string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, otpKey(phone))
		pipe.Del(ctx, otpAttemptsKey(phone))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete OTP: %w", err)
	}

	return removed.Val() > 0, nil
}

// IncrementAttempts bumps the failed-attempt counter, which expires together
// with the entry. A missing entry reports zero attempts.
func (s *RedisOTPStore) IncrementAttempts(ctx context.Context, phone string) (int, error) {
	ttl, err := s.client.PTTL(ctx, otpKey(phone)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read OTP ttl: %w", err)
	}
	if ttl <= 0 {
		return 0, nil
	}

	var incr *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, otpAttemptsKey(phone))
		pipe.PExpire(ctx, otpAttemptsKey(phone), ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment OTP attempts: %w", err)
	}

	return int(incr.Val()), nil
}
