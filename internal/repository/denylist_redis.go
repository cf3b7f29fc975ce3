package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisDenylist records revoked session token ids until the token would have
// expired anyway, so the set stays small.
type RedisDenylist struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisDenylist(client *redis.Client, logger *logrus.Logger) *RedisDenylist {
	return &RedisDenylist{
		client: client,
		logger: logger,
	}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("revoked_token:%s", tokenID)
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		d.logger.WithError(err).Error("Failed to mark token as revoked")
		return fmt.Errorf("failed to mark token as revoked: %w", err)
	}

	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := d.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return exists > 0, nil
}
