package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "revoked:session:"

// SessionRevocationCache records terminated session IDs so validation can
// reject them without a database read. Entries carry a TTL equal to the
// remaining session lifetime; after that the row's own expiry takes over.
type SessionRevocationCache struct {
	client *redis.Client
}

// NewSessionRevocationCache creates a revocation cache on top of client
func NewSessionRevocationCache(client *redis.Client) *SessionRevocationCache {
	return &SessionRevocationCache{client: client}
}

// RevokeSession marks a session as revoked for ttl
func (c *SessionRevocationCache) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	key := revocationKeyPrefix + sessionID
	if err := c.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session revocation: %w", err)
	}
	return nil
}

// IsSessionRevoked checks whether a session has been revoked
func (c *SessionRevocationCache) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	key := revocationKeyPrefix + sessionID
	err := c.client.Get(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
