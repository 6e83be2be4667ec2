package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/skilldesk/lms-api/internal/dto"
)

// AccessCache stores resolved access results in Redis with a short TTL.
// It is shared by the access, enrollment, and payment services so every
// mutation path can invalidate the entry it affects. Cache failures are
// logged and swallowed; the resolver always falls back to the store.
type AccessCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewAccessCache builds the cache wrapper. A nil client disables caching.
func NewAccessCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *AccessCache {
	return &AccessCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "access_cache").Logger(),
	}
}

func accessCacheKey(studentID, courseID uint) string {
	return fmt.Sprintf("access:student:%d:course:%d", studentID, courseID)
}

// Get returns the cached access result for the pair, if present.
func (c *AccessCache) Get(ctx context.Context, studentID, courseID uint) (dto.AccessResult, bool) {
	if c == nil || c.client == nil {
		return dto.AccessResult{}, false
	}

	cached, err := c.client.Get(ctx, accessCacheKey(studentID, courseID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("failed to read access cache")
		}
		return dto.AccessResult{}, false
	}

	var result dto.AccessResult
	if err := json.Unmarshal([]byte(cached), &result); err != nil {
		return dto.AccessResult{}, false
	}

	return result, true
}

// Set stores the access result for the pair.
func (c *AccessCache) Set(ctx context.Context, studentID, courseID uint, result dto.AccessResult) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, accessCacheKey(studentID, courseID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to store access cache")
	}
}

// Invalidate drops the cached entry for the pair. Called on enroll,
// payment application, access grant, and enrollment cancellation.
func (c *AccessCache) Invalidate(ctx context.Context, studentID, courseID uint) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, accessCacheKey(studentID, courseID)).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to invalidate access cache")
	}
}
