package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chattat-service/internal/models"
)

const keyPrefix = "profile:snapshot:"

// SnapshotSource is the underlying batch profile lookup, normally the
// profile repository.
type SnapshotSource interface {
	Snapshots(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.ProfileSnapshot, error)
}

// ProfileCache is a read-through Redis cache for profile snapshots, used by
// message enrichment and presence resolution. With no Redis client it
// degrades to a transparent pass-through.
type ProfileCache struct {
	source SnapshotSource
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProfileCache constructs a ProfileCache. client may be nil.
func NewProfileCache(source SnapshotSource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProfileCache {
	return &ProfileCache{source: source, client: client, ttl: ttl, logger: logger}
}

// Snapshots serves from Redis where possible and falls back to the source
// for misses, repopulating the cache. Cache failures are logged and treated
// as misses, never surfaced to the caller.
func (c *ProfileCache) Snapshots(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.ProfileSnapshot, error) {
	if c.client == nil || len(userIDs) == 0 {
		return c.source.Snapshots(ctx, userIDs)
	}

	result := make(map[uuid.UUID]models.ProfileSnapshot, len(userIDs))
	missing := make([]uuid.UUID, 0, len(userIDs))

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = keyPrefix + id.String()
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("profile cache read failed", zap.Error(err))
		return c.source.Snapshots(ctx, userIDs)
	}

	for i, val := range values {
		raw, ok := val.(string)
		if !ok {
			missing = append(missing, userIDs[i])
			continue
		}
		var snapshot models.ProfileSnapshot
		if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
			missing = append(missing, userIDs[i])
			continue
		}
		result[userIDs[i]] = snapshot
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.source.Snapshots(ctx, missing)
	if err != nil {
		return nil, err
	}

	pipe := c.client.Pipeline()
	for id, snapshot := range fetched {
		result[id] = snapshot
		if payload, err := json.Marshal(snapshot); err == nil {
			pipe.Set(ctx, keyPrefix+id.String(), payload, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("profile cache write failed", zap.Error(err))
	}

	return result, nil
}

// Invalidate drops a cached snapshot after a profile mutation.
func (c *ProfileCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+userID.String()).Err(); err != nil {
		c.logger.Warn("profile cache invalidate failed", zap.Error(err))
	}
}
