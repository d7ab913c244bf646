package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chattat-service/internal/models"
	"chattat-service/internal/telemetry"
)

const requestIDContextKey = "request_id"

// snapshotSource is the batch profile lookup used to enrich messages and
// requests, normally the Redis-backed profile cache.
type snapshotSource interface {
	Snapshots(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.ProfileSnapshot, error)
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *string {
	if val, ok := c.Get("userID"); ok {
		if id, ok := val.(uuid.UUID); ok && id != uuid.Nil {
			value := id.String()
			return &value
		}
	}
	return nil
}

func emitAudit(audit *telemetry.AuditEmitter, c *gin.Context, level, text string) {
	if audit == nil {
		return
	}
	audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

// distinctIDs collapses the author ids of a message page into one batch
// lookup key set.
func distinctIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
