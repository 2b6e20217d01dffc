package webhook

import (
	"context"
	"fmt"
	"time"

	"smartlead_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Deduper tracks provider event IDs so retried webhook deliveries are dropped
// instead of producing duplicate activities. AlreadySeen only reads; callers
// call MarkSeen after processing succeeds, so a failed delivery stays unseen
// and the provider's retry is processed instead of being lost.
type Deduper interface {
	AlreadySeen(ctx context.Context, provider, eventID string) bool
	MarkSeen(ctx context.Context, provider, eventID string)
}

const dedupeTTL = 24 * time.Hour

// RedisDeduper remembers provider event IDs in Redis. It fails open: a Redis
// error means the event is treated as unseen, because a duplicate activity
// beats a silently dropped one.
type RedisDeduper struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisDeduper(client *redis.Client, log *logger.Logger) *RedisDeduper {
	return &RedisDeduper{client: client, log: log}
}

func (d *RedisDeduper) AlreadySeen(ctx context.Context, provider, eventID string) bool {
	if eventID == "" {
		return false
	}

	n, err := d.client.Exists(ctx, dedupeKey(provider, eventID)).Result()
	if err != nil {
		d.log.Warn("webhook dedupe check failed", "provider", provider, "error", err)
		return false
	}

	return n > 0
}

func (d *RedisDeduper) MarkSeen(ctx context.Context, provider, eventID string) {
	if eventID == "" {
		return
	}

	if err := d.client.Set(ctx, dedupeKey(provider, eventID), "1", dedupeTTL).Err(); err != nil {
		d.log.Warn("webhook dedupe mark failed", "provider", provider, "error", err)
	}
}

func dedupeKey(provider, eventID string) string {
	return fmt.Sprintf("webhook:seen:%s:%s", provider, eventID)
}

// NoopDeduper is used when Redis is not configured.
type NoopDeduper struct{}

func (NoopDeduper) AlreadySeen(context.Context, string, string) bool { return false }
func (NoopDeduper) MarkSeen(context.Context, string, string) {}
