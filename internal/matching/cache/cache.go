// Package cache stores partner summaries in Redis so repeated match queries
// skip a store round trip. The cache is advisory: the registrant store stays
// the single source of truth, and every write path that could change a
// pairing invalidates the affected keys.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/redis"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/models"
	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
)

// SummaryCache caches the partner summary per registrant. A nil *SummaryCache
// is valid and behaves as a permanent miss, so callers need no nil checks of
// their own wiring.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a cache over the given client. Returns nil when the client is
// nil (Redis not configured).
func New(client *redis.Client, ttl time.Duration) *SummaryCache {
	if client == nil {
		return nil
	}
	return &SummaryCache{client: client, ttl: ttl}
}

func key(registrantID id.RegistrantID) string {
	return "match:summary:" + registrantID.String()
}

// Get returns the cached partner summary, or ok=false on miss or any Redis
// failure. Failures degrade to a miss; they never fail the request.
func (c *SummaryCache) Get(ctx context.Context, registrantID id.RegistrantID) (*models.Summary, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(registrantID)).Bytes()
	if err != nil {
		return nil, false
	}
	var summary models.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

// Set caches the partner summary for a registrant.
func (c *SummaryCache) Set(ctx context.Context, registrantID id.RegistrantID, summary *models.Summary) error {
	if c == nil || summary == nil {
		return nil
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := c.client.Set(ctx, key(registrantID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached summaries for the given registrants.
func (c *SummaryCache) Invalidate(ctx context.Context, registrantIDs ...id.RegistrantID) error {
	if c == nil || len(registrantIDs) == 0 {
		return nil
	}
	keys := make([]string, len(registrantIDs))
	for i, registrantID := range registrantIDs {
		keys[i] = key(registrantID)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("invalidate summaries: %w", err)
	}
	return nil
}
