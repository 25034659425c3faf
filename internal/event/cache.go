package event

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const previewKeyPrefix = "gather:invite:"

// PreviewCache keeps invite previews in Redis. A nil cache or client is a no-op.
type PreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPreviewCache(client *redis.Client, ttl time.Duration) *PreviewCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &PreviewCache{client: client, ttl: ttl}
}

func (c *PreviewCache) Get(ctx context.Context, code string) (*EventPreview, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, previewKeyPrefix+code).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ invite preview cache get %s: %v", code, err)
		}
		return nil, false
	}
	var p EventPreview
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *PreviewCache) Set(ctx context.Context, code string, p *EventPreview) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, previewKeyPrefix+code, raw, c.ttl).Err(); err != nil {
		log.Printf("⚠️ invite preview cache set %s: %v", code, err)
	}
}

func (c *PreviewCache) Evict(ctx context.Context, code string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, previewKeyPrefix+code).Err(); err != nil {
		log.Printf("⚠️ invite preview cache evict %s: %v", code, err)
	}
}
