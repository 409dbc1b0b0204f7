package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roasbooster/analytics-backend/internal/reporting"
	"github.com/roasbooster/analytics-backend/pkg/errors"
	redispkg "github.com/roasbooster/analytics-backend/pkg/redis"
)

// todayName keys both the cache entry and the pub/sub channel.
const todayName = "today"

const defaultCacheTTL = 24 * time.Hour

// TodayPayload is the snapshot of the running day pushed to dashboard
// clients.
type TodayPayload struct {
	GeneratedAt time.Time                  `json:"generatedAt"`
	Window      *reporting.WindowReport    `json:"window"`
	Dashboard   *reporting.DashboardReport `json:"dashboard"`
}

// broker is the slice of the redis client the cache uses.
type broker interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Publish(ctx context.Context, channel string, payload any) error
	CacheKey(name string) string
	StreamChannel(name string) string
}

// Cache stores the latest today payload in redis and fans it out over
// pub/sub so connected stream clients see updates without polling.
type Cache struct {
	client broker
	ttl    time.Duration
}

// NewCache builds the today cache over the shared redis client.
func NewCache(client broker) *Cache {
	return &Cache{client: client, ttl: defaultCacheTTL}
}

// StoreToday caches the payload and publishes it to subscribers. The
// published body is the exact cached JSON, so relays never re-encode.
func (c *Cache) StoreToday(ctx context.Context, payload *TodayPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding today payload: %w", err)
	}

	if err := c.client.Set(ctx, c.client.CacheKey(todayName), string(body), c.ttl); err != nil {
		return fmt.Errorf("caching today payload: %w", err)
	}
	if err := c.client.Publish(ctx, c.client.StreamChannel(todayName), string(body)); err != nil {
		return fmt.Errorf("publishing today payload: %w", err)
	}
	return nil
}

// LoadTodayRaw returns the cached JSON body, or a not-found error when
// no payload has been generated yet.
func (c *Cache) LoadTodayRaw(ctx context.Context) (string, error) {
	body, err := c.client.Get(ctx, c.client.CacheKey(todayName))
	if err != nil {
		if redispkg.IsNil(err) {
			return "", errors.New(errors.CodeNotFound, "today report not generated yet")
		}
		return "", fmt.Errorf("reading today payload: %w", err)
	}
	return body, nil
}

// LoadToday decodes the cached payload.
func (c *Cache) LoadToday(ctx context.Context) (*TodayPayload, error) {
	body, err := c.LoadTodayRaw(ctx)
	if err != nil {
		return nil, err
	}

	var payload TodayPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("decoding today payload: %w", err)
	}
	return &payload, nil
}
