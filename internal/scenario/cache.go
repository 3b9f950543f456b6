package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pathwise/progression/internal/domain"
)

// ErrCacheMiss is returned when the requested key is not found in cache.
var ErrCacheMiss = errors.New("cache: key not found")

// DefaultScenarioTTL bounds how stale a cached scenario may get. Scenarios
// change only through authoring imports, so reads tolerate a long TTL.
const DefaultScenarioTTL = 10 * time.Minute

const keyPrefix = "scenario:"

// Cache is a read-through cache for scenario templates backed by Redis.
// Scenarios are read on every program start and task completion but written
// only by the importer, which invalidates on upsert.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a scenario cache. A zero ttl falls back to
// DefaultScenarioTTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultScenarioTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get retrieves a cached scenario. Returns ErrCacheMiss if absent.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*domain.Scenario, error) {
	data, err := c.client.Get(ctx, scenarioKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var s domain.Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("cache: decode scenario: %w", err)
	}
	return &s, nil
}

// Set stores a scenario with the cache TTL.
func (c *Cache) Set(ctx context.Context, s *domain.Scenario) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cache: encode scenario: %w", err)
	}
	return c.client.Set(ctx, scenarioKey(s.ID), data, c.ttl).Err()
}

// Invalidate drops a scenario from the cache after an import overwrites it.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, scenarioKey(id)).Err()
}

// Ping checks that Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func scenarioKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}
