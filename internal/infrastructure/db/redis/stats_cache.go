package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadbook/crm-api/internal/core/ports"
)

const (
	defaultStatsTTL = time.Minute
	keyPrefix       = "crm:stats:"
	generationKey   = keyPrefix + "generation"
)

// StatsCache stores dashboard snapshots in Redis.
// Key format: crm:stats:<generation>:<key>
//
// Invalidate bumps the generation counter instead of scanning keys, so stale
// entries become unreachable at once and expire on their own TTL.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration

	// OnLookup, when set, is told whether each Get was a hit.
	OnLookup func(hit bool)
}

var _ ports.StatsCache = (*StatsCache)(nil)

// NewStatsCache creates a StatsCache wrapping the given Redis client. A
// non-positive ttl falls back to one minute.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get looks key up in the current generation and returns that generation
// alongside the entry so the caller can hand it back to Set.
func (s *StatsCache) Get(ctx context.Context, key string) (*ports.DashboardStats, int64, bool, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	raw, err := s.client.Get(ctx, entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		s.observe(false)
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("stats cache get: %w", err)
	}

	var stats ports.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		s.observe(false)
		return nil, gen, false, nil
	}
	s.observe(true)
	return &stats, gen, true, nil
}

// Set stores stats under gen. If Invalidate ran since the Get that returned
// gen, the entry lands in a retired generation and is never read.
func (s *StatsCache) Set(ctx context.Context, gen int64, key string, stats *ports.DashboardStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("stats cache encode: %w", err)
	}
	if err := s.client.Set(ctx, entryKey(gen, key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("stats cache set: %w", err)
	}
	return nil
}

func (s *StatsCache) Invalidate(ctx context.Context) error {
	if err := s.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("stats cache invalidate: %w", err)
	}
	return nil
}

func (s *StatsCache) generation(ctx context.Context) (int64, error) {
	gen, err := s.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stats cache generation: %w", err)
	}
	return gen, nil
}

func (s *StatsCache) observe(hit bool) {
	if s.OnLookup != nil {
		s.OnLookup(hit)
	}
}

func entryKey(gen int64, key string) string {
	return keyPrefix + strconv.FormatInt(gen, 10) + ":" + key
}
