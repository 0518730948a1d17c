// Package cache keeps recently read candidates in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
	"github.com/talentvault/talentvault-backend/pkg/config"
	"github.com/talentvault/talentvault-backend/pkg/logger"
	"github.com/talentvault/talentvault-backend/pkg/metrics"
)

const keyPrefix = "talentvault:candidate:"

// CandidateCache is a best-effort read-through cache. Backend failures are
// logged and reported as misses.
type CandidateCache interface {
	Get(ctx context.Context, id int64) (*domain.Candidate, bool)
	Set(ctx context.Context, c *domain.Candidate)
	Invalidate(ctx context.Context, id int64)
}

// NopCache never hits
type NopCache struct{}

func (NopCache) Get(context.Context, int64) (*domain.Candidate, bool) { return nil, false }
func (NopCache) Set(context.Context, *domain.Candidate)               {}
func (NopCache) Invalidate(context.Context, int64)                    {}

// redisAPI is the subset of *redis.Client the cache uses
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCache stores candidates as JSON with a fixed TTL
type RedisCache struct {
	client redisAPI
	ttl    time.Duration
	logger *logger.Logger
}

// New returns a RedisCache when an address is configured, NopCache otherwise.
// The returned close func releases the client.
func New(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (CandidateCache, func() error, error) {
	if !cfg.Enabled() {
		return NopCache{}, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("candidate cache enabled")
	return NewRedisCache(client, cfg.TTL, log), client.Close, nil
}

// NewRedisCache wraps an existing client
func NewRedisCache(client redisAPI, ttl time.Duration, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log.WithComponent("cache"),
	}
}

func key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func (c *RedisCache) Get(ctx context.Context, id int64) (*domain.Candidate, bool) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMiss()
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Int64("candidate_id", id).Msg("cache read failed")
		metrics.CacheMiss()
		return nil, false
	}

	var cand domain.Candidate
	if err := json.Unmarshal(data, &cand); err != nil {
		c.logger.Warn().Err(err).Int64("candidate_id", id).Msg("dropping corrupt cache entry")
		c.Invalidate(ctx, id)
		metrics.CacheMiss()
		return nil, false
	}

	metrics.CacheHit()
	return &cand, true
}

func (c *RedisCache) Set(ctx context.Context, cand *domain.Candidate) {
	data, err := json.Marshal(cand)
	if err != nil {
		c.logger.Warn().Err(err).Int64("candidate_id", cand.ID).Msg("cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key(cand.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("candidate_id", cand.ID).Msg("cache write failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("candidate_id", id).Msg("cache invalidate failed")
	}
}
