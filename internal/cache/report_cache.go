// internal/cache/report_cache.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cmass/marketshare-backend/internal/config"
)

const (
	reportKeyPrefix  = "report:"
	scanBatchSize    = 100
	defaultReportTTL = 5 * time.Minute
)

// ReportCache stores computed report tables keyed by report name and filter.
// Reports are recomputed from the same immutable dataset, so a short TTL is
// purely a latency optimization; staleness only matters across reloads,
// which call InvalidateAll.
type ReportCache interface {
	Get(ctx context.Context, report string, filter any, out any) (bool, error)
	Set(ctx context.Context, report string, filter any, value any) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.ReportTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultReportTTL
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, report string, filter any, out any) (bool, error) {
	payload, err := c.client.Get(ctx, reportKey(report, filter)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode cached report: %w", err)
	}
	return true, nil
}

func (c *redisReportCache) Set(ctx context.Context, report string, filter any, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}
	if err := c.client.Set(ctx, reportKey(report, filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix, scanBatchSize)
}

func (c *noopReportCache) Get(ctx context.Context, report string, filter any, out any) (bool, error) {
	return false, nil
}

func (c *noopReportCache) Set(ctx context.Context, report string, filter any, value any) error {
	return nil
}

func (c *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// reportKey hashes the filter so arbitrary filter structs stay within redis
// key length limits.
func reportKey(report string, filter any) string {
	payload, err := json.Marshal(filter)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", filter))
	}
	sum := sha1.Sum(payload)
	return reportKeyPrefix + report + ":" + hex.EncodeToString(sum[:])
}
