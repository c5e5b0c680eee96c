package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
	"github.com/hakwon-labs/studycoach-backend/internal/utils"
)

// PatternCache stores derived review-pattern summaries keyed by
// (student, subject). Entries are invalidated explicitly on memory writes
// and expire after a TTL as a staleness bound.
type PatternCache interface {
	Get(ctx context.Context, studentID uuid.UUID, subject string) (*types.ReviewPatternSummary, error)
	Set(ctx context.Context, studentID uuid.UUID, subject string, summary *types.ReviewPatternSummary) error
	Invalidate(ctx context.Context, studentID uuid.UUID, subject string) error
	Close() error
}

type patternCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewPatternCache connects to redis. When REDIS_ADDR is unset it returns a
// no-op cache so local setups work without redis.
func NewPatternCache(log *logger.Logger) (PatternCache, error) {
	cacheLog := log.With("service", "PatternCache")

	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		cacheLog.Info("REDIS_ADDR not set, review-pattern cache disabled")
		return &noopCache{}, nil
	}
	ttlSeconds := utils.GetEnvAsInt("REVIEW_PATTERN_TTL_SECONDS", 900, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &patternCache{
		log: cacheLog,
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func cacheKey(studentID uuid.UUID, subject string) string {
	return fmt.Sprintf("review_pattern:%s:%s", studentID, subject)
}

func (c *patternCache) Get(ctx context.Context, studentID uuid.UUID, subject string) (*types.ReviewPatternSummary, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(studentID, subject)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var summary types.ReviewPatternSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// A corrupt entry behaves like a miss; the caller rebuilds it.
		c.log.Warn("Dropping undecodable review-pattern entry", "subject", subject, "error", err)
		_ = c.rdb.Del(ctx, cacheKey(studentID, subject)).Err()
		return nil, nil
	}
	return &summary, nil
}

func (c *patternCache) Set(ctx context.Context, studentID uuid.UUID, subject string, summary *types.ReviewPatternSummary) error {
	if summary == nil {
		return nil
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal review pattern: %w", err)
	}
	return c.rdb.Set(ctx, cacheKey(studentID, subject), raw, c.ttl).Err()
}

func (c *patternCache) Invalidate(ctx context.Context, studentID uuid.UUID, subject string) error {
	return c.rdb.Del(ctx, cacheKey(studentID, subject)).Err()
}

func (c *patternCache) Close() error {
	return c.rdb.Close()
}

type noopCache struct{}

func (n *noopCache) Get(context.Context, uuid.UUID, string) (*types.ReviewPatternSummary, error) {
	return nil, nil
}
func (n *noopCache) Set(context.Context, uuid.UUID, string, *types.ReviewPatternSummary) error {
	return nil
}
func (n *noopCache) Invalidate(context.Context, uuid.UUID, string) error { return nil }
func (n *noopCache) Close() error                                        { return nil }
