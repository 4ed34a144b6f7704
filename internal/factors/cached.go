package factors

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/pkg/logger"
	"github.com/wonny/factorlab/pkg/redis"
)

// CachedSource decorates a FactorSource with a Redis score cache keyed
// by (factor, date). Factor sources are deterministic for a given
// (instruments, date) pair, so cached entries never go stale within
// their TTL. When Redis is disabled every lookup is a miss and the
// decorator is transparent.
type CachedSource struct {
	source contracts.FactorSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource wraps a factor source with score caching
func NewCachedSource(source contracts.FactorSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// Name returns the wrapped factor's identifier
func (c *CachedSource) Name() string {
	return c.source.Name()
}

// Direction returns the wrapped factor's direction
func (c *CachedSource) Direction() int {
	return c.source.Direction()
}

// Scores returns cached scores when available, otherwise computes and
// caches them. Cache failures degrade to direct computation.
func (c *CachedSource) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	key := fmt.Sprintf("scores:%s:%s", c.source.Name(), date.Format("2006-01-02"))

	var cached map[string]float64
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithError(err).Warn("Score cache read failed")
	} else if hit {
		return cached, nil
	}

	scores, err := c.source.Scores(ctx, instruments, date)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, scores, c.ttl); err != nil {
		c.logger.WithError(err).Warn("Score cache write failed")
	}

	return scores, nil
}
