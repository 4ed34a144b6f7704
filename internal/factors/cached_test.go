package factors

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/factorlab/pkg/config"
	"github.com/wonny/factorlab/pkg/logger"
	"github.com/wonny/factorlab/pkg/redis"
)

type countingFactor struct {
	stubFactor
	calls int
}

func (c *countingFactor) Scores(ctx context.Context, instruments []string, date time.Time) (map[string]float64, error) {
	c.calls++
	return c.stubFactor.scores, nil
}

func TestCachedSource_DisabledCacheIsTransparent(t *testing.T) {
	client, err := redis.New(&config.Config{})
	if err != nil {
		t.Fatalf("redis.New() error = %v", err)
	}
	cache := redis.NewCache(client, "test")

	inner := &countingFactor{stubFactor: stubFactor{
		name:      "momentum",
		direction: 1,
		scores:    map[string]float64{"A": 0.1},
	}}
	cached := NewCachedSource(inner, cache, time.Hour, logger.NewNop())

	if cached.Name() != "momentum" {
		t.Errorf("Name() = %q, want momentum", cached.Name())
	}
	if cached.Direction() != 1 {
		t.Errorf("Direction() = %d, want 1", cached.Direction())
	}

	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		scores, err := cached.Scores(context.Background(), []string{"A"}, date)
		if err != nil {
			t.Fatalf("Scores() error = %v", err)
		}
		if scores["A"] != 0.1 {
			t.Errorf("scores[A] = %v, want 0.1", scores["A"])
		}
	}

	// With Redis disabled every lookup misses and the source is hit
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}
