// Package sentiment scores watch terms against their current headlines,
// shielding the provider behind a cache, an in-flight registry and a rate
// limit so repeated cycles never re-score unchanged article sets.
package sentiment

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sentinela/internal/cache"
	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/kvstore"
	"sentinela/internal/llm"
	"sentinela/internal/logger"
	"sentinela/internal/metrics"
)

// Analyzer scores terms with the configured provider.
type Analyzer struct {
	provider llm.Provider
	cache    *cache.Cache[core.SentimentResult]
	limiter  *rate.Limiter

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewAnalyzer creates an analyzer over the given provider.
func NewAnalyzer(cfg config.Monitor, provider llm.Provider, store kvstore.Store) *Analyzer {
	perMinute := cfg.SentimentPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Analyzer{
		provider: provider,
		cache:    cache.New[core.SentimentResult](store, kvstore.NamespaceSentimentCache, cfg.SentimentTTL),
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		inFlight: make(map[string]bool),
	}
}

// Score returns the sentiment for term over titles, serving from cache
// when the title set is unchanged. Returns nil (not an error) when no
// result is available: empty title set, a concurrent call already
// scoring the same set, or a contained provider failure.
func (a *Analyzer) Score(ctx context.Context, term string, titles []string) *core.SentimentResult {
	if len(titles) == 0 {
		return nil
	}

	key := cache.Key(strings.ToLower(term), metrics.TitlesHash(titles))
	if result, ok := a.cache.Get(ctx, key); ok {
		return &result
	}

	a.mu.Lock()
	if a.inFlight[key] {
		a.mu.Unlock()
		return nil
	}
	a.inFlight[key] = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.inFlight, key)
		a.mu.Unlock()
	}()

	if err := a.limiter.Wait(ctx); err != nil {
		return nil
	}

	result, err := a.provider.ScoreSentiment(ctx, term, titles)
	if err != nil {
		logger.Warn("sentiment scoring failed", "term", term, "provider", a.provider.Name(), "error", err.Error())
		return nil
	}

	if err := a.cache.Set(ctx, key, *result); err != nil {
		logger.Warn("sentiment cache write failed", "term", term, "error", err.Error())
	}
	return result
}
