// Package trendsource acquires external public-interest series for watch
// terms through a chain of progressively cheaper strategies, ending in a
// deterministic estimate so callers always receive data.
package trendsource

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"sentinela/internal/cache"
	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/fetch"
	"sentinela/internal/kvstore"
	"sentinela/internal/logger"
)

// Strategy is one acquisition tier. A failed tier returns an error and
// the provider moves on to the next one.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, term string) ([]core.TrendPoint, error)
}

// Provider walks the strategy chain and caches whatever tier succeeded.
// Concurrent fetches for the same term are collapsed: while one walk is
// outstanding, duplicates return nil instead of hitting the tiers again.
type Provider struct {
	strategies []Strategy
	cache      *cache.Cache[[]core.TrendPoint]

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewProvider creates a provider with the standard tier order: real
// time-series, daily-heuristic, then estimated.
func NewProvider(cfg config.Trends, store kvstore.Store) *Provider {
	client := fetch.NewClient(cfg.Timeout)
	return NewProviderWithStrategies(cfg, store,
		&ExploreStrategy{cfg: cfg, client: client},
		&DailyStrategy{cfg: cfg, client: client},
		&EstimatedStrategy{},
	)
}

// NewProviderWithStrategies creates a provider over an explicit chain.
func NewProviderWithStrategies(cfg config.Trends, store kvstore.Store, strategies ...Strategy) *Provider {
	return &Provider{
		strategies: strategies,
		cache:      cache.New[[]core.TrendPoint](store, kvstore.NamespaceTrendsCache, cfg.CacheTTL),
		inFlight:   make(map[string]bool),
	}
}

// Fetch returns the interest series for term from the first tier that
// succeeds with a non-empty result.
func (p *Provider) Fetch(ctx context.Context, term string) []core.TrendPoint {
	cacheKey := cache.Key("trends", strings.ToLower(term))
	if points, ok := p.cache.Get(ctx, cacheKey); ok {
		return points
	}

	p.mu.Lock()
	if p.inFlight[cacheKey] {
		p.mu.Unlock()
		return nil
	}
	p.inFlight[cacheKey] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlight, cacheKey)
		p.mu.Unlock()
	}()

	for _, strategy := range p.strategies {
		points, err := strategy.Fetch(ctx, term)
		if err != nil {
			logger.Warn("trend tier failed", "tier", strategy.Name(), "term", term, "error", err.Error())
			continue
		}
		if len(points) == 0 {
			continue
		}

		if err := p.cache.Set(ctx, cacheKey, points); err != nil {
			logger.Warn("trend cache write failed", "term", term, "error", err.Error())
		}
		return points
	}
	return nil
}

// MultiTerm fetches the series for every term and merges them by date,
// keeping the highest interest value per day.
func (p *Provider) MultiTerm(ctx context.Context, terms []string) []core.TrendPoint {
	byDate := make(map[string]core.TrendPoint)

	for _, term := range terms {
		for _, point := range p.Fetch(ctx, term) {
			if existing, ok := byDate[point.Date]; !ok || point.RelativeInterest > existing.RelativeInterest {
				byDate[point.Date] = point
			}
		}
	}

	merged := make([]core.TrendPoint, 0, len(byDate))
	for _, point := range byDate {
		merged = append(merged, point)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}

// googleHeaders are required for the trends endpoints to answer with data
// instead of a consent page.
func googleHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")
	h.Set("Referer", "https://trends.google.com/")
	h.Set("Cookie", "NID=; CONSENT=YES+;")
	return h
}

// stripJSONPrefix removes the anti-hijacking prefix line (")]}'...") the
// trends endpoints prepend to JSON bodies.
func stripJSONPrefix(raw []byte) []byte {
	s := string(raw)
	if strings.HasPrefix(s, ")]}'") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			return []byte(s[idx+1:])
		}
	}
	return raw
}
