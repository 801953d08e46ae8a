package trendsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/fetch"
	"sentinela/internal/kvstore"
)

type stubStrategy struct {
	name   string
	points []core.TrendPoint
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(_ context.Context, _ string) ([]core.TrendPoint, error) {
	s.calls++
	return s.points, s.err
}

func testConfig() config.Trends {
	return config.Trends{Geo: "BR", Category: 396, CacheTTL: time.Hour, Timeout: 5 * time.Second}
}

func TestProviderStopsAtFirstSuccessfulTier(t *testing.T) {
	first := &stubStrategy{name: "first", points: []core.TrendPoint{{Date: "2026-08-30", RelativeInterest: 55}}}
	second := &stubStrategy{name: "second"}
	provider := NewProviderWithStrategies(testConfig(), kvstore.NewMemory(), first, second)

	points := provider.Fetch(context.Background(), "prefeito")

	if len(points) != 1 || points[0].RelativeInterest != 55 {
		t.Fatalf("unexpected points: %+v", points)
	}
	if second.calls != 0 {
		t.Error("later tiers must not run after a success")
	}
}

func TestProviderFallsThroughFailedTiers(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("boom")}
	second := &stubStrategy{name: "second", err: core.ErrRateLimited}
	provider := NewProviderWithStrategies(testConfig(), kvstore.NewMemory(), first, second, &EstimatedStrategy{})

	points := provider.Fetch(context.Background(), "prefeito")

	if len(points) != 30 {
		t.Fatalf("expected 30 estimated points, got %d", len(points))
	}
	for _, point := range points {
		if !point.IsEstimated {
			t.Fatal("final-tier points must be marked estimated")
		}
		if point.RelativeInterest < 10 || point.RelativeInterest > 100 {
			t.Fatalf("estimated interest out of range: %d", point.RelativeInterest)
		}
	}
	if points[len(points)-1].Label != "Hoje" {
		t.Errorf("last estimated point should be today, got %s", points[len(points)-1].Label)
	}
}

func TestProviderCachesResults(t *testing.T) {
	strategy := &stubStrategy{name: "only", points: []core.TrendPoint{{Date: "2026-08-30", RelativeInterest: 42}}}
	provider := NewProviderWithStrategies(testConfig(), kvstore.NewMemory(), strategy)
	ctx := context.Background()

	provider.Fetch(ctx, "prefeito")
	provider.Fetch(ctx, "prefeito")

	if strategy.calls != 1 {
		t.Errorf("expected 1 strategy call, got %d", strategy.calls)
	}
}

type blockingStrategy struct {
	points  []core.TrendPoint
	started chan struct{}
	release chan struct{}
	calls   int32
}

func (s *blockingStrategy) Name() string { return "blocking" }

func (s *blockingStrategy) Fetch(_ context.Context, _ string) ([]core.TrendPoint, error) {
	atomic.AddInt32(&s.calls, 1)
	s.started <- struct{}{}
	<-s.release
	return s.points, nil
}

func TestProviderSuppressesConcurrentDuplicates(t *testing.T) {
	strategy := &blockingStrategy{
		points:  []core.TrendPoint{{Date: "2026-08-30", RelativeInterest: 42}},
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	provider := NewProviderWithStrategies(testConfig(), kvstore.NewMemory(), strategy)
	ctx := context.Background()

	done := make(chan []core.TrendPoint, 1)
	go func() { done <- provider.Fetch(ctx, "prefeito") }()
	<-strategy.started

	if got := provider.Fetch(ctx, "prefeito"); got != nil {
		t.Errorf("duplicate fetch while one is outstanding should return nil, got %+v", got)
	}

	close(strategy.release)
	if got := <-done; len(got) != 1 {
		t.Fatalf("original fetch should still complete, got %+v", got)
	}
	if calls := atomic.LoadInt32(&strategy.calls); calls != 1 {
		t.Errorf("expected a single upstream call, got %d", calls)
	}
}

func TestMultiTermKeepsMaxPerDate(t *testing.T) {
	byTerm := map[string][]core.TrendPoint{
		"a": {
			{Date: "2026-08-29", RelativeInterest: 30},
			{Date: "2026-08-30", RelativeInterest: 80},
		},
		"b": {
			{Date: "2026-08-29", RelativeInterest: 60},
			{Date: "2026-08-30", RelativeInterest: 20},
		},
	}
	strategy := &perTermStrategy{byTerm: byTerm}
	provider := NewProviderWithStrategies(testConfig(), kvstore.NewMemory(), strategy)

	merged := provider.MultiTerm(context.Background(), []string{"a", "b"})

	if len(merged) != 2 {
		t.Fatalf("expected 2 merged points, got %d", len(merged))
	}
	if merged[0].Date != "2026-08-29" || merged[0].RelativeInterest != 60 {
		t.Errorf("unexpected first point: %+v", merged[0])
	}
	if merged[1].Date != "2026-08-30" || merged[1].RelativeInterest != 80 {
		t.Errorf("unexpected second point: %+v", merged[1])
	}
}

type perTermStrategy struct {
	byTerm map[string][]core.TrendPoint
}

func (s *perTermStrategy) Name() string { return "per-term" }

func (s *perTermStrategy) Fetch(_ context.Context, term string) ([]core.TrendPoint, error) {
	return s.byTerm[term], nil
}

func TestStripJSONPrefix(t *testing.T) {
	raw := []byte(")]}',\n{\"ok\":true}")
	if got := string(stripJSONPrefix(raw)); got != `{"ok":true}` {
		t.Errorf("unexpected stripped body: %s", got)
	}

	plain := []byte(`{"ok":true}`)
	if got := string(stripJSONPrefix(plain)); got != `{"ok":true}` {
		t.Errorf("plain body should pass through: %s", got)
	}
}

func TestExploreStrategyParsesTimeline(t *testing.T) {
	sample := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/explore", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(")]}'\n" + `{"widgets":[
			{"type":"RELATED_QUERIES","token":"x","request":{}},
			{"type":"TIMESERIES","token":"tok","request":{"k":"v"}}
		]}`))
	})
	mux.HandleFunc("/widgetdata/multiline", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(")]}'\n" + `{"default":{"timelineData":[
			{"time":"` + formatEpoch(sample) + `","value":[63]}
		]}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testConfig()
	cfg.Endpoint = server.URL
	strategy := &ExploreStrategy{cfg: cfg, client: fetch.NewClient(cfg.Timeout)}

	points, err := strategy.Fetch(context.Background(), "prefeito")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Date != "2026-08-28" || points[0].RelativeInterest != 63 || points[0].IsEstimated {
		t.Errorf("unexpected point: %+v", points[0])
	}
}

func TestExploreStrategyRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Endpoint = server.URL
	strategy := &ExploreStrategy{cfg: cfg, client: fetch.NewClient(cfg.Timeout)}

	_, err := strategy.Fetch(context.Background(), "prefeito")
	if !errors.Is(err, core.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestDailyStrategyScoresMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(")]}'\n" + `{"default":{"trendingSearchesDays":[{"trendingSearches":[
			{"title":{"query":"Prefeito anuncia obras"},"articles":[]},
			{"title":{"query":"outro assunto"},"articles":[{"title":"nada"}]}
		]}]}}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Endpoint = server.URL
	strategy := &DailyStrategy{cfg: cfg, client: fetch.NewClient(cfg.Timeout)}

	points, err := strategy.Fetch(context.Background(), "prefeito")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected a single today point, got %d", len(points))
	}
	if points[0].RelativeInterest != 70 || !points[0].IsEstimated || points[0].Label != "Hoje" {
		t.Errorf("unexpected point: %+v", points[0])
	}
}

func TestDailyStrategyNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(")]}'\n" + `{"default":{"trendingSearchesDays":[{"trendingSearches":[
			{"title":{"query":"outro assunto"},"articles":[]}
		]}]}}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Endpoint = server.URL
	strategy := &DailyStrategy{cfg: cfg, client: fetch.NewClient(cfg.Timeout)}

	points, err := strategy.Fetch(context.Background(), "prefeito")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if points[0].RelativeInterest != 30 {
		t.Errorf("expected heuristic floor score 30, got %d", points[0].RelativeInterest)
	}
}

func formatEpoch(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
