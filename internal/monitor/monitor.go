// Package monitor runs the ingestion and analysis cycle: acquire
// articles, tag, score, aggregate, evaluate alerts and update the
// briefing, on a schedule.
package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sentinela/internal/alerts"
	"sentinela/internal/briefing"
	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/logger"
	"sentinela/internal/metrics"
	"sentinela/internal/news"
	"sentinela/internal/sentiment"
	"sentinela/internal/tagger"
	"sentinela/internal/trends"
	"sentinela/internal/trendsource"
)

// Snapshot is the complete output of one analysis cycle. Replaced
// atomically; readers never see a partially updated cycle.
type Snapshot struct {
	PerTerm   []core.TermMetrics   `json:"per_term"`
	Global    core.GlobalMetrics   `json:"global"`
	Articles  []core.TaggedArticle `json:"articles"`
	Hourly    []core.TrendPoint    `json:"hourly"`
	Daily     []core.TrendPoint    `json:"daily"`
	External  []core.TrendPoint    `json:"external"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Monitor wires the pipeline stages together and drives them on the
// configured schedule.
type Monitor struct {
	cfg      config.Config
	source   news.Source
	analyzer *sentiment.Analyzer
	alerts   *alerts.Engine
	briefing *briefing.Orchestrator
	external *trendsource.Provider
	cron     *cron.Cron

	mu       sync.RWMutex
	snapshot Snapshot
}

// New creates a monitor over the given pipeline stages.
func New(cfg config.Config, source news.Source, analyzer *sentiment.Analyzer, alertEngine *alerts.Engine, briefingOrch *briefing.Orchestrator, external *trendsource.Provider) *Monitor {
	return &Monitor{
		cfg:      cfg,
		source:   source,
		analyzer: analyzer,
		alerts:   alertEngine,
		briefing: briefingOrch,
		external: external,
	}
}

// Start runs an immediate first cycle and schedules periodic ones.
func (m *Monitor) Start(ctx context.Context) error {
	m.Cycle(ctx)

	m.cron = cron.New()
	_, err := m.cron.AddFunc(m.cfg.Monitor.RefreshSchedule, func() {
		m.Cycle(context.Background())
	})
	if err != nil {
		return err
	}
	m.cron.Start()

	logger.Info("monitor started",
		"terms", strings.Join(m.cfg.News.Watchwords, ","),
		"schedule", m.cfg.Monitor.RefreshSchedule)
	return nil
}

// Stop halts the schedule and any pending briefing generation.
func (m *Monitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
	m.briefing.Close()
	logger.Info("monitor stopped")
}

// Cycle runs one full acquisition and analysis pass.
func (m *Monitor) Cycle(ctx context.Context) {
	started := time.Now()
	watchwords := m.cfg.News.Watchwords

	var raw []core.Article
	seen := make(map[string]bool)
	for _, term := range watchwords {
		articles, err := m.source.Search(ctx, term)
		if err != nil {
			logger.Warn("article search failed", "term", term, "error", err.Error())
			continue
		}
		for _, article := range articles {
			key := strings.ToLower(article.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			raw = append(raw, article)
		}
	}

	tagged := tagger.Tag(raw, watchwords)
	perTerm := metrics.PerTerm(tagged, watchwords)

	for i := range perTerm {
		if perTerm[i].Mentions == 0 {
			continue
		}
		titles := make([]string, 0, len(perTerm[i].Articles))
		for _, article := range perTerm[i].Articles {
			titles = append(titles, article.Title)
		}
		perTerm[i].Sentiment = m.analyzer.Score(ctx, perTerm[i].Term, titles)
		perTerm[i].SentimentPending = perTerm[i].Sentiment == nil
	}

	hourly := trends.HourlyWaveform(tagged)
	direction := trends.Direction(trends.Values(hourly))
	global := metrics.Global(perTerm, direction)

	external := m.external.MultiTerm(ctx, watchwords)
	daily := trends.BlendDaily(trends.DailyWaveform(tagged, time.Now()), external)

	m.mu.Lock()
	m.snapshot = Snapshot{
		PerTerm:   perTerm,
		Global:    global,
		Articles:  tagged,
		Hourly:    hourly,
		Daily:     daily,
		External:  external,
		UpdatedAt: time.Now(),
	}
	m.mu.Unlock()

	m.alerts.Process(ctx, perTerm, global)

	m.briefing.Update(briefing.Snapshot{
		Global:    global,
		Alerts:    m.alerts.Summary(),
		TopTitles: topTitles(tagged, 10),
	})

	logger.Info("cycle completed",
		"articles", len(tagged),
		"mentions", global.TotalMentions,
		"duration", time.Since(started).String())
}

// Snapshot returns the latest cycle output.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Alerts exposes the alert engine for lifecycle operations.
func (m *Monitor) Alerts() *alerts.Engine {
	return m.alerts
}

// Briefing exposes the briefing orchestrator.
func (m *Monitor) Briefing() *briefing.Orchestrator {
	return m.briefing
}

func topTitles(articles []core.TaggedArticle, n int) []string {
	titles := make([]string, 0, n)
	for _, article := range articles {
		if len(titles) == n {
			break
		}
		titles = append(titles, article.Title)
	}
	return titles
}
