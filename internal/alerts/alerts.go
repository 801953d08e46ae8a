// Package alerts detects sentiment shifts and trending topics, and owns
// the alert lifecycle: creation, read/actioned state, dismissal and expiry.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinela/internal/baseline"
	"sentinela/internal/core"
	"sentinela/internal/kvstore"
	"sentinela/internal/logger"
	"sentinela/internal/metrics"
)

// Detection thresholds, expressed as sentiment deltas in [-1, 1].
const (
	dropWarningThreshold     = -0.10
	dropDangerThreshold      = -0.20
	riseOpportunityThreshold = 0.15
	trendingMultiplier       = 2.0
	minMentionsForAlert      = 2
	minMentionsForTrending   = 5
)

// alertTTL is how long an alert stays alive after creation.
const alertTTL = 24 * time.Hour

// Notifier receives every newly created alert.
type Notifier interface {
	Notify(alert core.Alert)
}

// Engine evaluates each metrics snapshot against stored baselines and
// maintains the active alert list.
type Engine struct {
	kv        kvstore.Store
	baselines *baseline.Store
	notifier  Notifier
	now       func() time.Time

	mu           sync.Mutex
	alerts       []core.Alert
	processed    map[string]bool
	lastSnapshot string
	hasSnapshot  bool
}

// NewEngine creates an engine, restoring persisted alerts and discarding
// any older than 24h.
func NewEngine(kv kvstore.Store, baselines *baseline.Store, notifier Notifier) (*Engine, error) {
	e := &Engine{
		kv:        kv,
		baselines: baselines,
		notifier:  notifier,
		now:       time.Now,
		processed: make(map[string]bool),
	}
	if err := e.restore(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

// restore loads persisted alerts, dropping expired ones.
func (e *Engine) restore(ctx context.Context) error {
	entries, err := e.kv.List(ctx, kvstore.NamespaceAlerts)
	if err != nil {
		return fmt.Errorf("failed to restore alerts: %w", err)
	}

	now := e.now()
	for key, raw := range entries {
		var alert core.Alert
		if err := json.Unmarshal(raw, &alert); err != nil {
			logger.Warn("discarding corrupt alert", "key", key)
			_ = e.kv.Delete(ctx, kvstore.NamespaceAlerts, key)
			continue
		}
		if now.Sub(alert.CreatedAt) >= alertTTL {
			_ = e.kv.Delete(ctx, kvstore.NamespaceAlerts, key)
			continue
		}
		e.alerts = append(e.alerts, alert)
	}

	sort.Slice(e.alerts, func(i, j int) bool {
		return e.alerts[i].CreatedAt.After(e.alerts[j].CreatedAt)
	})
	return nil
}

// Process evaluates one metrics snapshot. Identical consecutive snapshots
// are skipped so re-renders of unchanged data never re-trigger detection.
func (e *Engine) Process(ctx context.Context, perTerm []core.TermMetrics, global core.GlobalMetrics) {
	snapshot := metrics.SnapshotKey(perTerm)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hasSnapshot && snapshot == e.lastSnapshot {
		return
	}
	e.lastSnapshot = snapshot
	e.hasSnapshot = true

	e.expireLocked(ctx)

	var created []core.Alert

	for _, tm := range perTerm {
		if tm.Mentions < minMentionsForAlert || tm.Sentiment == nil {
			continue
		}
		score := tm.Sentiment.Score

		prev, err := e.baselines.Get(ctx, tm.Term)
		if err != nil {
			logger.Warn("baseline read failed", "term", tm.Term, "error", err.Error())
			continue
		}

		if prev != nil {
			delta := score - prev.Score
			dedupKey := fmt.Sprintf("%s-%d", tm.Term, int(math.Round(score*100)))

			if !e.processed[dedupKey] {
				switch {
				case delta <= dropWarningThreshold:
					desc := fmt.Sprintf("Sentimento caiu %d%%. Requer atenção.", absPercent(delta))
					if delta <= dropDangerThreshold {
						desc = fmt.Sprintf("Queda crítica de %d%% no sentimento nas últimas horas.", absPercent(delta))
					}
					created = append(created, e.newAlert(core.AlertSentimentDrop, tm, desc, &delta, &prev.Score, &score))
					e.processed[dedupKey] = true
				case delta >= riseOpportunityThreshold:
					desc := fmt.Sprintf("Sentimento subiu %d%%! Bom momento para comunicar.", absPercent(delta))
					created = append(created, e.newAlert(core.AlertOpportunity, tm, desc, &delta, &prev.Score, &score))
					e.processed[dedupKey] = true
				}
			}
		}

		// The observation becomes the baseline for the next cycle whether
		// or not it produced an alert.
		if err := e.baselines.Set(ctx, tm.Term, score); err != nil {
			logger.Warn("baseline write failed", "term", tm.Term, "error", err.Error())
		}
	}

	if alert, ok := e.detectTrending(perTerm, global); ok {
		created = append(created, alert)
	}

	for _, alert := range created {
		e.persistLocked(ctx, alert)
		if e.notifier != nil {
			e.notifier.Notify(alert)
		}
	}
	if len(created) > 0 {
		e.alerts = append(created, e.alerts...)
		logger.Info("alerts created", "count", len(created))
	}
}

// detectTrending checks whether the hottest term is drawing an outsized
// share of mentions. Needs more than one monitored term to be meaningful.
func (e *Engine) detectTrending(perTerm []core.TermMetrics, global core.GlobalMetrics) (core.Alert, bool) {
	if global.HottestTerm == "" || len(perTerm) <= 1 {
		return core.Alert{}, false
	}

	var hottest *core.TermMetrics
	for i := range perTerm {
		if perTerm[i].Term == global.HottestTerm {
			hottest = &perTerm[i]
			break
		}
	}
	if hottest == nil {
		return core.Alert{}, false
	}

	avgMentions := float64(global.TotalMentions) / float64(len(perTerm))
	if float64(hottest.Mentions) < avgMentions*trendingMultiplier || hottest.Mentions < minMentionsForTrending {
		return core.Alert{}, false
	}

	dedupKey := "trending-" + hottest.Term
	if e.processed[dedupKey] {
		return core.Alert{}, false
	}
	e.processed[dedupKey] = true

	desc := fmt.Sprintf("%d menções - %d%% acima da média.",
		hottest.Mentions, int(math.Round(float64(hottest.Mentions)/avgMentions*100)))
	return e.newAlert(core.AlertTrendingTopic, *hottest, desc, nil, nil, nil), true
}

// newAlert assembles a full alert for the given category and term.
func (e *Engine) newAlert(category core.AlertCategory, tm core.TermMetrics, description string, delta, prevScore, curScore *float64) core.Alert {
	related := tm.Articles
	if len(related) > 5 {
		related = related[:5]
	}

	return core.Alert{
		ID:               uuid.New().String(),
		Category:         category,
		Severity:         severityFor(category, delta),
		Title:            titleFor(category, tm.Term),
		Description:      description,
		Term:             tm.Term,
		SentimentDelta:   delta,
		PreviousScore:    prevScore,
		CurrentScore:     curScore,
		SuggestedActions: actionsFor(category),
		RelatedArticles:  related,
		CreatedAt:        e.now(),
	}
}

// severityFor maps a category (and, for drops, the delta magnitude) onto
// a severity.
func severityFor(category core.AlertCategory, delta *float64) core.AlertSeverity {
	switch category {
	case core.AlertCrisis:
		return core.SeverityDanger
	case core.AlertOpportunity, core.AlertSentimentRise:
		return core.SeverityOpportunity
	case core.AlertSentimentDrop:
		if delta != nil && *delta <= dropDangerThreshold {
			return core.SeverityDanger
		}
		return core.SeverityWarning
	case core.AlertTrendingTopic:
		return core.SeverityInfo
	}
	return core.SeverityWarning
}

// titleFor returns the user-facing title for a category.
func titleFor(category core.AlertCategory, term string) string {
	switch category {
	case core.AlertSentimentDrop:
		return fmt.Sprintf("%q - Sentimento em queda", term)
	case core.AlertSentimentRise:
		return fmt.Sprintf("%q - Sentimento em alta", term)
	case core.AlertCrisis:
		return fmt.Sprintf("🚨 %q - Crise detectada", term)
	case core.AlertOpportunity:
		return fmt.Sprintf("📈 %q - Oportunidade", term)
	case core.AlertTrendingTopic:
		return fmt.Sprintf("🔥 %q - Em alta", term)
	}
	return term
}

// actionsFor returns the suggested follow-ups for a category. Every alert
// can be ignored.
func actionsFor(category core.AlertCategory) []core.AlertAction {
	var actions []core.AlertAction

	switch category {
	case core.AlertSentimentDrop:
		actions = append(actions,
			core.AlertAction{ID: "analyze", Label: "🔍 Analisar", Type: "analyze", Route: "/analyze"},
			core.AlertAction{ID: "respond", Label: "💬 Gerar Resposta", Type: "respond"},
			core.AlertAction{ID: "crisis", Label: "🚨 War Room", Type: "analyze", Route: "/crisis"},
		)
	case core.AlertOpportunity, core.AlertSentimentRise:
		actions = append(actions,
			core.AlertAction{ID: "content", Label: "✍️ Gerar Post", Type: "generate_content"},
			core.AlertAction{ID: "context", Label: "📊 Ver Contexto", Type: "analyze", Route: "/"},
		)
	case core.AlertTrendingTopic:
		actions = append(actions,
			core.AlertAction{ID: "analyze", Label: "🔍 Analisar", Type: "analyze", Route: "/"},
			core.AlertAction{ID: "content", Label: "✍️ Capitalizar", Type: "generate_content"},
		)
	case core.AlertCrisis:
		actions = append(actions,
			core.AlertAction{ID: "crisis", Label: "🚨 War Room", Type: "analyze", Route: "/crisis"},
			core.AlertAction{ID: "respond", Label: "💬 Resposta Rápida", Type: "respond"},
		)
	}

	actions = append(actions, core.AlertAction{ID: "ignore", Label: "❌ Ignorar", Type: "ignore"})
	return actions
}

// absPercent converts a delta into a positive whole percentage.
func absPercent(delta float64) int {
	return int(math.Abs(math.Round(delta * 100)))
}

// Alerts returns the live alerts, newest first.
func (e *Engine) Alerts() []core.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.expireLocked(context.Background())
	out := make([]core.Alert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// UnreadCount returns how many live alerts are unread.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, alert := range e.alerts {
		if !alert.IsRead {
			count++
		}
	}
	return count
}

// Summary condenses the live alerts for briefing generation. Active means
// not yet actioned.
func (e *Engine) Summary() core.AlertSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	var summary core.AlertSummary
	for _, alert := range e.alerts {
		if alert.IsActioned {
			continue
		}
		summary.Total++
		switch alert.Severity {
		case core.SeverityDanger, core.SeverityWarning:
			summary.DangerCount++
		case core.SeverityOpportunity, core.SeverityInfo:
			summary.OpportunityCount++
		}
		if summary.TopAlert == "" {
			summary.TopAlert = alert.Title
		}
	}
	return summary
}

// MarkRead marks the alert as read. Unknown IDs are a no-op.
func (e *Engine) MarkRead(ctx context.Context, id string) {
	e.mutate(ctx, id, func(a *core.Alert) { a.IsRead = true })
}

// MarkActioned marks the alert as actioned, which implies read.
func (e *Engine) MarkActioned(ctx context.Context, id string) {
	e.mutate(ctx, id, func(a *core.Alert) {
		a.IsActioned = true
		a.IsRead = true
	})
}

// Dismiss removes the alert entirely.
func (e *Engine) Dismiss(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.alerts {
		if e.alerts[i].ID == id {
			e.alerts = append(e.alerts[:i], e.alerts[i+1:]...)
			if err := e.kv.Delete(ctx, kvstore.NamespaceAlerts, id); err != nil {
				logger.Warn("alert delete failed", "id", id, "error", err.Error())
			}
			return
		}
	}
}

// ClearAll removes every alert and resets deduplication, so conditions
// that are still present may fire again.
func (e *Engine) ClearAll(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, alert := range e.alerts {
		if err := e.kv.Delete(ctx, kvstore.NamespaceAlerts, alert.ID); err != nil {
			logger.Warn("alert delete failed", "id", alert.ID, "error", err.Error())
		}
	}
	e.alerts = nil
	e.processed = make(map[string]bool)
}

func (e *Engine) mutate(ctx context.Context, id string, fn func(*core.Alert)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.alerts {
		if e.alerts[i].ID == id {
			fn(&e.alerts[i])
			e.persistLocked(ctx, e.alerts[i])
			return
		}
	}
}

// expireLocked drops alerts past their TTL. Caller holds e.mu.
func (e *Engine) expireLocked(ctx context.Context) {
	now := e.now()
	kept := e.alerts[:0]
	for _, alert := range e.alerts {
		if now.Sub(alert.CreatedAt) >= alertTTL {
			_ = e.kv.Delete(ctx, kvstore.NamespaceAlerts, alert.ID)
			continue
		}
		kept = append(kept, alert)
	}
	e.alerts = kept
}

// persistLocked writes one alert to the store. Caller holds e.mu.
func (e *Engine) persistLocked(ctx context.Context, alert core.Alert) {
	raw, err := json.Marshal(alert)
	if err != nil {
		logger.Error("failed to encode alert", err, "id", alert.ID)
		return
	}
	if err := e.kv.Set(ctx, kvstore.NamespaceAlerts, alert.ID, raw); err != nil {
		logger.Warn("alert persist failed", "id", alert.ID, "error", err.Error())
	}
}
