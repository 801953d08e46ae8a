// Package briefing turns the current metrics and alert picture into a
// short situational summary. Generation is debounced and cached so rapid
// metric churn produces at most one provider call per settled state, and
// a deterministic fallback is always available when the provider is not.
package briefing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sentinela/internal/cache"
	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/kvstore"
	"sentinela/internal/llm"
	"sentinela/internal/logger"
)

// Snapshot is everything briefing generation looks at.
type Snapshot struct {
	Global    core.GlobalMetrics
	Alerts    core.AlertSummary
	TopTitles []string // Recent headlines, at most 10 are used
}

// staticCalm answers when there is nothing to summarize, without touching
// the provider.
var staticCalm = core.BriefingResult{
	Status:          core.BriefingCalm,
	Summary:         "Nenhuma atividade relevante detectada no momento. Todos os termos monitorados estao sem alteracoes significativas.",
	Recommendations: []string{},
}

// Orchestrator owns the briefing lifecycle.
type Orchestrator struct {
	provider llm.Provider
	cache    *cache.Cache[core.BriefingResult]
	debounce time.Duration

	mu       sync.Mutex
	current  *core.BriefingResult
	latest   Snapshot
	timer    *time.Timer
	inFlight bool
	closed   bool
}

// NewOrchestrator creates an orchestrator over the given provider.
func NewOrchestrator(cfg config.Monitor, provider llm.Provider, store kvstore.Store) *Orchestrator {
	debounce := cfg.BriefingDebounce
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	return &Orchestrator{
		provider: provider,
		cache:    cache.New[core.BriefingResult](store, kvstore.NamespaceBriefingCache, cfg.BriefingTTL),
		debounce: debounce,
	}
}

// Update records a new snapshot. The fallback briefing is published
// immediately if no briefing exists yet, and a debounced generation is
// scheduled; further updates within the window push the timer out so only
// the settled state reaches the provider.
func (o *Orchestrator) Update(snapshot Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.latest = snapshot

	if o.current == nil {
		fallback := Fallback(snapshot)
		o.current = &fallback
	}

	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.debounce, func() {
		o.mu.Lock()
		pending := o.latest
		o.mu.Unlock()

		if _, err := o.Generate(context.Background(), pending); err != nil {
			logger.Warn("debounced briefing generation failed", "error", err.Error())
		}
	})
}

// Generate produces a briefing for snapshot synchronously: static answer
// for an empty situation, then cache, then the provider. A provider
// failure keeps the current (fallback) briefing and returns it with the
// error. A call overlapping an in-flight generation is a no-op returning
// the current briefing.
func (o *Orchestrator) Generate(ctx context.Context, snapshot Snapshot) (core.BriefingResult, error) {
	if snapshot.Global.TotalMentions == 0 && snapshot.Alerts.Total == 0 {
		o.setCurrent(staticCalm)
		return staticCalm, nil
	}

	hash := Hash(snapshot)
	if result, ok := o.cache.Get(ctx, hash); ok {
		o.setCurrent(result)
		return result, nil
	}

	o.mu.Lock()
	if o.inFlight {
		current := o.currentLocked(snapshot)
		o.mu.Unlock()
		return current, nil
	}
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	titles := snapshot.TopTitles
	if len(titles) > 10 {
		titles = titles[:10]
	}

	result, err := o.provider.GenerateBriefing(ctx, snapshot.Global, snapshot.Alerts, titles)
	if err != nil {
		logger.Warn("briefing generation failed, serving fallback", "provider", o.provider.Name(), "error", err.Error())
		fallback := Fallback(snapshot)
		o.setCurrent(fallback)
		return fallback, err
	}

	normalized := core.BriefingResult{
		Status:          normalizeStatus(result.Status),
		Summary:         result.Summary,
		Recommendations: result.Recommendations,
	}
	if normalized.Recommendations == nil {
		normalized.Recommendations = []string{}
	}

	if err := o.cache.Set(ctx, hash, normalized); err != nil {
		logger.Warn("briefing cache write failed", "error", err.Error())
	}
	o.setCurrent(normalized)
	return normalized, nil
}

// Refresh drops the cached briefing for the latest snapshot and
// regenerates immediately.
func (o *Orchestrator) Refresh(ctx context.Context) (core.BriefingResult, error) {
	o.mu.Lock()
	snapshot := o.latest
	o.mu.Unlock()

	o.cache.Invalidate(ctx, Hash(snapshot))
	return o.Generate(ctx, snapshot)
}

// Current returns the latest published briefing, nil before the first
// snapshot.
func (o *Orchestrator) Current() *core.BriefingResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil {
		return nil
	}
	out := *o.current
	return &out
}

// Close stops any pending debounced generation.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

func (o *Orchestrator) setCurrent(result core.BriefingResult) {
	o.mu.Lock()
	o.current = &result
	o.mu.Unlock()
}

// currentLocked returns the current briefing, deriving a fallback from
// snapshot when none has been published. Caller holds o.mu.
func (o *Orchestrator) currentLocked(snapshot Snapshot) core.BriefingResult {
	if o.current != nil {
		return *o.current
	}
	return Fallback(snapshot)
}

// Hash fingerprints the inputs that matter for briefing content. Two
// snapshots with the same hash produce the same briefing.
func Hash(snapshot Snapshot) string {
	avg := "null"
	if snapshot.Global.AvgSentiment != nil {
		avg = fmt.Sprintf("%.2f", *snapshot.Global.AvgSentiment)
	}
	return fmt.Sprintf("%d:%s:%d:%d",
		snapshot.Global.TotalMentions, avg, snapshot.Alerts.Total, snapshot.Alerts.DangerCount)
}

// Fallback derives a briefing from the snapshot alone, used until the
// provider answers and whenever it fails.
func Fallback(snapshot Snapshot) core.BriefingResult {
	avg := snapshot.Global.AvgSentiment
	danger := snapshot.Alerts.DangerCount
	opportunity := snapshot.Alerts.OpportunityCount

	switch {
	case danger >= 2 || (avg != nil && *avg < -0.3):
		return core.BriefingResult{
			Status:          core.BriefingCrisis,
			Summary:         fmt.Sprintf("Atencao critica: %d alerta(s) de perigo detectado(s). Sentimento em queda requer acao imediata.", danger),
			Recommendations: []string{"Abrir War Room para avaliar contra-medidas"},
		}
	case danger > 0 || (avg != nil && *avg < -0.1) || snapshot.Global.OverallTrend == core.TrendDown:
		tendency := "instavel"
		if snapshot.Global.OverallTrend == core.TrendDown {
			tendency = "em queda"
		}
		return core.BriefingResult{
			Status:          core.BriefingAlert,
			Summary:         fmt.Sprintf("Monitoramento detectou sinais de atencao. Tendencia %s.", tendency),
			Recommendations: []string{"Acompanhar evolucao nas proximas horas"},
		}
	case opportunity > 0:
		return core.BriefingResult{
			Status:          core.BriefingCalm,
			Summary:         fmt.Sprintf("Cenario favoravel com %d oportunidade(s) identificada(s). Bom momento para comunicar.", opportunity),
			Recommendations: []string{"Capitalizar o momento positivo"},
		}
	}

	return core.BriefingResult{
		Status:          core.BriefingCalm,
		Summary:         "Situacao estavel. Nenhuma alteracao significativa nos termos monitorados.",
		Recommendations: []string{},
	}
}

// normalizeStatus clamps provider output to the known statuses.
func normalizeStatus(status core.BriefingStatus) core.BriefingStatus {
	switch core.BriefingStatus(strings.ToLower(string(status))) {
	case core.BriefingCalm, core.BriefingAlert, core.BriefingCrisis:
		return core.BriefingStatus(strings.ToLower(string(status)))
	}
	return core.BriefingAlert
}
