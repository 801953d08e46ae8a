// Package core holds the domain types shared across the monitoring engine.
package core

import "time"

// Article represents a raw news item returned by a news source.
type Article struct {
	Title       string     `json:"title"`                  // Headline as published
	Link        string     `json:"link"`                   // Canonical URL of the item
	PublishedAt *time.Time `json:"published_at,omitempty"` // Publication timestamp, nil when unparseable
	Source      string     `json:"source"`                 // Outlet name
	Description string     `json:"description"`            // Snippet extracted from the feed
}

// TaggedArticle is an Article annotated with the watch terms it mentions.
// Immutable once tagged; rebuilt on every ingestion cycle.
type TaggedArticle struct {
	Article
	MatchedTerms []string `json:"matched_terms"` // Watch terms found in title or description
	IsBreaking   bool     `json:"is_breaking"`   // Published less than 2h ago
}

// SentimentResult is the outcome of scoring a term against its articles.
type SentimentResult struct {
	Score          float64 `json:"score"`          // Sentiment score in [-1, 1]
	Classification string  `json:"classification"` // Positivo, Neutro or Negativo
	Summary        string  `json:"summary"`        // One-line justification
}

// TermMetrics aggregates everything known about one watch term for the
// current analysis cycle. Owned by the aggregator; recomputed whenever the
// article set changes.
type TermMetrics struct {
	Term               string           `json:"term"`
	Mentions           int              `json:"mentions"`
	Sentiment          *SentimentResult `json:"sentiment"`          // nil until scored
	SentimentPending   bool             `json:"sentiment_pending"`  // A scoring call is outstanding
	Articles           []TaggedArticle  `json:"articles"`           // Articles mentioning the term
	Breaking           []TaggedArticle  `json:"breaking"`           // Subset published in the last 2h
	HourlyDistribution [24]int          `json:"hourly_distribution"`// Mentions bucketed by publish hour
	TitlesHash         string           `json:"titles_hash"`        // Change-detection key over article titles
}

// TrendDirection classifies the shape of a waveform series.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendSteady TrendDirection = "steady"
)

// GlobalMetrics summarizes the whole monitoring session across terms.
type GlobalMetrics struct {
	TotalMentions int            `json:"total_mentions"`
	AvgSentiment  *float64       `json:"avg_sentiment"` // nil when no term has been scored yet
	HottestTerm   string         `json:"hottest_term"`  // Term with the most mentions
	OverallTrend  TrendDirection `json:"overall_trend"`
}

// SentimentBaseline holds the previous sentiment observation for a term.
// Exactly one entry per term; overwritten after each delta evaluation.
type SentimentBaseline struct {
	Term       string    `json:"term"`
	Score      float64   `json:"score"` // -1..1
	ObservedAt time.Time `json:"observed_at"`
}

// AlertCategory identifies what condition produced an alert.
type AlertCategory string

const (
	AlertSentimentDrop AlertCategory = "sentiment_drop"
	AlertSentimentRise AlertCategory = "sentiment_rise"
	AlertCrisis        AlertCategory = "crisis_detected"
	AlertOpportunity   AlertCategory = "opportunity_detected"
	AlertTrendingTopic AlertCategory = "trending_topic"
)

// AlertSeverity drives how prominently an alert is surfaced.
type AlertSeverity string

const (
	SeverityDanger      AlertSeverity = "danger"
	SeverityWarning     AlertSeverity = "warning"
	SeverityOpportunity AlertSeverity = "opportunity"
	SeverityInfo        AlertSeverity = "info"
)

// AlertAction is a suggested follow-up attached to an alert.
type AlertAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`            // analyze, respond, generate_content, ignore
	Route string `json:"route,omitempty"` // Navigation hint for the presentation layer
}

// Alert is a detected condition requiring attention. Created by the alert
// engine, mutated only through explicit read/actioned/dismiss operations,
// and discarded 24h after creation.
type Alert struct {
	ID               string          `json:"id"`
	Category         AlertCategory   `json:"category"`
	Severity         AlertSeverity   `json:"severity"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Term             string          `json:"term"`
	SentimentDelta   *float64        `json:"sentiment_delta,omitempty"`
	PreviousScore    *float64        `json:"previous_score,omitempty"`
	CurrentScore     *float64        `json:"current_score,omitempty"`
	SuggestedActions []AlertAction   `json:"suggested_actions"`
	RelatedArticles  []TaggedArticle `json:"related_articles"` // At most 5
	CreatedAt        time.Time       `json:"created_at"`
	IsRead           bool            `json:"is_read"`
	IsActioned       bool            `json:"is_actioned"`
}

// AlertSummary condenses the active alert list for briefing generation.
type AlertSummary struct {
	Total            int    `json:"total"`             // Active (not actioned) alerts
	DangerCount      int    `json:"danger_count"`      // danger + warning severities
	OpportunityCount int    `json:"opportunity_count"` // opportunity + info severities
	TopAlert         string `json:"top_alert,omitempty"`
}

// BriefingStatus is the overall situation assessment.
type BriefingStatus string

const (
	BriefingCalm   BriefingStatus = "calm"
	BriefingAlert  BriefingStatus = "alert"
	BriefingCrisis BriefingStatus = "crisis"
)

// BriefingResult is a short situational summary with recommendations.
type BriefingResult struct {
	Status          BriefingStatus `json:"status"`
	Summary         string         `json:"summary"`
	Recommendations []string       `json:"recommendations"`
}

// TrendPoint is one sample of relative public interest over time.
type TrendPoint struct {
	Date             string `json:"date"`              // ISO date (daily) or HH:00 (hourly)
	Label            string `json:"label"`             // Human-readable label (Hoje, Ontem, "3 jan")
	RelativeInterest int    `json:"relative_interest"` // 0-100
	IsEstimated      bool   `json:"is_estimated"`      // Produced by a fallback tier, not a real source
}
