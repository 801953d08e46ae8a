// Package llm abstracts the text-analysis providers used for sentiment
// scoring and briefing generation.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sentinela/internal/config"
	"sentinela/internal/core"
)

const (
	maxRetries = 2
	baseDelay  = 1 * time.Second
)

// Provider is a text-analysis backend. Both operations return structured
// results parsed from a JSON response; unparseable responses surface
// core.ErrInvalidResponse.
type Provider interface {
	Name() string
	ScoreSentiment(ctx context.Context, term string, titles []string) (*core.SentimentResult, error)
	GenerateBriefing(ctx context.Context, global core.GlobalMetrics, alerts core.AlertSummary, topTitles []string) (*core.BriefingResult, error)
}

// NewProvider creates the configured provider.
func NewProvider(cfg config.AI) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGeminiProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown ai provider %q", core.ErrConfiguration, cfg.Provider)
	}
}

// withRetries runs one generation call, retrying transient failures with
// exponential backoff. Rate limits and malformed payloads fail immediately.
func withRetries(ctx context.Context, delay time.Duration, call func(context.Context) (string, error)) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		raw, err := call(ctx)
		if err == nil {
			return raw, nil
		}
		if !core.IsTransient(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("generation failed after %d retries: %w", maxRetries, lastErr)
}
