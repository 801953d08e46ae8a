package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"sentinela/internal/config"
	"sentinela/internal/core"
)

// GeminiProvider implements Provider using Google Gemini.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout config.AI
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(cfg config.AI) (*GeminiProvider, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key", core.ErrConfiguration)
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		model:   cfg.Gemini.Model,
		timeout: cfg,
	}, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// ScoreSentiment scores the headlines mentioning term.
func (p *GeminiProvider) ScoreSentiment(ctx context.Context, term string, titles []string) (*core.SentimentResult, error) {
	raw, err := p.generate(ctx, buildSentimentPrompt(term, titles))
	if err != nil {
		return nil, err
	}
	return parseSentiment(raw)
}

// GenerateBriefing produces a situational briefing from current metrics.
func (p *GeminiProvider) GenerateBriefing(ctx context.Context, global core.GlobalMetrics, alerts core.AlertSummary, topTitles []string) (*core.BriefingResult, error) {
	raw, err := p.generate(ctx, buildBriefingPrompt(global, alerts, topTitles))
	if err != nil {
		return nil, err
	}
	return parseBriefing(raw)
}

func (p *GeminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	return withRetries(ctx, baseDelay, func(ctx context.Context) (string, error) {
		return p.generateOnce(ctx, prompt)
	})
}

func (p *GeminiProvider) generateOnce(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout.Timeout)
	defer cancel()

	model := p.client.GenerativeModel(p.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		switch {
		case isRateLimit(err):
			return "", fmt.Errorf("gemini: %w", core.ErrRateLimited)
		case isServerError(err):
			return "", core.Transient(fmt.Errorf("gemini generation failed: %w", err))
		}
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty gemini response", core.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no text parts in gemini response", core.ErrInvalidResponse)
	}
	return sb.String(), nil
}

// isRateLimit detects quota errors from the Gemini API.
func isRateLimit(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "quota")
}

// isServerError detects failures worth retrying: 5xx API responses and
// transport-level errors such as timeouts.
func isServerError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	return true
}
