package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"sentinela/internal/config"
	"sentinela/internal/core"
)

// OpenAIProvider implements Provider using the OpenAI chat API, or any
// compatible endpoint via base_url.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout config.AI
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(cfg config.AI) (*OpenAIProvider, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key", core.ErrConfiguration)
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAI.BaseURL
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.OpenAI.Model,
		timeout: cfg,
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// ScoreSentiment scores the headlines mentioning term.
func (p *OpenAIProvider) ScoreSentiment(ctx context.Context, term string, titles []string) (*core.SentimentResult, error) {
	raw, err := p.generate(ctx, buildSentimentPrompt(term, titles))
	if err != nil {
		return nil, err
	}
	return parseSentiment(raw)
}

// GenerateBriefing produces a situational briefing from current metrics.
func (p *OpenAIProvider) GenerateBriefing(ctx context.Context, global core.GlobalMetrics, alerts core.AlertSummary, topTitles []string) (*core.BriefingResult, error) {
	raw, err := p.generate(ctx, buildBriefingPrompt(global, alerts, topTitles))
	if err != nil {
		return nil, err
	}
	return parseBriefing(raw)
}

func (p *OpenAIProvider) generate(ctx context.Context, prompt string) (string, error) {
	return withRetries(ctx, baseDelay, func(ctx context.Context) (string, error) {
		return p.generateOnce(ctx, prompt)
	})
}

func (p *OpenAIProvider) generateOnce(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout.Timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		switch status := openAIStatus(err); {
		case status == http.StatusTooManyRequests:
			return "", fmt.Errorf("openai: %w", core.ErrRateLimited)
		case status == 0 || status >= 500:
			return "", core.Transient(fmt.Errorf("openai generation failed: %w", err))
		}
		return "", fmt.Errorf("openai generation failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty openai response", core.ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// openAIStatus extracts the HTTP status from an OpenAI client error, or 0
// for transport-level failures.
func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
