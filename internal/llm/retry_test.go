package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sentinela/internal/config"
	"sentinela/internal/core"
)

func TestWithRetriesRecoversFromTransientFailures(t *testing.T) {
	calls := 0
	raw, err := withRetries(context.Background(), time.Millisecond, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", core.Transient(errors.New("upstream 503"))
		}
		return "ok", nil
	})
	if err != nil || raw != "ok" {
		t.Fatalf("expected recovery, got %q, %v", raw, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestWithRetriesGivesUpAfterBudget(t *testing.T) {
	calls := 0
	_, err := withRetries(context.Background(), time.Millisecond, func(context.Context) (string, error) {
		calls++
		return "", core.Transient(errors.New("upstream 500"))
	})
	if err == nil || !core.IsTransient(err) {
		t.Fatalf("expected a transient failure, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestWithRetriesRateLimitFailsImmediately(t *testing.T) {
	calls := 0
	_, err := withRetries(context.Background(), time.Millisecond, func(context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("gemini: %w", core.ErrRateLimited)
	})
	if !errors.Is(err, core.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 1 {
		t.Errorf("rate limits must not be retried, got %d attempts", calls)
	}
}

func TestWithRetriesInvalidResponseNotRetried(t *testing.T) {
	calls := 0
	_, err := withRetries(context.Background(), time.Millisecond, func(context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("%w: empty response", core.ErrInvalidResponse)
	})
	if !errors.Is(err, core.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if calls != 1 {
		t.Errorf("malformed payloads must not be retried, got %d attempts", calls)
	}
}

func TestWithRetriesHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := withRetries(ctx, time.Minute, func(context.Context) (string, error) {
		calls++
		cancel()
		return "", core.Transient(errors.New("boom"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected no further attempts after cancellation, got %d", calls)
	}
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"score\":0.2,\"classification\":\"Positivo\",\"summary\":\"ok\"}"}}]}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(config.AI{
		Timeout: 5 * time.Second,
		OpenAI:  config.OpenAI{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"},
	})
	if err != nil {
		t.Fatalf("provider creation failed: %v", err)
	}

	result, err := provider.ScoreSentiment(context.Background(), "prefeito", []string{"manchete"})
	if err != nil {
		t.Fatalf("scoring should recover after a retry: %v", err)
	}
	if result.Score != 0.2 {
		t.Errorf("unexpected score: %f", result.Score)
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("expected 2 upstream requests, got %d", got)
	}
}
