package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"

	"sentinela/internal/core"
)

func TestLoadRequiresProviderKey(t *testing.T) {
	viper.Reset()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_AI_API_KEY", "")

	_, err := Load("")
	if !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.AI.Provider != "gemini" || cfg.AI.Gemini.APIKey != "test-key" {
		t.Errorf("unexpected ai config: %+v", cfg.AI)
	}
	if cfg.News.MaxPerTerm != 15 {
		t.Errorf("unexpected max per term: %d", cfg.News.MaxPerTerm)
	}
	if cfg.Trends.Category != 396 {
		t.Errorf("unexpected trends category: %d", cfg.Trends.Category)
	}
	if cfg.Monitor.BriefingDebounce.Seconds() != 5 {
		t.Errorf("unexpected briefing debounce: %s", cfg.Monitor.BriefingDebounce)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("unexpected store backend: %s", cfg.Store.Backend)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	viper.Reset()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STORE_BACKEND", "cassandra")

	_, err := Load("")
	if !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoadRedisBackendNeedsURL(t *testing.T) {
	viper.Reset()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := Load("")
	if !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
