// Package config loads application configuration from a YAML file,
// environment variables and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sentinela/internal/core"
)

// Config holds all application configuration.
type Config struct {
	App     App     `mapstructure:"app"`
	News    News    `mapstructure:"news"`
	Trends  Trends  `mapstructure:"trends"`
	AI      AI      `mapstructure:"ai"`
	Store   Store   `mapstructure:"store"`
	Monitor Monitor `mapstructure:"monitor"`
	Server  Server  `mapstructure:"server"`
}

// App holds general application configuration.
type App struct {
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// News holds news-source configuration.
type News struct {
	Region     string        `mapstructure:"region"`      // Region appended to every query
	Watchwords []string      `mapstructure:"watchwords"`  // Terms being monitored
	Endpoint   string        `mapstructure:"endpoint"`    // RSS search endpoint
	MaxPerTerm int           `mapstructure:"max_per_term"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Trends holds trend-data-provider configuration.
type Trends struct {
	Endpoint string        `mapstructure:"endpoint"` // Base URL of the trends provider
	Geo      string        `mapstructure:"geo"`      // Geographic scope (e.g. BR)
	Category int           `mapstructure:"category"` // Topic category for the explore tier
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AI holds text-analysis service configuration.
type AI struct {
	Provider string        `mapstructure:"provider"` // gemini or openai
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   Gemini        `mapstructure:"gemini"`
	OpenAI   OpenAI        `mapstructure:"openai"`
}

// Gemini holds Google Gemini configuration.
type Gemini struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OpenAI holds OpenAI configuration.
type OpenAI struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// Store holds durable key-value store configuration.
type Store struct {
	Backend  string `mapstructure:"backend"` // sqlite, redis or memory
	RedisURL string `mapstructure:"redis_url"`
}

// Monitor holds engine tuning knobs.
type Monitor struct {
	RefreshSchedule    string        `mapstructure:"refresh_schedule"`     // cron spec for periodic cycles
	SentimentTTL       time.Duration `mapstructure:"sentiment_ttl"`        // Sentiment cache TTL
	SentimentPerMinute int           `mapstructure:"sentiment_per_minute"` // Scoring-call rate limit
	BriefingTTL        time.Duration `mapstructure:"briefing_ttl"`         // Briefing cache TTL
	BriefingDebounce   time.Duration `mapstructure:"briefing_debounce"`
}

// Server holds HTTP API configuration.
type Server struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from the given file (or the default search
// paths), layered under environment variables and defaults.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".sentinela")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks configuration that must be present at startup. Missing
// external-service configuration is fatal here, never mid-request.
func validate(c *Config) error {
	switch strings.ToLower(c.AI.Provider) {
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("%w: ai.gemini.api_key (or GEMINI_API_KEY)", core.ErrConfiguration)
		}
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: ai.openai.api_key (or OPENAI_API_KEY)", core.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown ai.provider %q (supported: gemini, openai)", core.ErrConfiguration, c.AI.Provider)
	}

	switch strings.ToLower(c.Store.Backend) {
	case "sqlite", "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("%w: store.redis_url (or REDIS_URL)", core.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown store.backend %q (supported: sqlite, redis, memory)", core.ErrConfiguration, c.Store.Backend)
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".sentinela")

	viper.SetDefault("news.region", "Brasil")
	viper.SetDefault("news.endpoint", "https://news.google.com/rss/search")
	viper.SetDefault("news.max_per_term", 15)
	viper.SetDefault("news.cache_ttl", "2h")
	viper.SetDefault("news.timeout", "15s")

	viper.SetDefault("trends.endpoint", "https://trends.google.com/trends/api")
	viper.SetDefault("trends.geo", "BR")
	viper.SetDefault("trends.category", 396) // Politics
	viper.SetDefault("trends.cache_ttl", "1h")
	viper.SetDefault("trends.timeout", "15s")

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", "60s")
	viper.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	viper.SetDefault("ai.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.openai.base_url", "")

	viper.SetDefault("store.backend", "sqlite")

	viper.SetDefault("monitor.refresh_schedule", "@every 10m")
	viper.SetDefault("monitor.sentiment_ttl", "30m")
	viper.SetDefault("monitor.sentiment_per_minute", 10)
	viper.SetDefault("monitor.briefing_ttl", "10m")
	viper.SetDefault("monitor.briefing_debounce", "5s")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
}

// bindEnvironmentVariables maps well-known environment variables onto
// config keys so users can configure the engine without a config file.
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY"})
	bindEnvKeys("ai.openai.api_key", []string{"OPENAI_API_KEY"})
	bindEnvKeys("store.redis_url", []string{"REDIS_URL"})
}

// bindEnvKeys binds the first set environment variable to the config key.
func bindEnvKeys(configKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(configKey, value)
			return
		}
	}
}
