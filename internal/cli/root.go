// Package cli defines the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sentinela/internal/alerts"
	"sentinela/internal/baseline"
	"sentinela/internal/briefing"
	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/kvstore"
	"sentinela/internal/llm"
	"sentinela/internal/logger"
	"sentinela/internal/monitor"
	"sentinela/internal/news"
	"sentinela/internal/sentiment"
	"sentinela/internal/trendsource"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sentinela",
	Short: "Sentinela monitors news signals for watched terms and raises alerts.",
	Long: `Sentinela continuously acquires news articles for a set of watched
terms, scores their sentiment, detects significant shifts and trending
topics, and produces a short situational briefing.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sentinela.yaml)")
}

// engine bundles every constructed pipeline stage.
type engine struct {
	cfg      *config.Config
	store    kvstore.Store
	monitor  *monitor.Monitor
	external *trendsource.Provider
}

// buildEngine loads configuration and wires the full pipeline.
func buildEngine() (*engine, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.App.LogLevel)

	if len(cfg.News.Watchwords) == 0 {
		return nil, fmt.Errorf("%w: news.watchwords (no terms to monitor)", core.ErrConfiguration)
	}

	store, err := kvstore.Open(cfg.Store, cfg.App.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	provider, err := llm.NewProvider(cfg.AI)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("engine configured", "ai_provider", provider.Name(), "store", cfg.Store.Backend)

	baselines := baseline.NewStore(store)
	alertEngine, err := alerts.NewEngine(store, baselines, logNotifier{})
	if err != nil {
		store.Close()
		return nil, err
	}

	analyzer := sentiment.NewAnalyzer(cfg.Monitor, provider, store)
	briefingOrch := briefing.NewOrchestrator(cfg.Monitor, provider, store)
	external := trendsource.NewProvider(cfg.Trends, store)
	source := news.NewGoogleNewsSource(cfg.News, store)

	return &engine{
		cfg:      cfg,
		store:    store,
		monitor:  monitor.New(*cfg, source, analyzer, alertEngine, briefingOrch, external),
		external: external,
	}, nil
}

func (e *engine) close() {
	if err := e.store.Close(); err != nil {
		logger.Warn("store close failed", "error", err.Error())
	}
}

// logNotifier surfaces new alerts on the log, mirroring how the API
// surfaces them to clients.
type logNotifier struct{}

func (logNotifier) Notify(alert core.Alert) {
	switch alert.Severity {
	case core.SeverityDanger:
		logger.Error("alert raised", nil, "severity", string(alert.Severity), "title", alert.Title, "description", alert.Description)
	default:
		logger.Info("alert raised", "severity", string(alert.Severity), "title", alert.Title, "description", alert.Description)
	}
}
