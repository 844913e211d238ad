package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jroeper/jobdigest/internal/adapter"
	"github.com/jroeper/jobdigest/internal/aggregate"
	"github.com/jroeper/jobdigest/internal/ai"
	"github.com/jroeper/jobdigest/internal/config"
	"github.com/jroeper/jobdigest/internal/digest"
	"github.com/jroeper/jobdigest/internal/filter"
	"github.com/jroeper/jobdigest/internal/model"
	"github.com/jroeper/jobdigest/internal/pipeline"
	"github.com/jroeper/jobdigest/internal/ratelimit"
	"github.com/jroeper/jobdigest/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobdigest",
	Short: "Personal job search radar",
	Long:  "jobdigest fetches postings from public job boards, scores them against your profile, and emails you a digest twice a day.",
	// Default to `start` so that `jobdigest` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBDIGEST_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBDIGEST_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBDIGEST_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupScorer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.Scorer, error) {
	if !cfg.AI.Enabled {
		logger.Info("AI scoring disabled, postings will be stored unscored")
		return ai.NewNopScorer(), nil
	}

	var provider ai.LLMProvider
	switch cfg.AI.Provider {
	case "openai":
		provider = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
	case "gemini":
		p, err := ai.NewGeminiProvider(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, fmt.Errorf("create gemini provider: %w", err)
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}

	logger.Info("AI scoring enabled", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
	return ai.NewLLMScorer(provider, ai.JobScoreTemplate, logger), nil
}

func setupSender(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.DigestSender, error) {
	switch cfg.Digest.Sender {
	case "gmail":
		logger.Info("using gmail sender", "to", cfg.Digest.To)
		return digest.NewGmailSender(ctx, cfg.Digest.CredentialsFile, cfg.Digest.TokenFile, cfg.Digest.From, cfg.Digest.To, logger)
	default:
		return digest.NewLogSender(logger), nil
	}
}

func createAdapter(src config.SourceConfig, httpClient *http.Client, logger *slog.Logger) (model.SourceAdapter, bool) {
	switch src.Type {
	case "greenhouse":
		return adapter.NewGreenhouseAdapter(src.BoardToken, src.Name, httpClient), true
	case "lever":
		return adapter.NewLeverAdapter(src.BoardToken, src.Name, httpClient), true
	case "remoteok":
		return adapter.NewRemoteOKAdapter("", httpClient), true
	case "rss":
		return adapter.NewRSSAdapter(src.Name, src.FeedURL, httpClient), true
	default:
		logger.Warn("unsupported source type, skipping", "source", src.Name, "type", src.Type)
		return nil, false
	}
}

func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	limiter := ratelimit.NewSourceRateLimiter(cfg.RateLimit.Cooldown, cfg.RateLimit.Overrides)

	var adapters []model.SourceAdapter
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}

		a, ok := createAdapter(src, httpClient, logger)
		if !ok {
			continue
		}

		a = retry.NewRetryAdapter(a, 2, 5*time.Second, logger)
		a = ratelimit.NewCooldownAdapter(a, limiter)
		adapters = append(adapters, a)
		logger.Info("registered source", "name", src.Name, "type", src.Type)
	}
	return adapters
}

func buildPipeline(cfg *config.Config, postingStore model.PostingStore, scorer model.Scorer, sender model.DigestSender, logger *slog.Logger) *pipeline.Pipeline {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	adapters := buildAdapters(cfg, httpClient, logger)

	postingFilter := filter.NewCriteriaFilter(
		cfg.Filters.RequiredKeywords,
		cfg.Filters.ExcludeLocations,
		cfg.Filters.MinSalary,
	)
	agg := aggregate.NewAggregator(adapters, postingFilter, logger)

	return pipeline.New(agg, scorer, postingStore, sender, cfg.Profile, logger, pipeline.Options{
		MinScore:  cfg.Digest.MinScore,
		TopN:      cfg.Digest.TopN,
		Retention: cfg.Storage.Retention,
	})
}
