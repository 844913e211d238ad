package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jroeper/jobdigest/internal/scheduler"
	"github.com/jroeper/jobdigest/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the digest daemon",
	Long:  "Start the scheduler daemon; runs the full pipeline at each configured digest time and blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", len(cfg.Sources),
		"digest_times", cfg.Digest.Times,
		"sender", cfg.Digest.Sender,
		"ai_enabled", cfg.AI.Enabled,
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scorer, err := setupScorer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up scorer", "error", err)
		os.Exit(1)
	}

	sender, err := setupSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up sender", "error", err)
		os.Exit(1)
	}

	pipe := buildPipeline(cfg, sqlStore, scorer, sender, logger)

	times := make([]scheduler.TimeOfDay, 0, len(cfg.Digest.Times))
	for _, t := range cfg.Digest.Times {
		tod, err := scheduler.ParseTimeOfDay(t)
		if err != nil {
			logger.Error("invalid digest time", "time", t, "error", err)
			os.Exit(1)
		}
		times = append(times, tod)
	}

	sched := scheduler.NewScheduler(pipe, times, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
