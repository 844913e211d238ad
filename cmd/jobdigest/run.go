package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jroeper/jobdigest/internal/digest"
	"github.com/jroeper/jobdigest/internal/model"
	"github.com/jroeper/jobdigest/internal/store"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full cycle now, then exit",
	Long:  "Fetch, score, and send the digest once without waiting for the schedule. With --dry-run nothing is persisted and the digest goes to the log.",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not persist anything; log the digest instead of sending it")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var postingStore model.PostingStore
	var sender model.DigestSender
	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be persisted or emailed")
		// In-memory store so the digest still shows what this run fetched.
		postingStore = store.NewMemStore()
		sender = digest.NewLogSender(logger)
	} else {
		sqlStore, err := store.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		postingStore = sqlStore

		sender, err = setupSender(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to set up sender", "error", err)
			os.Exit(1)
		}
	}

	scorer, err := setupScorer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up scorer", "error", err)
		os.Exit(1)
	}

	pipe := buildPipeline(cfg, postingStore, scorer, sender, logger)
	if err := pipe.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete")
	return nil
}
