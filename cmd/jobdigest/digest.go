package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jroeper/jobdigest/internal/digest"
	"github.com/jroeper/jobdigest/internal/store"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest subcommands",
}

var digestTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test digest",
	Long:  "Builds a digest from the current store and sends it through the configured sender without marking anything notified. Verifies email delivery end to end.",
	RunE:  runDigestTest,
}

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.AddCommand(digestTestCmd)
}

func runDigestTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlStore, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	sender, err := setupSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up sender", "error", err)
		os.Exit(1)
	}

	postings, err := sqlStore.TopForDigest(cfg.Digest.MinScore, cfg.Digest.TopN)
	if err != nil {
		logger.Error("failed to load postings", "error", err)
		os.Exit(1)
	}

	subject, body, err := digest.NewBuilder().Build(postings, time.Now())
	if err != nil {
		logger.Error("failed to build digest", "error", err)
		os.Exit(1)
	}

	if err := sender.Send(ctx, subject, body); err != nil {
		logger.Error("test digest failed", "error", err)
		os.Exit(1)
	}

	logger.Info("test digest sent successfully", "postings", len(postings))
	return nil
}
