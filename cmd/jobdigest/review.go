package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jroeper/jobdigest/internal/review"
	"github.com/jroeper/jobdigest/internal/store"
)

var reviewLimit int

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse stored postings interactively (TUI)",
	Long:  "Opens a terminal UI over the stored postings: scores, rationales, and descriptions, newest first.",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", 200, "maximum number of postings to load")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	postings, err := sqlStore.Recent(reviewLimit)
	if err != nil {
		logger.Error("failed to load postings", "error", err)
		os.Exit(1)
	}

	return review.Run(postings)
}
