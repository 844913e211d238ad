package aggregate

import (
	"context"
	"log/slog"

	"github.com/jroeper/jobdigest/internal/model"
)

// Aggregator invokes every configured source adapter, merges their outputs,
// deduplicates by normalized (title, company), and applies the configured
// posting filter. It is a pure computation over the collected set; nothing
// here touches storage.
type Aggregator struct {
	adapters []model.SourceAdapter
	filter   model.PostingFilter
	logger   *slog.Logger
}

// Result is one aggregation pass. SourceErrors maps source name to the
// failure that made it drop out; a partial run still counts as success.
type Result struct {
	Postings     []model.Posting
	SourceErrors map[string]error
	RawCount     int // postings collected before dedupe and filtering
}

// NewAggregator creates an aggregator over the given adapters. Adapter order
// matters only for cool-down spacing and first-seen tie-breaks, not
// correctness.
func NewAggregator(adapters []model.SourceAdapter, filter model.PostingFilter, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		adapters: adapters,
		filter:   filter,
		logger:   logger,
	}
}

// Aggregate runs one pass: fetch from every adapter, dedupe, filter, sort.
// A failing adapter is recorded and skipped; the run aborts only on context
// cancellation. When every adapter fails the result is empty and the error is
// model.ErrAllSourcesFailed, so callers can tell "no matching jobs" apart
// from "ingestion broke".
func (a *Aggregator) Aggregate(ctx context.Context) (*Result, error) {
	result := &Result{SourceErrors: make(map[string]error)}

	var collected []model.Posting
	for _, src := range a.adapters {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		postings, err := src.Fetch(ctx)
		if err != nil {
			srcErr := &model.SourceError{Source: src.Name(), Err: err}
			result.SourceErrors[src.Name()] = srcErr
			a.logger.Error("source fetch failed", "source", src.Name(), "error", err)
			continue
		}

		a.logger.Info("source fetched", "source", src.Name(), "postings", len(postings))
		collected = append(collected, postings...)
	}

	result.RawCount = len(collected)

	if len(a.adapters) > 0 && len(result.SourceErrors) == len(a.adapters) {
		return result, model.ErrAllSourcesFailed
	}

	deduped := Dedupe(collected)

	kept := deduped[:0]
	for _, p := range deduped {
		if a.filter == nil || a.filter.Match(p) {
			kept = append(kept, p)
		}
	}

	SortPostings(kept)
	result.Postings = kept

	a.logger.Info("aggregation complete",
		"raw", result.RawCount,
		"deduped", len(deduped),
		"kept", len(kept),
		"failed_sources", len(result.SourceErrors),
	)

	return result, nil
}
