package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jroeper/jobdigest/internal/aggregate"
	"github.com/jroeper/jobdigest/internal/digest"
	"github.com/jroeper/jobdigest/internal/model"
)

// aggregator is the slice of aggregate.Aggregator the pipeline needs.
type aggregator interface {
	Aggregate(ctx context.Context) (*aggregate.Result, error)
}

// Options tune one pipeline run.
type Options struct {
	MinScore  int           // digest threshold; 0 includes unscored postings
	TopN      int           // max postings per digest email
	Retention time.Duration // rows older than this are purged after each run
}

// Pipeline owns the full cycle: aggregate → persist new postings → score →
// build digest → send → mark notified → cleanup.
type Pipeline struct {
	agg     aggregator
	scorer  model.Scorer
	store   model.PostingStore
	builder *digest.Builder
	sender  model.DigestSender
	profile model.Profile
	logger  *slog.Logger
	opts    Options
}

// New creates a pipeline wired with all its dependencies.
func New(
	agg aggregator,
	scorer model.Scorer,
	store model.PostingStore,
	sender model.DigestSender,
	profile model.Profile,
	logger *slog.Logger,
	opts Options,
) *Pipeline {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	return &Pipeline{
		agg:     agg,
		scorer:  scorer,
		store:   store,
		builder: digest.NewBuilder(),
		sender:  sender,
		profile: profile,
		logger:  logger,
		opts:    opts,
	}
}

// Run executes one full cycle: ingest everything new, then send the digest.
// A broken ingest (every source down) aborts the cycle without sending, so
// the missing email itself signals the outage; the skip is logged loudly.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.Ingest(ctx); err != nil {
		if errors.Is(err, model.ErrAllSourcesFailed) {
			p.logger.Error("ingest broke, skipping digest for this cycle", "error", err)
		}
		return err
	}
	if err := p.SendDigest(ctx); err != nil {
		return err
	}
	if p.opts.Retention > 0 {
		if err := p.store.Cleanup(p.opts.Retention); err != nil {
			p.logger.Warn("cleanup failed", "error", err)
		}
	}
	return nil
}

// Ingest aggregates all sources, persists postings not seen before, and
// scores each new one. A posting whose scoring fails is kept unscored; the
// run only aborts when ingestion itself is broken.
func (p *Pipeline) Ingest(ctx context.Context) error {
	result, err := p.agg.Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	var newCount, scoredCount int
	for _, posting := range result.Postings {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		key := posting.DedupeKey()
		exists, err := p.store.Exists(key)
		if err != nil {
			return fmt.Errorf("ingest: checking %q: %w", key, err)
		}
		if exists {
			continue
		}

		if err := p.store.Upsert(posting); err != nil {
			return fmt.Errorf("ingest: storing %q: %w", key, err)
		}
		newCount++

		score, err := p.scorer.Score(ctx, posting, p.profile)
		if err != nil {
			if errors.Is(err, model.ErrScoringUnavailable) {
				p.logger.Warn("posting kept unscored",
					"title", posting.Title,
					"company", posting.Company,
					"error", err,
				)
				continue
			}
			return fmt.Errorf("ingest: scoring %q: %w", key, err)
		}

		if err := p.store.SaveScore(key, score); err != nil {
			return fmt.Errorf("ingest: saving score for %q: %w", key, err)
		}
		scoredCount++
	}

	p.logger.Info("ingest complete",
		"fetched", result.RawCount,
		"after_dedupe_filter", len(result.Postings),
		"new", newCount,
		"scored", scoredCount,
		"failed_sources", len(result.SourceErrors),
	)

	return nil
}

// SendDigest renders and sends the digest of undelivered postings, then marks
// them notified. An empty digest is still sent so the schedule stays visible.
func (p *Pipeline) SendDigest(ctx context.Context) error {
	postings, err := p.store.TopForDigest(p.opts.MinScore, p.opts.TopN)
	if err != nil {
		return fmt.Errorf("digest: loading postings: %w", err)
	}

	subject, body, err := p.builder.Build(postings, time.Now())
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}

	if err := p.sender.Send(ctx, subject, body); err != nil {
		return fmt.Errorf("digest: sending: %w", err)
	}

	if len(postings) > 0 {
		keys := make([]string, len(postings))
		for i, sp := range postings {
			keys[i] = sp.DedupeKey
		}
		if err := p.store.MarkNotified(keys); err != nil {
			return fmt.Errorf("digest: marking notified: %w", err)
		}
	}

	p.logger.Info("digest complete", "subject", subject, "postings", len(postings))
	return nil
}
