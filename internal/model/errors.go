package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrAllSourcesFailed is returned by the aggregator when every configured
// source adapter failed. It is distinct from an empty result with healthy
// sources ("no matching jobs today" vs "ingestion broke").
var ErrAllSourcesFailed = errors.New("all sources failed")

// ErrScoringUnavailable marks a scoring backend failure. Postings remain
// unscored; the error never aborts a run.
var ErrScoringUnavailable = errors.New("scoring unavailable")

// SourceError wraps one adapter's failure with the source name. A single
// source outage is recoverable; the aggregator records it and continues.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
