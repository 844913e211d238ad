package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockAdapter calls a function on each invocation, tracking call count.
type mockAdapter struct {
	calls int
	fn    func(attempt int) ([]model.Posting, error)
}

func (m *mockAdapter) Name() string { return "mock" }

func (m *mockAdapter) Fetch(_ context.Context) ([]model.Posting, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	postings := []model.Posting{{SourceID: "1", Title: "Engineer"}}
	mock := &mockAdapter{fn: func(_ int) ([]model.Posting, error) {
		return postings, nil
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := ra.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].SourceID != "1" {
		t.Fatalf("unexpected postings: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	postings := []model.Posting{{SourceID: "1"}}
	mock := &mockAdapter{fn: func(attempt int) ([]model.Posting, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return postings, nil
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := ra.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.Posting, error) {
		return nil, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := ra.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.Posting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := ra.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_RespectsRetryAfter(t *testing.T) {
	mock := &mockAdapter{fn: func(attempt int) ([]model.Posting, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{
				StatusCode: 429,
				RetryAfter: 50 * time.Millisecond,
				Err:        errors.New("too many requests"),
			}
		}
		return nil, nil
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Second, discardLogger())

	start := time.Now()
	_, err := ra.Fetch(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Retry-After should override the 10s base delay.
	if elapsed > 2*time.Second {
		t.Fatalf("Retry-After not honored, waited %v", elapsed)
	}
	if elapsed < 40*time.Millisecond {
		t.Fatalf("expected ~50ms wait, got %v", elapsed)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.Posting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	ra := NewRetryAdapter(mock, 2, time.Second, discardLogger())
	_, err := ra.Fetch(ctx)
	if err == nil {
		t.Fatal("expected error from context cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}
