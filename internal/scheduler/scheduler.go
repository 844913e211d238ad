package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Runner is the unit of work the scheduler fires, normally the full pipeline.
type Runner interface {
	Run(ctx context.Context) error
}

// TimeOfDay is a wall-clock trigger time in the local timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var tod TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &tod.Hour, &tod.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: out of range", s)
	}
	return tod, nil
}

// Scheduler fires the runner at fixed wall-clock times each day.
type Scheduler struct {
	runner Runner
	times  []TimeOfDay
	logger *slog.Logger
	now    func() time.Time // overridable for tests
}

// NewScheduler creates a scheduler firing at the given times each day.
func NewScheduler(runner Runner, times []TimeOfDay, logger *slog.Logger) *Scheduler {
	sorted := make([]TimeOfDay, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Hour != sorted[j].Hour {
			return sorted[i].Hour < sorted[j].Hour
		}
		return sorted[i].Minute < sorted[j].Minute
	})
	return &Scheduler{
		runner: runner,
		times:  sorted,
		logger: logger,
		now:    time.Now,
	}
}

// Next returns the earliest trigger strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	for _, tod := range s.times {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour, tod.Minute, 0, 0, now.Location())
		if candidate.After(now) {
			return candidate
		}
	}
	// All of today's triggers have passed; first trigger tomorrow.
	first := s.times[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.Hour, first.Minute, 0, 0, now.Location())
}

// Run blocks until ctx is cancelled, firing the runner at each trigger time.
// Returns nil on cancellation (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	triggers := make([]string, len(s.times))
	for i, tod := range s.times {
		triggers[i] = tod.String()
	}
	s.logger.Info("starting scheduler", "triggers", triggers)

	for {
		next := s.Next(s.now())
		wait := next.Sub(s.now())
		s.logger.Info("next run scheduled", "at", next.Format(time.RFC3339), "in", wait.Round(time.Second).String())

		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(wait):
		}

		if err := s.runner.Run(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
	}
}
