package digest

import (
	"context"
	"log/slog"

	"github.com/jroeper/jobdigest/internal/model"
)

// LogSender writes digests to the structured log instead of delivering them.
// Used by dry runs and as the default when no mail transport is configured.
type LogSender struct {
	logger *slog.Logger
}

var _ model.DigestSender = (*LogSender)(nil)

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, subject, htmlBody string) error {
	s.logger.Info("digest (log sender)",
		"subject", subject,
		"body_bytes", len(htmlBody),
	)
	return nil
}
