package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/jroeper/jobdigest/internal/model"
)

// Description text beyond this many runes adds cost without adding signal.
const maxDescriptionRunes = 1500

// LLMScorer implements model.Scorer using an LLM provider.
type LLMScorer struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

var _ model.Scorer = (*LLMScorer)(nil)

// NewLLMScorer creates a scorer that rates postings against the user profile.
func NewLLMScorer(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *LLMScorer {
	return &LLMScorer{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// Score renders the prompt for one posting and parses the model's JSON reply.
// Any provider failure is reported as ErrScoringUnavailable; the caller keeps
// the posting unscored and moves on.
func (s *LLMScorer) Score(ctx context.Context, p model.Posting, profile model.Profile) (model.MatchScore, error) {
	var promptBuf bytes.Buffer
	data := struct {
		Profile     model.Profile
		Posting     model.Posting
		Description string
	}{
		Profile:     profile,
		Posting:     p,
		Description: truncateRunes(p.Description, maxDescriptionRunes),
	}
	if err := s.tmpl.Execute(&promptBuf, data); err != nil {
		return model.MatchScore{}, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := s.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return model.MatchScore{}, fmt.Errorf("%w: %v", model.ErrScoringUnavailable, err)
	}

	score, err := parseScore(raw)
	if err != nil {
		return model.MatchScore{}, fmt.Errorf("%w: %v", model.ErrScoringUnavailable, err)
	}

	s.logger.Debug("posting scored",
		"title", p.Title,
		"company", p.Company,
		"score", score.Value,
	)

	return score, nil
}

// rawScore is the JSON shape the prompt asks for.
type rawScore struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// parseScore deserializes the LLM response. Providers without structured
// outputs sometimes wrap the object in a markdown fence, so it is stripped
// first. Scores outside [0,100] are clamped.
func parseScore(raw string) (model.MatchScore, error) {
	cleaned := stripCodeFence(raw)

	var rs rawScore
	if err := json.Unmarshal([]byte(cleaned), &rs); err != nil {
		return model.MatchScore{}, fmt.Errorf("unmarshal score JSON: %w", err)
	}

	value := rs.Score
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return model.MatchScore{Value: value, Rationale: strings.TrimSpace(rs.Reasoning)}, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// NopScorer is used when ai.enabled is false. Every posting stays unscored.
type NopScorer struct{}

// NewNopScorer returns a NopScorer.
func NewNopScorer() *NopScorer {
	return &NopScorer{}
}

// Score reports the scoring backend as unavailable without a network call.
func (n *NopScorer) Score(_ context.Context, _ model.Posting, _ model.Profile) (model.MatchScore, error) {
	return model.MatchScore{}, model.ErrScoringUnavailable
}
