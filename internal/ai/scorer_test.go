package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jroeper/jobdigest/internal/model"
)

type fakeProvider struct {
	response string
	err      error
	prompt   string
}

func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProfile() model.Profile {
	return model.Profile{
		Name:            "Jordan Reed",
		CurrentRole:     "Principal Product Manager",
		YearsExperience: 15,
		Skills:          []string{"product strategy", "AI/ML"},
		Strengths:       []string{"fintech", "consumer products"},
		MinSalary:       175000,
		Locations:       []string{"Manhattan", "Remote"},
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantValue     int
		wantRationale string
		wantErr       bool
	}{
		{
			name:          "plain JSON",
			raw:           `{"score": 85, "reasoning": "Strong seniority and skills match."}`,
			wantValue:     85,
			wantRationale: "Strong seniority and skills match.",
		},
		{
			name:          "markdown fenced JSON",
			raw:           "```json\n{\"score\": 42, \"reasoning\": \"Partial fit.\"}\n```",
			wantValue:     42,
			wantRationale: "Partial fit.",
		},
		{
			name:      "out of range clamps high",
			raw:       `{"score": 130, "reasoning": "x"}`,
			wantValue: 100,
		},
		{
			name:      "out of range clamps low",
			raw:       `{"score": -5, "reasoning": "x"}`,
			wantValue: 0,
		},
		{
			name:    "not JSON",
			raw:     "SCORE: 85",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScore(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Value = %d, want %d", got.Value, tt.wantValue)
			}
			if tt.wantRationale != "" && got.Rationale != tt.wantRationale {
				t.Errorf("Rationale = %q, want %q", got.Rationale, tt.wantRationale)
			}
		})
	}
}

func TestLLMScorer_Score(t *testing.T) {
	provider := &fakeProvider{response: `{"score": 77, "reasoning": "Good industry fit."}`}
	scorer := NewLLMScorer(provider, JobScoreTemplate, testLogger())

	posting := model.Posting{
		Title:       "Director of Product",
		Company:     "Acme",
		Location:    "Manhattan, NY",
		Description: "Own the consumer fintech roadmap.",
	}

	got, err := scorer.Score(context.Background(), posting, testProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 77 {
		t.Errorf("Value = %d, want 77", got.Value)
	}
	if got.Rationale != "Good industry fit." {
		t.Errorf("Rationale = %q", got.Rationale)
	}

	// The rendered prompt must carry both the posting and the profile.
	for _, want := range []string{"Director of Product", "Acme", "Jordan Reed", "$175000"} {
		if !strings.Contains(provider.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLLMScorer_ProviderFailureIsScoringUnavailable(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	scorer := NewLLMScorer(provider, JobScoreTemplate, testLogger())

	_, err := scorer.Score(context.Background(), model.Posting{Title: "PM", Company: "Acme"}, testProfile())
	if !errors.Is(err, model.ErrScoringUnavailable) {
		t.Fatalf("expected ErrScoringUnavailable, got %v", err)
	}
}

func TestNopScorer(t *testing.T) {
	_, err := NewNopScorer().Score(context.Background(), model.Posting{}, model.Profile{})
	if !errors.Is(err, model.ErrScoringUnavailable) {
		t.Fatalf("expected ErrScoringUnavailable, got %v", err)
	}
}
