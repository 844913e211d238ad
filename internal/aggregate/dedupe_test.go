package aggregate

import (
	"testing"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(v int) *int              { return &v }

func TestDedupe_NormalizedKeyCollapses(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	input := []model.Posting{
		{Title: "Senior PM", Company: "Acme", Source: "A", PostedAt: timePtr(jan1)},
		{Title: " senior pm ", Company: "ACME", Source: "B", PostedAt: timePtr(jan5)},
	}

	got := Dedupe(input)
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	// Same missing-salary tie state, so the later posted_at wins.
	if got[0].Source != "B" {
		t.Errorf("expected representative from source B, got %s", got[0].Source)
	}
}

func TestDedupe_SalaryBeatsRecency(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	input := []model.Posting{
		{Title: "Senior PM", Company: "Acme", Source: "A", PostedAt: timePtr(early), SalaryMax: intPtr(180000)},
		{Title: "Senior PM", Company: "Acme", Source: "B", PostedAt: timePtr(late)},
	}

	got := Dedupe(input)
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if got[0].Source != "A" {
		t.Errorf("salary data should beat recency, got representative from %s", got[0].Source)
	}
}

func TestDedupe_PresentPostedAtBeatsMissing(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	input := []model.Posting{
		{Title: "Senior PM", Company: "Acme", Source: "A"},
		{Title: "Senior PM", Company: "Acme", Source: "B", PostedAt: timePtr(jan1)},
	}

	got := Dedupe(input)
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if got[0].Source != "B" {
		t.Errorf("present posted_at should win, got representative from %s", got[0].Source)
	}
}

func TestDedupe_FirstSeenBreaksCompleteTie(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	input := []model.Posting{
		{Title: "Senior PM", Company: "Acme", Source: "A", PostedAt: timePtr(jan1)},
		{Title: "Senior PM", Company: "Acme", Source: "B", PostedAt: timePtr(jan1)},
	}

	got := Dedupe(input)
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if got[0].Source != "A" {
		t.Errorf("first-seen should break a complete tie, got representative from %s", got[0].Source)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	input := []model.Posting{
		{Title: "Senior PM", Company: "Acme", Source: "A", PostedAt: timePtr(jan1)},
		{Title: "senior pm", Company: "ACME", Source: "B", PostedAt: timePtr(jan5)},
		{Title: "Staff Engineer", Company: "Acme", Source: "A", SalaryMax: intPtr(200000)},
		{Title: "Staff Engineer", Company: "Other Co", Source: "B"},
	}

	once := Dedupe(input)
	twice := Dedupe(once)

	if len(once) != 3 {
		t.Fatalf("expected 3 postings after dedupe, got %d", len(once))
	}
	if len(twice) != len(once) {
		t.Fatalf("second pass shrank the set: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].DedupeKey() != twice[i].DedupeKey() || once[i].Source != twice[i].Source {
			t.Errorf("representative %d changed on second pass", i)
		}
	}
}

func TestDedupe_DistinctKeysUntouched(t *testing.T) {
	input := []model.Posting{
		{Title: "Senior PM", Company: "Acme"},
		{Title: "Senior PM", Company: "Beta"},
		{Title: "Staff PM", Company: "Acme"},
	}
	got := Dedupe(input)
	if len(got) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(got))
	}
}

func TestSortPostings_Deterministic(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	postings := []model.Posting{
		{Title: "Zeta Role", Company: "Zco"},
		{Title: "Beta Role", Company: "Bco", PostedAt: timePtr(jan1)},
		{Title: "Alpha Role", Company: "Aco", PostedAt: timePtr(jan5)},
		{Title: "Alpha Role", Company: "Bco", PostedAt: timePtr(jan1)},
		{Title: "Alpha Role", Company: "Aco", PostedAt: timePtr(jan1)},
	}

	SortPostings(postings)

	wantTitles := []string{"Alpha Role", "Alpha Role", "Alpha Role", "Beta Role", "Zeta Role"}
	for i, want := range wantTitles {
		if postings[i].Title != want {
			t.Fatalf("position %d: got %q, want %q", i, postings[i].Title, want)
		}
	}
	// Same posted_at, same title: company breaks the tie.
	if postings[1].Company != "Aco" || postings[2].Company != "Bco" {
		t.Errorf("unexpected tie-break order: %+v", postings)
	}
	// Missing posted_at sorts last.
	if postings[4].PostedAt != nil {
		t.Errorf("posting without posted_at should sort last")
	}
}
