package store

import (
	"testing"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

func memPosting(title, company string) model.Posting {
	posted := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	return model.Posting{
		SourceID: title,
		Source:   "greenhouse/test",
		Title:    title,
		Company:  company,
		URL:      "https://example.com/" + title,
		PostedAt: &posted,
	}
}

func TestMemStore_UpsertAndExists(t *testing.T) {
	s := NewMemStore()
	p := memPosting("Engineer", "Acme")

	exists, err := s.Exists(p.DedupeKey())
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("key should not exist before upsert")
	}

	if err := s.Upsert(p); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	exists, err = s.Exists(p.DedupeKey())
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("key should exist after upsert")
	}
}

func TestMemStore_TopForDigestSurfacesIngestedPostings(t *testing.T) {
	s := NewMemStore()
	high := memPosting("Staff Engineer", "Acme")
	low := memPosting("Engineer", "Beta")
	unscored := memPosting("Designer", "Gamma")

	for _, p := range []model.Posting{high, low, unscored} {
		if err := s.Upsert(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveScore(high.DedupeKey(), model.MatchScore{Value: 90}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveScore(low.DedupeKey(), model.MatchScore{Value: 40}); err != nil {
		t.Fatal(err)
	}

	got, err := s.TopForDigest(0, 10)
	if err != nil {
		t.Fatalf("TopForDigest() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d postings, want 3", len(got))
	}
	if got[0].Title != "Staff Engineer" || got[1].Title != "Engineer" || got[2].Title != "Designer" {
		t.Errorf("unexpected order: %s, %s, %s", got[0].Title, got[1].Title, got[2].Title)
	}

	// A positive threshold drops the low-scored and unscored rows.
	got, err = s.TopForDigest(50, 10)
	if err != nil {
		t.Fatalf("TopForDigest() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Staff Engineer" {
		t.Errorf("threshold query returned %v", got)
	}
}

func TestMemStore_MarkNotifiedExcludesFromDigest(t *testing.T) {
	s := NewMemStore()
	p := memPosting("Engineer", "Acme")
	if err := s.Upsert(p); err != nil {
		t.Fatal(err)
	}

	if err := s.MarkNotified([]string{p.DedupeKey()}); err != nil {
		t.Fatalf("MarkNotified() error = %v", err)
	}

	got, err := s.TopForDigest(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("notified posting still in digest: %v", got)
	}
}
