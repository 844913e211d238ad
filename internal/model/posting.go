package model

import (
	"context"
	"strings"
	"time"
)

// Posting is the unified representation of a job listing from any source.
type Posting struct {
	SourceID    string     // identifier unique within one source
	Source      string     // which adapter produced this record
	Title       string     // job title
	Company     string     // company name
	Location    string     // location string
	Description string     // plain-text description (may be empty)
	URL         string     // canonical link to the original listing
	PostedAt    *time.Time // nullable (not all sources provide this)
	SalaryMin   *int       // annual salary lower bound, nil when unknown
	SalaryMax   *int       // annual salary upper bound, nil when unknown
}

// DedupeKey returns the natural key used to merge duplicates across sources:
// the normalized (title, company) pair joined by a separator that cannot
// appear in either part after normalization. The same real-world job posted on
// two boards carries different source IDs but the same title and company, so
// source IDs are deliberately not part of the key.
func (p Posting) DedupeKey() string {
	return normalize(p.Title) + "\x1f" + normalize(p.Company)
}

// HasSalary reports whether the posting declares either salary bound.
func (p Posting) HasSalary() bool {
	return p.SalaryMin != nil || p.SalaryMax != nil
}

// normalize case-folds, trims, and collapses internal whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// MatchScore is the result of scoring one posting against the user profile.
type MatchScore struct {
	Value     int    // 0-100
	Rationale string // brief explanation from the model
}

// Profile is the fixed user profile postings are scored against.
type Profile struct {
	Name            string
	CurrentRole     string
	YearsExperience int
	Skills          []string
	Strengths       []string
	MinSalary       int
	Locations       []string
}

// SourceAdapter fetches postings from one external job board.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]Posting, error)
}

// PostingStore persists postings and their scores keyed by dedupe key.
type PostingStore interface {
	// Upsert inserts the posting if its dedupe key is new. Re-inserting an
	// existing key is a no-op.
	Upsert(p Posting) error
	Exists(dedupeKey string) (bool, error)
	SaveScore(dedupeKey string, score MatchScore) error
	// TopForDigest returns scored postings at or above minScore that have not
	// yet been included in a digest, best first.
	TopForDigest(minScore, limit int) ([]StoredPosting, error)
	MarkNotified(dedupeKeys []string) error
	Cleanup(olderThan time.Duration) error
}

// StoredPosting is a posting as read back from the store, with scoring state.
type StoredPosting struct {
	Posting
	DedupeKey string
	Score     *MatchScore // nil while unscored
	Notified  bool
	FirstSeen time.Time
}

// Scorer rates one posting against the profile.
type Scorer interface {
	Score(ctx context.Context, p Posting, profile Profile) (MatchScore, error)
}

// PostingFilter decides whether a posting survives the configured criteria.
type PostingFilter interface {
	Match(p Posting) bool
}

// DigestSender transmits a rendered digest.
type DigestSender interface {
	Send(ctx context.Context, subject, htmlBody string) error
}
