package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

// MemStore is an in-memory store used in dry-run mode. It behaves like the
// SQLite store within a single process, so a dry run still produces a real
// digest from the postings it just ingested, but nothing survives exit and
// every posting appears new on the next run.
type MemStore struct {
	mu   sync.Mutex
	rows map[string]*model.StoredPosting
}

var _ model.PostingStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]*model.StoredPosting)}
}

// Upsert inserts the posting under its dedupe key; existing keys are a no-op.
func (s *MemStore) Upsert(p model.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := p.DedupeKey()
	if _, ok := s.rows[key]; ok {
		return nil
	}
	s.rows[key] = &model.StoredPosting{
		Posting:   p,
		DedupeKey: key,
		FirstSeen: time.Now().UTC(),
	}
	return nil
}

func (s *MemStore) Exists(dedupeKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.rows[dedupeKey]
	return ok, nil
}

func (s *MemStore) SaveScore(dedupeKey string, score model.MatchScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sp, ok := s.rows[dedupeKey]; ok {
		sp.Score = &score
	}
	return nil
}

// TopForDigest mirrors the SQLite ordering: scored before unscored, higher
// score first, then later posted_at, then title. With minScore > 0 unscored
// postings do not qualify.
func (s *MemStore) TopForDigest(minScore, limit int) ([]model.StoredPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.StoredPosting
	for _, sp := range s.rows {
		if sp.Notified {
			continue
		}
		if minScore > 0 && (sp.Score == nil || sp.Score.Value < minScore) {
			continue
		}
		out = append(out, *sp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Score != nil) != (b.Score != nil) {
			return a.Score != nil
		}
		if a.Score != nil && a.Score.Value != b.Score.Value {
			return a.Score.Value > b.Score.Value
		}
		if (a.PostedAt != nil) != (b.PostedAt != nil) {
			return a.PostedAt != nil
		}
		if a.PostedAt != nil && !a.PostedAt.Equal(*b.PostedAt) {
			return a.PostedAt.After(*b.PostedAt)
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) MarkNotified(dedupeKeys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range dedupeKeys {
		if sp, ok := s.rows[key]; ok {
			sp.Notified = true
		}
	}
	return nil
}

func (s *MemStore) Cleanup(olderThan time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	for key, sp := range s.rows {
		if sp.FirstSeen.Before(cutoff) {
			delete(s.rows, key)
		}
	}
	return nil
}
