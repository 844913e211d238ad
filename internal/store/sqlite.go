package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/jroeper/jobdigest/internal/model"
)

// Timestamps are stored as RFC3339 UTC strings so lexicographic comparison
// in SQL matches chronological order.
const timeLayout = time.RFC3339

// SQLiteStore persists postings and their scores in a SQLite database,
// keyed by dedupe key.
type SQLiteStore struct {
	db *sql.DB
}

var _ model.PostingStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the postings table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS postings (
		dedupe_key  TEXT PRIMARY KEY,
		source_id   TEXT NOT NULL,
		source      TEXT NOT NULL,
		title       TEXT NOT NULL,
		company     TEXT NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		url         TEXT NOT NULL DEFAULT '',
		posted_at   TEXT,
		salary_min  INTEGER,
		salary_max  INTEGER,
		score       INTEGER,
		rationale   TEXT,
		notified    INTEGER NOT NULL DEFAULT 0,
		first_seen  TEXT NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating postings table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Upsert inserts the posting under its dedupe key. Re-inserting an existing
// key is a no-op, so repeat runs never re-notify on the same job.
func (s *SQLiteStore) Upsert(p model.Posting) error {
	var postedAt any
	if p.PostedAt != nil {
		postedAt = p.PostedAt.UTC().Format(timeLayout)
	}

	query, args, err := sq.Insert("postings").
		Options("OR IGNORE").
		Columns("dedupe_key", "source_id", "source", "title", "company",
			"location", "description", "url", "posted_at",
			"salary_min", "salary_max", "first_seen").
		Values(p.DedupeKey(), p.SourceID, p.Source, p.Title, p.Company,
			p.Location, p.Description, p.URL, postedAt,
			intOrNil(p.SalaryMin), intOrNil(p.SalaryMax),
			time.Now().UTC().Format(timeLayout)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert: %w", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("upserting posting %s: %w", p.DedupeKey(), err)
	}
	return nil
}

// Exists returns true if the given dedupe key has already been recorded.
func (s *SQLiteStore) Exists(dedupeKey string) (bool, error) {
	query, args, err := sq.Select("1").
		From("postings").
		Where(sq.Eq{"dedupe_key": dedupeKey}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building exists query: %w", err)
	}

	var one int
	err = s.db.QueryRow(query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existence of %s: %w", dedupeKey, err)
	}
	return true, nil
}

// SaveScore records the match score for a stored posting.
func (s *SQLiteStore) SaveScore(dedupeKey string, score model.MatchScore) error {
	query, args, err := sq.Update("postings").
		Set("score", score.Value).
		Set("rationale", score.Rationale).
		Where(sq.Eq{"dedupe_key": dedupeKey}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building score update: %w", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("saving score for %s: %w", dedupeKey, err)
	}
	return nil
}

// TopForDigest returns postings not yet included in a digest, best score
// first. With minScore > 0 only scored postings at or above the threshold
// qualify; with minScore <= 0 unscored postings are included too (scoring may
// be disabled entirely).
func (s *SQLiteStore) TopForDigest(minScore, limit int) ([]model.StoredPosting, error) {
	builder := sq.Select(postingColumns...).
		From("postings").
		Where(sq.Eq{"notified": 0}).
		OrderBy("score IS NULL", "score DESC", "posted_at DESC", "title").
		Limit(uint64(limit))

	if minScore > 0 {
		builder = builder.Where(sq.GtOrEq{"score": minScore})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building digest query: %w", err)
	}

	return s.queryPostings(query, args)
}

// Recent returns the most recently discovered postings, best score first,
// regardless of notification state. Used by the review TUI.
func (s *SQLiteStore) Recent(limit int) ([]model.StoredPosting, error) {
	query, args, err := sq.Select(postingColumns...).
		From("postings").
		OrderBy("score IS NULL", "score DESC", "first_seen DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building recent query: %w", err)
	}

	return s.queryPostings(query, args)
}

// MarkNotified flags the given keys as already delivered in a digest.
func (s *SQLiteStore) MarkNotified(dedupeKeys []string) error {
	if len(dedupeKeys) == 0 {
		return nil
	}

	query, args, err := sq.Update("postings").
		Set("notified", 1).
		Where(sq.Eq{"dedupe_key": dedupeKeys}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building notify update: %w", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("marking %d postings notified: %w", len(dedupeKeys), err)
	}
	return nil
}

// Cleanup deletes postings first seen before the given duration ago.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).UTC().Format(timeLayout)

	query, args, err := sq.Delete("postings").
		Where(sq.Lt{"first_seen": cutoff}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building cleanup: %w", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("cleaning up postings older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var postingColumns = []string{
	"dedupe_key", "source_id", "source", "title", "company",
	"location", "description", "url", "posted_at",
	"salary_min", "salary_max", "score", "rationale", "notified", "first_seen",
}

func (s *SQLiteStore) queryPostings(query string, args []any) ([]model.StoredPosting, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var result []model.StoredPosting
	for rows.Next() {
		var (
			sp        model.StoredPosting
			postedAt  sql.NullString
			salaryMin sql.NullInt64
			salaryMax sql.NullInt64
			score     sql.NullInt64
			rationale sql.NullString
			notified  int
			firstSeen string
		)
		if err := rows.Scan(&sp.DedupeKey, &sp.SourceID, &sp.Source, &sp.Title,
			&sp.Company, &sp.Location, &sp.Description, &sp.URL, &postedAt,
			&salaryMin, &salaryMax, &score, &rationale, &notified, &firstSeen); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}

		if postedAt.Valid {
			if t, err := time.Parse(timeLayout, postedAt.String); err == nil {
				sp.PostedAt = &t
			}
		}
		if salaryMin.Valid {
			v := int(salaryMin.Int64)
			sp.SalaryMin = &v
		}
		if salaryMax.Valid {
			v := int(salaryMax.Int64)
			sp.SalaryMax = &v
		}
		if score.Valid {
			sp.Score = &model.MatchScore{
				Value:     int(score.Int64),
				Rationale: rationale.String,
			}
		}
		sp.Notified = notified != 0
		if t, err := time.Parse(timeLayout, firstSeen); err == nil {
			sp.FirstSeen = t
		}

		result = append(result, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating postings: %w", err)
	}

	return result, nil
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
