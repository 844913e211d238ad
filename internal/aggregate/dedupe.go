package aggregate

import (
	"sort"
	"strings"

	"github.com/jroeper/jobdigest/internal/model"
)

// Dedupe groups postings by their dedupe key and keeps exactly one
// representative per group. When several postings collapse to the same key the
// representative is chosen by:
//  1. a posting with salary data beats one without,
//  2. with equal salary state, the more recent posted_at wins (a missing
//     posted_at loses to any present one),
//  3. otherwise the first-seen posting stays.
//
// The choice is deterministic given identical input order. Dedupe is
// idempotent: running it on its own output changes nothing.
func Dedupe(postings []model.Posting) []model.Posting {
	byKey := make(map[string]int, len(postings))
	result := make([]model.Posting, 0, len(postings))

	for _, p := range postings {
		key := p.DedupeKey()
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(result)
			result = append(result, p)
			continue
		}
		if preferred(p, result[idx]) {
			result[idx] = p
		}
	}

	return result
}

// preferred reports whether challenger should replace incumbent as the
// representative of a dedupe group. False on a complete tie, which preserves
// first-seen order.
func preferred(challenger, incumbent model.Posting) bool {
	cs, is := challenger.HasSalary(), incumbent.HasSalary()
	if cs != is {
		return cs
	}

	switch {
	case challenger.PostedAt == nil:
		return false
	case incumbent.PostedAt == nil:
		return true
	default:
		return challenger.PostedAt.After(*incumbent.PostedAt)
	}
}

// SortPostings orders postings for reproducible output: descending posted_at
// (postings without one sort last), ties broken by title then company.
func SortPostings(postings []model.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		pi, pj := postings[i].PostedAt, postings[j].PostedAt
		switch {
		case pi == nil && pj == nil:
			// fall through to title/company
		case pi == nil:
			return false
		case pj == nil:
			return true
		case !pi.Equal(*pj):
			return pi.After(*pj)
		}

		ti, tj := strings.ToLower(postings[i].Title), strings.ToLower(postings[j].Title)
		if ti != tj {
			return ti < tj
		}
		return strings.ToLower(postings[i].Company) < strings.ToLower(postings[j].Company)
	})
}
