package filter

import (
	"strings"

	"github.com/jroeper/jobdigest/internal/model"
)

// CriteriaFilter applies the configured keyword, location, and salary
// criteria to a posting. Matching is case-insensitive substring matching.
// An empty keyword list is treated as "match all". A posting with no declared
// salary is never excluded on salary grounds.
type CriteriaFilter struct {
	requiredKeywords []string
	excludeLocations []string
	minSalary        int // 0 disables the salary threshold
}

var _ model.PostingFilter = (*CriteriaFilter)(nil)

// NewCriteriaFilter returns a filter for the given criteria.
func NewCriteriaFilter(requiredKeywords, excludeLocations []string, minSalary int) *CriteriaFilter {
	return &CriteriaFilter{
		requiredKeywords: requiredKeywords,
		excludeLocations: excludeLocations,
		minSalary:        minSalary,
	}
}

// Match returns true if the posting survives all criteria:
//   - its location contains no excluded-location entry,
//   - its title or description contains at least one required keyword
//     (when the allow-list is configured),
//   - its salary_max, when declared, meets the minimum threshold.
func (f *CriteriaFilter) Match(p model.Posting) bool {
	locationLower := strings.ToLower(p.Location)
	for _, loc := range f.excludeLocations {
		if loc == "" {
			continue
		}
		if strings.Contains(locationLower, strings.ToLower(loc)) {
			return false
		}
	}

	if len(f.requiredKeywords) > 0 {
		text := strings.ToLower(p.Title + " " + p.Description)
		matched := false
		for _, kw := range f.requiredKeywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.minSalary > 0 && p.SalaryMax != nil && *p.SalaryMax < f.minSalary {
		return false
	}

	return true
}
