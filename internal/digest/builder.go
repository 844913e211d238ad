package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

//go:embed templates/digest.html.tmpl
var digestTemplateRaw string

// digestTemplate is parsed once at package init.
var digestTemplate = template.Must(template.New("digest").Parse(digestTemplateRaw))

// Builder renders stored, scored postings into the digest email.
type Builder struct{}

// NewBuilder returns a digest builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// digestJob is the per-posting view passed to the template.
type digestJob struct {
	Title    string
	Company  string
	Location string
	Source   string
	URL      string
	Salary   string
	Posted   string
	Score    *model.MatchScore
}

type digestData struct {
	TimeOfDay string
	Date      string
	Jobs      []digestJob
}

// Build renders the digest for the given postings at the given send time.
// Returns the subject line and HTML body. Postings are expected pre-sorted,
// best first (the store query does this).
func (b *Builder) Build(postings []model.StoredPosting, now time.Time) (subject, htmlBody string, err error) {
	timeOfDay := "Morning"
	if now.Hour() >= 12 {
		timeOfDay = "Evening"
	}
	dateStr := now.Format("Jan 2")

	if len(postings) == 0 {
		subject = fmt.Sprintf("%s Job Digest (%s) - no new matches", timeOfDay, dateStr)
	} else {
		subject = fmt.Sprintf("%s Job Digest (%s) - %d new matches", timeOfDay, dateStr, len(postings))
	}

	data := digestData{
		TimeOfDay: timeOfDay,
		Date:      now.Format("Monday, January 2, 2006"),
	}
	for _, sp := range postings {
		data.Jobs = append(data.Jobs, digestJob{
			Title:    sp.Title,
			Company:  sp.Company,
			Location: sp.Location,
			Source:   sp.Source,
			URL:      sp.URL,
			Salary:   formatSalary(sp.Posting),
			Posted:   formatPosted(sp.PostedAt),
			Score:    sp.Score,
		})
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render digest: %w", err)
	}

	return subject, buf.String(), nil
}

func formatSalary(p model.Posting) string {
	switch {
	case p.SalaryMin != nil && p.SalaryMax != nil:
		return fmt.Sprintf("$%s-$%s", formatThousands(*p.SalaryMin), formatThousands(*p.SalaryMax))
	case p.SalaryMax != nil:
		return fmt.Sprintf("up to $%s", formatThousands(*p.SalaryMax))
	case p.SalaryMin != nil:
		return fmt.Sprintf("from $%s", formatThousands(*p.SalaryMin))
	default:
		return ""
	}
}

func formatThousands(v int) string {
	if v >= 1000 && v%1000 == 0 {
		return fmt.Sprintf("%dk", v/1000)
	}
	return fmt.Sprintf("%d", v)
}

func formatPosted(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Jan 2")
}
