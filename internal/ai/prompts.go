package ai

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/jroeper/jobdigest/internal/model"
)

//go:embed prompts/job_score.md
var jobScorePromptRaw string

// JobScoreTemplate is the parsed prompt template for scoring.
// Parsed once at package init; reused on every Score call.
var JobScoreTemplate = template.Must(template.New("job_score").Funcs(template.FuncMap{
	"join": strings.Join,
	"salaryRange": func(p model.Posting) string {
		switch {
		case p.SalaryMin != nil && p.SalaryMax != nil:
			return fmt.Sprintf("$%d-$%d", *p.SalaryMin, *p.SalaryMax)
		case p.SalaryMax != nil:
			return fmt.Sprintf("up to $%d", *p.SalaryMax)
		case p.SalaryMin != nil:
			return fmt.Sprintf("from $%d", *p.SalaryMin)
		default:
			return "Not specified"
		}
	},
}).Parse(jobScorePromptRaw))
