package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	Content     string             `json:"content"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	PayRanges   []greenhousePay    `json:"pay_input_ranges"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhousePay struct {
	MinCents     int64  `json:"min_cents"`
	MaxCents     int64  `json:"max_cents"`
	CurrencyType string `json:"currency_type"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches postings from one company's Greenhouse public board.
type GreenhouseAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(boardToken string, companyName string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

// Name identifies the source in logs and on fetched postings.
func (a *GreenhouseAdapter) Name() string {
	return "greenhouse/" + a.boardToken
}

// Fetch retrieves all jobs from the Greenhouse board and normalizes them into
// Postings. Entries missing a title are skipped; only an unreachable board or
// an undecodable response fails the adapter.
func (a *GreenhouseAdapter) Fetch(ctx context.Context) ([]model.Posting, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("greenhouse fetch for %s: unexpected status %d", a.boardToken, resp.StatusCode),
		}
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	postings := make([]model.Posting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		if gj.Title == "" {
			continue
		}

		p := model.Posting{
			SourceID:    fmt.Sprintf("%d", gj.ID),
			Source:      "greenhouse",
			Title:       gj.Title,
			Company:     a.companyName,
			Location:    gj.Location.Name,
			Description: htmlToText(gj.Content),
			URL:         gj.AbsoluteURL,
		}

		if gj.UpdatedAt != "" {
			t, err := time.Parse(time.RFC3339, gj.UpdatedAt)
			if err == nil {
				p.PostedAt = &t
			}
		}

		// Take the first USD pay range; boards rarely publish more than one.
		for _, pr := range gj.PayRanges {
			if pr.CurrencyType != "" && pr.CurrencyType != "USD" {
				continue
			}
			if pr.MinCents > 0 {
				min := int(pr.MinCents / 100)
				p.SalaryMin = &min
			}
			if pr.MaxCents > 0 {
				max := int(pr.MaxCents / 100)
				p.SalaryMax = &max
			}
			break
		}

		postings = append(postings, p)
	}

	return postings, nil
}
