package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

const remoteOKURL = "https://remoteok.com/api"

// remoteOKJob represents a single entry in the RemoteOK API response.
// The first array element is a legal notice without a position; it is skipped
// like any other malformed entry.
type remoteOKJob struct {
	ID          json.Number `json:"id"`
	Company     string      `json:"company"`
	Position    string      `json:"position"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Date        string      `json:"date"`
	SalaryMin   int         `json:"salary_min"`
	SalaryMax   int         `json:"salary_max"`
}

// RemoteOKAdapter fetches postings from the RemoteOK public API, a single
// global feed of remote jobs.
type RemoteOKAdapter struct {
	baseURL string
	client  *http.Client
}

// NewRemoteOKAdapter creates a RemoteOK adapter. An empty baseURL uses the
// public endpoint.
func NewRemoteOKAdapter(baseURL string, client *http.Client) *RemoteOKAdapter {
	if baseURL == "" {
		baseURL = remoteOKURL
	}
	return &RemoteOKAdapter{baseURL: baseURL, client: client}
}

// Name identifies the source in logs and on fetched postings.
func (a *RemoteOKAdapter) Name() string {
	return "remoteok"
}

// Fetch retrieves the RemoteOK feed and normalizes it. RemoteOK publishes
// annual salary bounds directly; a zero bound means the source omitted it.
func (a *RemoteOKAdapter) Fetch(ctx context.Context) ([]model.Posting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}
	// RemoteOK rejects requests without a UA.
	req.Header.Set("User-Agent", "jobdigest/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remoteok fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var raw []remoteOKJob
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	postings := make([]model.Posting, 0, len(raw))
	for _, rj := range raw {
		if rj.Position == "" || rj.Company == "" {
			continue
		}

		p := model.Posting{
			SourceID:    rj.ID.String(),
			Source:      "remoteok",
			Title:       rj.Position,
			Company:     rj.Company,
			Location:    rj.Location,
			Description: htmlToText(rj.Description),
			URL:         rj.URL,
		}
		if p.Location == "" {
			p.Location = "Remote"
		}

		if rj.Date != "" {
			t, err := time.Parse(time.RFC3339, rj.Date)
			if err == nil {
				p.PostedAt = &t
			}
		}

		if rj.SalaryMin > 0 {
			min := rj.SalaryMin
			p.SalaryMin = &min
		}
		if rj.SalaryMax > 0 {
			max := rj.SalaryMax
			p.SalaryMax = &max
		}

		postings = append(postings, p)
	}

	return postings, nil
}
