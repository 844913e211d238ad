package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jroeper/jobdigest/internal/model"
)

func TestGreenhouseFetch_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Software Engineer",
				"location": {"name": "San Francisco, CA"},
				"content": "&lt;p&gt;Build &lt;b&gt;distributed&lt;/b&gt; systems.&lt;/p&gt;",
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
				"updated_at": "2026-02-13T10:00:00Z",
				"pay_input_ranges": [
					{"min_cents": 17000000, "max_cents": 21000000, "currency_type": "USD"}
				]
			},
			{
				"id": 67890,
				"title": "Backend Engineer",
				"location": {"name": "Remote, US"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
				"updated_at": "2026-02-13T11:30:00Z"
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newTestGreenhouseAdapter(srv, "acme", "Acme Corp")

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.SourceID != "12345" {
		t.Errorf("expected SourceID 12345, got %s", p.SourceID)
	}
	if p.Company != "Acme Corp" {
		t.Errorf("expected company Acme Corp, got %s", p.Company)
	}
	if p.Title != "Software Engineer" {
		t.Errorf("expected title Software Engineer, got %s", p.Title)
	}
	if p.Location != "San Francisco, CA" {
		t.Errorf("expected location San Francisco, CA, got %s", p.Location)
	}
	if p.Source != "greenhouse" {
		t.Errorf("expected source greenhouse, got %s", p.Source)
	}
	if p.Description != "Build distributed systems." {
		t.Errorf("unexpected description: %q", p.Description)
	}
	if p.SalaryMin == nil || *p.SalaryMin != 170000 {
		t.Errorf("unexpected SalaryMin: %v", p.SalaryMin)
	}
	if p.SalaryMax == nil || *p.SalaryMax != 210000 {
		t.Errorf("unexpected SalaryMax: %v", p.SalaryMax)
	}
	if p.PostedAt == nil {
		t.Fatal("expected PostedAt to be set")
	}
	if p.PostedAt.Year() != 2026 || p.PostedAt.Month() != 2 || p.PostedAt.Day() != 13 {
		t.Errorf("unexpected PostedAt: %v", p.PostedAt)
	}

	if postings[1].HasSalary() {
		t.Error("posting without pay ranges should have nil salary bounds")
	}
}

func TestGreenhouseFetch_SkipsUntitledEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": [{"id": 1, "title": ""}, {"id": 2, "title": "Engineer"}]}`))
	}))
	defer srv.Close()

	adapter := newTestGreenhouseAdapter(srv, "acme", "Acme")

	postings, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
}

func TestGreenhouseFetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	adapter := newTestGreenhouseAdapter(srv, "bad-co", "Bad Co")

	_, err := adapter.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestGreenhouseFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := newTestGreenhouseAdapter(srv, "busy-co", "Busy Co")

	_, err := adapter.Fetch(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 120 {
		t.Errorf("expected RetryAfter 120s, got %v", httpErr.RetryAfter)
	}
}

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newTestClient returns a client that rewrites every request to hit srv.
func newTestClient(srv *httptest.Server) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}

func newTestGreenhouseAdapter(srv *httptest.Server, token, company string) *GreenhouseAdapter {
	return NewGreenhouseAdapter(token, company, newTestClient(srv))
}
