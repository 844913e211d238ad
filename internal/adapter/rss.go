package adapter

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

// rssFeed is the top-level RSS 2.0 document.
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
	Region      string `xml:"region"` // WeWorkRemotely extension, often absent
}

// pubDate layouts seen in the wild, tried in order.
var rssDateLayouts = []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822}

// RSSAdapter fetches postings from a job-board RSS 2.0 feed such as
// WeWorkRemotely. Feeds that follow the "Company: Job Title" item-title
// convention get the company split out; otherwise the feed name stands in.
type RSSAdapter struct {
	name    string
	feedURL string
	client  *http.Client
}

// NewRSSAdapter creates an adapter for one RSS feed.
func NewRSSAdapter(name, feedURL string, client *http.Client) *RSSAdapter {
	return &RSSAdapter{name: name, feedURL: feedURL, client: client}
}

// Name identifies the source in logs and on fetched postings.
func (a *RSSAdapter) Name() string {
	return a.name
}

// Fetch retrieves and decodes the feed. Items without a title or link are
// skipped; an empty or non-RSS document fails the adapter.
func (a *RSSAdapter) Fetch(ctx context.Context) ([]model.Posting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rss fetch for %s: %w", a.name, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss fetch for %s: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("rss fetch for %s: unexpected status %d", a.name, resp.StatusCode),
		}
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("rss fetch for %s: %w", a.name, err)
	}

	postings := make([]model.Posting, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		company, title := splitFeedTitle(item.Title)
		if company == "" {
			company = feed.Channel.Title
		}

		p := model.Posting{
			SourceID:    item.GUID,
			Source:      a.name,
			Title:       title,
			Company:     company,
			Location:    item.Region,
			Description: htmlToText(item.Description),
			URL:         item.Link,
		}
		if p.SourceID == "" {
			p.SourceID = item.Link
		}

		if t, ok := parseRSSDate(item.PubDate); ok {
			p.PostedAt = &t
		}

		postings = append(postings, p)
	}

	return postings, nil
}

// splitFeedTitle splits a "Company: Job Title" item title. Returns an empty
// company when the convention does not apply.
func splitFeedTitle(s string) (company, title string) {
	if idx := strings.Index(s, ": "); idx > 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+2:])
	}
	return "", strings.TrimSpace(s)
}

func parseRSSDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range rssDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
