package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"webscout/internal/adapter/fetch"
	"webscout/internal/domain"
)

type instantResponse struct {
	Heading       string         `json:"Heading"`
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

// relatedTopic is either a topic or a named group of topics.
type relatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Name     string         `json:"Name"`
	Topics   []relatedTopic `json:"Topics"`
}

// Instant queries a structured instant-answer API.
type Instant struct {
	fetcher  Fetcher
	endpoint string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewInstant creates the instant-answer source.
func NewInstant(fetcher Fetcher, endpoint string, timeout time.Duration, logger *slog.Logger) *Instant {
	return &Instant{fetcher: fetcher, endpoint: endpoint, timeout: timeout, logger: logger}
}

func (i *Instant) Name() string { return NameInstantAnswer }

func (i *Instant) Lookup(ctx context.Context, query string, max int) ([]domain.Candidate, error) {
	resp, err := i.fetcher.Get(ctx, fetch.Request{
		URL: i.endpoint,
		Query: url.Values{
			"q":             {query},
			"format":        {"json"},
			"no_html":       {"1"},
			"skip_disambig": {"1"},
		},
		Identity: fetch.IdentityBot,
		Timeout:  i.timeout,
	})
	if err != nil {
		return nil, err
	}

	var data instantResponse
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, domain.NewDomainError("backend.Instant", domain.ErrUnparseable, err.Error())
	}

	if strings.TrimSpace(data.AbstractText) != "" {
		title := data.Heading
		if title == "" {
			title = query
		}
		return []domain.Candidate{{
			Title:   title,
			URL:     data.AbstractURL,
			Snippet: data.AbstractText,
		}}, nil
	}

	var cands []domain.Candidate
	for _, t := range flattenTopics(data.RelatedTopics) {
		if len(cands) >= max {
			break
		}
		cands = append(cands, domain.Candidate{
			Title:   topicTitle(t.Text),
			URL:     t.FirstURL,
			Snippet: t.Text,
		})
	}
	i.logger.Debug("instant answer", "abstract", false, "topics", len(cands))
	return cands, nil
}

// flattenTopics expands topic groups in place, dropping entries without text.
func flattenTopics(topics []relatedTopic) []relatedTopic {
	var out []relatedTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		if strings.TrimSpace(t.Text) != "" {
			out = append(out, t)
		}
	}
	return out
}

// topicTitle is the part of a topic's text before its " - " description.
func topicTitle(text string) string {
	if head, _, ok := strings.Cut(text, " - "); ok && strings.TrimSpace(head) != "" {
		return strings.TrimSpace(head)
	}
	return text
}
