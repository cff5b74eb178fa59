// Package newsdata downloads news articles from a NewsAPI-compatible
// search endpoint.
package newsdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

const defaultPageSize = 100

// ClientConfig configures the news search client.
type ClientConfig struct {
	BaseURL  string
	APIKey   string
	Language string
	PageSize int
}

// Client fetches paginated news search results.
type Client struct {
	http   *resty.Client
	config ClientConfig
	log    *logger.Logger
}

// article is the wire shape of one search result.
type article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"publishedAt"`
	Sentiment   *float64 `json:"sentiment,omitempty"`
}

// searchResponse is the wire shape of one result page.
type searchResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

// NewClient creates a news search client.
func NewClient(config ClientConfig, log *logger.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "news client requires a base URL")
	}

	if config.PageSize <= 0 {
		config.PageSize = defaultPageSize
	}

	if config.Language == "" {
		config.Language = "en"
	}

	http := resty.New().
		SetBaseURL(config.BaseURL).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &Client{
		http:   http,
		config: config,
		log:    log,
	}, nil
}

// Search fetches all pages of results for the query inside the date range.
// A failing page after the first is skipped and logged; the batch fails
// only when no page could be fetched at all. Duplicate articles across
// pages are collapsed by URL, keeping the first occurrence.
func (c *Client) Search(ctx context.Context, query string, from, to time.Time) ([]types.NewsDocument, error) {
	first, err := c.fetchPage(ctx, query, from, to, 1)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeNewsFetchFailed, err,
			"failed to fetch first result page for %q", query)
	}

	seen := make(map[string]bool)
	docs := appendArticles(nil, first.Articles, seen)

	totalPages := (first.TotalResults + c.config.PageSize - 1) / c.config.PageSize

	for page := 2; page <= totalPages; page++ {
		resp, err := c.fetchPage(ctx, query, from, to, page)
		if err != nil {
			c.log.Warn("skipping failed news page",
				zap.Int("page", page),
				zap.String("query", query),
				zap.Error(err),
			)

			continue
		}

		docs = appendArticles(docs, resp.Articles, seen)
	}

	if len(docs) == 0 {
		return nil, errors.Newf(errors.ErrCodeNewsFetchFailed, "no usable article for %q", query)
	}

	c.log.Info("news search complete",
		zap.String("query", query),
		zap.Int("documents", len(docs)),
		zap.Int("pages", totalPages),
	)

	return docs, nil
}

func (c *Client) fetchPage(ctx context.Context, query string, from, to time.Time, page int) (*searchResponse, error) {
	var result searchResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        query,
			"language": c.config.Language,
			"from":     from.UTC().Format("2006-01-02"),
			"to":       to.UTC().Format("2006-01-02"),
			"pageSize": fmt.Sprintf("%d", c.config.PageSize),
			"page":     fmt.Sprintf("%d", page),
			"apiKey":   c.config.APIKey,
		}).
		SetResult(&result).
		Get("/everything")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status(), resp.String())
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("search returned status %q", result.Status)
	}

	return &result, nil
}

// appendArticles converts wire articles into documents, dropping duplicates
// and entries with neither title nor description.
func appendArticles(docs []types.NewsDocument, articles []article, seen map[string]bool) []types.NewsDocument {
	for _, a := range articles {
		if a.Title == "" && a.Description == "" {
			continue
		}

		id := a.URL
		if id == "" {
			id = uuid.New().String()
		}

		if seen[id] {
			continue
		}

		seen[id] = true

		doc := types.NewsDocument{
			ID:          id,
			Title:       a.Title,
			Description: a.Description,
		}

		if published, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			doc.PublishedAt = published.UTC()
		}

		if a.Sentiment != nil {
			doc.Sentiment = optional.Some(*a.Sentiment)
		}

		docs = append(docs, doc)
	}

	return docs
}
