// Package evidence searches news indexes for articles related to a piece of text.
package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

// Searcher finds related articles for a query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]domain.RelatedArticle, error)
}

const (
	DefaultNewsAPIURL = "https://newsapi.org/v2/everything"
	DefaultSerpAPIURL = "https://serpapi.com/search.json"
)

// NewsAPI queries the newsapi.org "everything" endpoint.
type NewsAPI struct {
	APIKey  string
	BaseURL string
	Client  httpclient.Client
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title  string `json:"title"`
		URL    string `json:"url"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (n *NewsAPI) Name() string { return "newsapi" }

func (n *NewsAPI) Search(ctx context.Context, query string, limit int) ([]domain.RelatedArticle, error) {
	if n == nil || n.Client == nil {
		return nil, errors.New("newsapi: client is nil")
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(limit))

	resp, err := n.Client.Get(ctx, baseOr(n.BaseURL, DefaultNewsAPIURL)+"?"+params.Encode(), map[string]string{
		"X-Api-Key": n.APIKey,
		"Accept":    "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if payload.Status == "error" {
		return nil, fmt.Errorf("newsapi %s: %s", payload.Code, payload.Message)
	}

	out := make([]domain.RelatedArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if strings.TrimSpace(a.URL) == "" {
			continue
		}
		out = append(out, domain.RelatedArticle{Title: a.Title, URL: a.URL, Source: a.Source.Name})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// SerpAPI queries Google results through serpapi.com.
type SerpAPI struct {
	APIKey  string
	BaseURL string
	Client  httpclient.Client
}

type serpAPIResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title  string `json:"title"`
		Link   string `json:"link"`
		Source string `json:"source"`
	} `json:"organic_results"`
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]domain.RelatedArticle, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("serpapi: client is nil")
	}
	if limit <= 0 {
		limit = 8
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", s.APIKey)
	params.Set("num", strconv.Itoa(limit))
	params.Set("hl", "en")

	resp, err := s.Client.Get(ctx, baseOr(s.BaseURL, DefaultSerpAPIURL)+"?"+params.Encode(), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}

	var payload serpAPIResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", payload.Error)
	}

	out := make([]domain.RelatedArticle, 0, len(payload.OrganicResults))
	for _, r := range payload.OrganicResults {
		if strings.TrimSpace(r.Link) == "" {
			continue
		}
		title := r.Title
		if title == "" {
			title = r.Link
		}
		source := r.Source
		if source == "" {
			source = "Google"
		}
		out = append(out, domain.RelatedArticle{Title: title, URL: r.Link, Source: source})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Chain tries searchers in order and returns the first non-empty result set.
type Chain struct {
	searchers []Searcher
}

// NewChain skips nil searchers.
func NewChain(searchers ...Searcher) *Chain {
	c := &Chain{}
	for _, s := range searchers {
		if s != nil {
			c.searchers = append(c.searchers, s)
		}
	}
	return c
}

func (c *Chain) Name() string { return "chain" }

// Len reports how many searchers are configured.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.searchers)
}

// Search returns an error only when every searcher failed; empty results from all of them
// yield an empty slice.
func (c *Chain) Search(ctx context.Context, query string, limit int) ([]domain.RelatedArticle, error) {
	if c == nil || len(c.searchers) == 0 {
		return nil, nil
	}
	var errs []error
	for _, s := range c.searchers {
		articles, err := s.Search(ctx, query, limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if len(articles) > 0 {
			return articles, nil
		}
	}
	if len(errs) == len(c.searchers) {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

func baseOr(base, fallback string) string {
	if b := strings.TrimSpace(base); b != "" {
		return b
	}
	return fallback
}
