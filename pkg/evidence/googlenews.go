package evidence

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

const DefaultGoogleNewsURL = "https://news.google.com/rss/search"

// GoogleNews reads the public Google News RSS search feed. It needs no API key.
type GoogleNews struct {
	BaseURL string
	// Language and Country select the edition, e.g. "en-IN" and "IN". Defaults are "en" and "IN".
	Language string
	Country  string
	Client   httpclient.Client
}

type googleNewsFeed struct {
	Items []googleNewsItem `xml:"channel>item"`
}

type googleNewsItem struct {
	Title  string `xml:"title"`
	Link   string `xml:"link"`
	Source string `xml:"source"`
}

func (g *GoogleNews) Name() string { return "google_news" }

func (g *GoogleNews) Search(ctx context.Context, query string, limit int) ([]domain.RelatedArticle, error) {
	if g == nil || g.Client == nil {
		return nil, errors.New("google_news: client is nil")
	}
	if limit <= 0 {
		limit = 5
	}
	lang := baseOr(g.Language, "en")
	country := baseOr(g.Country, "IN")

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", lang)
	params.Set("gl", country)
	params.Set("ceid", country+":"+strings.SplitN(lang, "-", 2)[0])

	resp, err := g.Client.Get(ctx, baseOr(g.BaseURL, DefaultGoogleNewsURL)+"?"+params.Encode(), map[string]string{
		"Accept": "application/rss+xml, application/xml",
	})
	if err != nil {
		return nil, fmt.Errorf("google_news request: %w", err)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("google_news: %w", err)
	}

	items, err := parseGoogleNewsFeed(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("decode google_news feed: %w", err)
	}
	return buildArticlesFromFeed(items, limit), nil
}

func parseGoogleNewsFeed(data []byte) ([]googleNewsItem, error) {
	var feed googleNewsFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	return feed.Items, nil
}

// buildArticlesFromFeed drops items without a link. Titles carry a " - Publisher" suffix
// which is stripped when it matches the source element.
func buildArticlesFromFeed(items []googleNewsItem, limit int) []domain.RelatedArticle {
	out := make([]domain.RelatedArticle, 0, len(items))
	for _, it := range items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		source := strings.TrimSpace(it.Source)
		title := strings.TrimSpace(it.Title)
		if source != "" {
			title = strings.TrimSpace(strings.TrimSuffix(title, " - "+source))
		} else {
			source = "Google News"
		}
		if title == "" {
			title = link
		}
		out = append(out, domain.RelatedArticle{Title: title, URL: link, Source: source})
		if len(out) == limit {
			break
		}
	}
	return out
}
