package evidence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

func TestNewsAPISearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key" {
			t.Errorf("missing api key header")
		}
		q := r.URL.Query()
		if q.Get("q") != "election results" || q.Get("language") != "en" || q.Get("pageSize") != "5" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Results are in","url":"https://a.example/1","source":{"name":"A"}},
			{"title":"No url","url":""}
		]}`))
	}))
	defer srv.Close()

	n := &NewsAPI{APIKey: "key", BaseURL: srv.URL, Client: httpclient.NewRestyClient(2 * time.Second)}
	got, err := n.Search(context.Background(), "election results", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Source != "A" || got[0].URL != "https://a.example/1" {
		t.Fatalf("unexpected articles %+v", got)
	}
}

func TestNewsAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	}))
	defer srv.Close()

	n := &NewsAPI{BaseURL: srv.URL, Client: httpclient.NewRestyClient(2 * time.Second)}
	if _, err := n.Search(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected error for error status")
	}
}

func TestSerpAPISearch(t *testing.T) {
	var nums []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("engine") != "google" || q.Get("api_key") != "serp" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		nums = append(nums, q.Get("num"))
		_, _ = w.Write([]byte(`{"organic_results":[{"link":"https://b.example/x"},{"title":"T","link":"https://c.example","source":"C"}]}`))
	}))
	defer srv.Close()

	s := &SerpAPI{APIKey: "serp", BaseURL: srv.URL, Client: httpclient.NewRestyClient(2 * time.Second)}
	got, err := s.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].Title != "https://b.example/x" || got[0].Source != "Google" {
		t.Fatalf("unexpected fallback fields %+v", got[0])
	}

	if _, err := s.Search(context.Background(), "q", 0); err != nil {
		t.Fatalf("Search default limit: %v", err)
	}
	if len(nums) != 2 || nums[0] != "5" || nums[1] != "8" {
		t.Fatalf("expected num to follow the limit, got %v", nums)
	}
}

type stubSearcher struct {
	name     string
	articles []domain.RelatedArticle
	err      error
	calls    int
}

func (s *stubSearcher) Name() string { return s.name }
func (s *stubSearcher) Search(context.Context, string, int) ([]domain.RelatedArticle, error) {
	s.calls++
	return s.articles, s.err
}

func TestChainFallsBackOnErrorOrEmpty(t *testing.T) {
	serp := &stubSearcher{name: "serp", articles: []domain.RelatedArticle{{URL: "https://x"}}}

	for _, first := range []*stubSearcher{
		{name: "news", err: errors.New("down")},
		{name: "news"},
	} {
		serp.calls = 0
		got, err := NewChain(first, serp).Search(context.Background(), "q", 5)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != 1 || serp.calls != 1 {
			t.Fatalf("expected fallback result, got %v (calls=%d)", got, serp.calls)
		}
	}
}

func TestChainStopsAtFirstHit(t *testing.T) {
	news := &stubSearcher{name: "news", articles: []domain.RelatedArticle{{URL: "https://n"}}}
	serp := &stubSearcher{name: "serp"}

	if _, err := NewChain(news, serp).Search(context.Background(), "q", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if serp.calls != 0 {
		t.Fatalf("fallback should not run after a hit")
	}
}

func TestChainAllFail(t *testing.T) {
	c := NewChain(&stubSearcher{name: "a", err: errors.New("x")}, &stubSearcher{name: "b", err: errors.New("y")})
	if _, err := c.Search(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected joined error")
	}

	c = NewChain(&stubSearcher{name: "a", err: errors.New("x")}, &stubSearcher{name: "b"})
	got, err := c.Search(context.Background(), "q", 5)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result without error, got %v %v", got, err)
	}
}

func TestGoogleNewsSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "flood relief" || q.Get("gl") != "IN" || q.Get("ceid") != "IN:en" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>feed</title>
  <item><title>Relief camps opened - The Hindu</title><link>https://news.example/1</link><source url="https://thehindu.com">The Hindu</source></item>
  <item><title>No link</title><link>  </link></item>
  <item><title>Second story</title><link>https://news.example/2</link></item>
  <item><title>Third story</title><link>https://news.example/3</link></item>
</channel></rss>`))
	}))
	defer srv.Close()

	g := &GoogleNews{BaseURL: srv.URL, Language: "en-IN", Client: httpclient.NewRestyClient(2 * time.Second)}
	got, err := g.Search(context.Background(), "flood relief", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %+v", got)
	}
	if got[0].Title != "Relief camps opened" || got[0].Source != "The Hindu" {
		t.Fatalf("unexpected first article %+v", got[0])
	}
	if got[1].Source != "Google News" || got[1].URL != "https://news.example/2" {
		t.Fatalf("unexpected second article %+v", got[1])
	}
}

func TestGoogleNewsRejectsBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<rss><channel><item>`))
	}))
	defer srv.Close()

	g := &GoogleNews{BaseURL: srv.URL, Client: httpclient.NewRestyClient(2 * time.Second)}
	if _, err := g.Search(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected decode error")
	}
}
