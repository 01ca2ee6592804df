package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Skshirin/factify/internal/domain"
	factchecktools "google.golang.org/api/factchecktools/v1alpha1"
	"google.golang.org/api/option"
)

const (
	googleQueryMaxRunes = 200
	googlePageSize      = 10
)

// GoogleFactCheck searches published fact-checks with the Google Fact Check Tools API and
// turns each review's textual rating into a claim verdict.
type GoogleFactCheck struct {
	svc      *factchecktools.Service
	language string
}

var _ Verifier = (*GoogleFactCheck)(nil)

// NewGoogleFactCheck creates the API client. Extra options (endpoint, http client) are
// appended after the API key.
func NewGoogleFactCheck(ctx context.Context, apiKey, language string, opts ...option.ClientOption) (*GoogleFactCheck, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google fact check api key is empty")
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := factchecktools.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create fact check tools service: %w", err)
	}
	return &GoogleFactCheck{svc: svc, language: language}, nil
}

func (g *GoogleFactCheck) Name() string { return "google" }

func (g *GoogleFactCheck) Check(ctx context.Context, text string) (*domain.FactCheckReport, error) {
	if g == nil || g.svc == nil {
		return nil, errors.New("google fact check client is nil")
	}
	query := truncateRunes(strings.TrimSpace(text), googleQueryMaxRunes)
	if query == "" {
		return nil, errors.New("google fact check: empty query")
	}

	call := g.svc.Claims.Search().Query(query).PageSize(googlePageSize).Context(ctx)
	if g.language != "" {
		call = call.LanguageCode(g.language)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("google fact check search: %w", err)
	}

	report := &domain.FactCheckReport{Provider: g.Name(), Claims: []domain.FactCheckClaim{}}
	for _, c := range resp.Claims {
		if c == nil {
			continue
		}
		for _, review := range c.ClaimReview {
			if review == nil {
				continue
			}
			verdict, confidence := RatingVerdict(review.TextualRating)
			claim := domain.FactCheckClaim{
				Claim:      c.Text,
				Verdict:    verdict,
				Confidence: confidence,
				Evidence:   review.Url,
			}
			if review.Publisher != nil {
				claim.Source = review.Publisher.Name
				if claim.Source == "" {
					claim.Source = review.Publisher.Site
				}
			}
			report.Claims = append(report.Claims, claim)
		}
	}
	return report, nil
}

// ratingTable maps common publisher ratings to a verdict and how firmly it was stated.
// Longer phrases come first so "mostly false" is not read as "false".
var ratingTable = []struct {
	phrase     string
	verdict    string
	confidence float64
}{
	{"pants on fire", "false", 0.95},
	{"not true", "false", 0.9},
	{"untrue", "false", 0.9},
	{"mostly false", "false", 0.75},
	{"mostly true", "true", 0.75},
	{"half true", "unverified", 0.5},
	{"partly false", "false", 0.65},
	{"partly true", "unverified", 0.5},
	{"missing context", "unverified", 0.5},
	{"misleading", "false", 0.65},
	{"incorrect", "false", 0.9},
	{"fabricated", "false", 0.95},
	{"false", "false", 0.9},
	{"fake", "false", 0.9},
	{"hoax", "false", 0.9},
	{"scam", "false", 0.9},
	{"correct", "true", 0.9},
	{"accurate", "true", 0.9},
	{"true", "true", 0.9},
}

// RatingVerdict converts a free-text rating ("Mostly False", "Pants on Fire!") into a verdict.
// Unknown ratings are "unverified" with zero confidence.
func RatingVerdict(rating string) (string, float64) {
	r := strings.ToLower(strings.TrimSpace(rating))
	if r == "" {
		return "unverified", 0
	}
	for _, row := range ratingTable {
		if strings.Contains(r, row.phrase) {
			return row.verdict, row.confidence
		}
	}
	return "unverified", 0
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
