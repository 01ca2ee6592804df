// Package claims talks to claim-verification services and returns their raw reports.
package claims

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

// Verifier checks the claims contained in a text.
type Verifier interface {
	Name() string
	Check(ctx context.Context, text string) (*domain.FactCheckReport, error)
}

// HTTPPipeline posts the text to a claim-verification service that answers with claims and/or
// a summary decision:
//
//	{"summary_decision": "Real", "summary_confidence": 82,
//	 "claims": [{"claim": "...", "verdict": "true", "confidence": 0.8, "evidence": "...", "source": "..."}]}
type HTTPPipeline struct {
	URL     string
	Headers map[string]string
	Client  httpclient.Poster
}

var _ Verifier = (*HTTPPipeline)(nil)

type pipelineResponse struct {
	domain.FactCheckReport
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (p *HTTPPipeline) Name() string { return "http" }

func (p *HTTPPipeline) Check(ctx context.Context, text string) (*domain.FactCheckReport, error) {
	if p == nil || p.Client == nil {
		return nil, errors.New("fact-check pipeline client is nil")
	}
	if strings.TrimSpace(p.URL) == "" {
		return nil, errors.New("fact-check pipeline url is empty")
	}

	resp, err := p.Client.PostJSON(ctx, p.URL, p.Headers, map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("fact-check request: %w", err)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("fact-check: %w", err)
	}

	var payload pipelineResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode fact-check response: %w", err)
	}
	if payload.Error != "" {
		if payload.Details != "" {
			return nil, fmt.Errorf("fact-check: %s: %s", payload.Error, payload.Details)
		}
		return nil, fmt.Errorf("fact-check: %s", payload.Error)
	}

	report := payload.FactCheckReport
	report.Provider = p.Name()
	if report.Claims == nil {
		report.Claims = []domain.FactCheckClaim{}
	}
	return &report, nil
}
