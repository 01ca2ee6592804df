package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

// TransformerAdapter wraps a fine-tuned transformer served behind an HTTP inference endpoint.
// The raw text is posted as {"inputs": text}.
type TransformerAdapter struct {
	def       Definition
	client    httpclient.Poster
	fakeNames []string
	realNames []string
}

// NewTransformerAdapter builds an adapter for def. Labels, when configured, name the
// (fake, real) classes as the endpoint reports them.
func NewTransformerAdapter(def Definition, client httpclient.Poster) *TransformerAdapter {
	a := &TransformerAdapter{
		def:       def,
		client:    client,
		fakeNames: []string{"label_0", "fake", "false"},
		realNames: []string{"label_1", "real", "true"},
	}
	if len(def.Labels) == 2 {
		a.fakeNames = append(a.fakeNames, strings.ToLower(def.Labels[0]))
		a.realNames = append(a.realNames, strings.ToLower(def.Labels[1]))
	}
	return a
}

func (a *TransformerAdapter) Name() string { return a.def.Name }

func (a *TransformerAdapter) Predict(ctx context.Context, text string) (domain.ModelResult, error) {
	if a == nil || a.client == nil {
		return domain.ModelResult{}, fmt.Errorf("transformer adapter is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, a.def.Timeout())
	defer cancel()

	resp, err := a.client.PostJSON(ctx, a.def.Endpoint, a.def.Headers, map[string]string{"inputs": text})
	if err != nil {
		return domain.ModelResult{}, &domain.AdapterError{Model: a.def.Name, Err: err}
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return domain.ModelResult{}, &domain.AdapterError{Model: a.def.Name, Err: err}
	}

	out, err := a.decode(resp.Body())
	if err != nil {
		return domain.ModelResult{}, &domain.AdapterError{Model: a.def.Name, Err: err}
	}
	return Resolve(a.def.Name, out)
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (a *TransformerAdapter) decode(body []byte) (Output, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return Output{}, fmt.Errorf("%w: empty body", domain.ErrUnexpectedOutput)
	}

	if trimmed[0] == '{' {
		var payload struct {
			Logits json.RawMessage `json:"logits"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return Output{}, fmt.Errorf("decode transformer response: %w", err)
		}
		if len(payload.Logits) == 0 {
			return Output{}, fmt.Errorf("%w: object without logits", domain.ErrUnexpectedOutput)
		}
		values, err := decodeScores(payload.Logits)
		if err != nil {
			return Output{}, err
		}
		return LogitOutput(values)
	}

	if scores, ok := decodeLabelScores(body); ok {
		return a.fromLabels(scores)
	}

	values, err := decodeScores(body)
	if err != nil {
		return Output{}, err
	}
	if a.def.Output == OutputFormatLogits {
		return LogitOutput(values)
	}
	return ProbabilityOutput(values)
}

// fromLabels maps HF text-classification output onto (fake, real). When only one label is
// returned its score is read as that class' probability.
func (a *TransformerAdapter) fromLabels(scores []labelScore) (Output, error) {
	var fakeScore, realScore float64
	var haveFake, haveReal bool
	for _, s := range scores {
		label := strings.ToLower(strings.TrimSpace(s.Label))
		switch {
		case contains(a.fakeNames, label):
			fakeScore, haveFake = s.Score, true
		case contains(a.realNames, label):
			realScore, haveReal = s.Score, true
		}
	}
	switch {
	case haveFake && haveReal:
		return ProbabilityOutput([]float64{fakeScore, realScore})
	case haveReal:
		return ProbabilityOutput([]float64{realScore})
	case haveFake:
		return ProbabilityOutput([]float64{1 - fakeScore})
	default:
		return Output{}, fmt.Errorf("%w: unknown labels %v", domain.ErrUnexpectedOutput, scores)
	}
}

func decodeLabelScores(body []byte) ([]labelScore, bool) {
	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 && flat[0].Label != "" {
		return flat, true
	}
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 && nested[0][0].Label != "" {
		return nested[0], true
	}
	return nil, false
}

// decodeScores accepts a flat vector or a batch of one vector.
func decodeScores(raw []byte) ([]float64, error) {
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnexpectedOutput, httpclient.Snippet(raw))
	}
	if len(nested) != 1 {
		return nil, fmt.Errorf("%w: batch of %d outputs", domain.ErrUnexpectedOutput, len(nested))
	}
	return nested[0], nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
