package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

// SequenceAdapter wraps a word-index model (CNN, LSTM, BiLSTM) served TF-Serving style.
type SequenceAdapter struct {
	def        Definition
	client     httpclient.Poster
	vectorizer Vectorizer
}

// NewSequenceAdapter builds an adapter for def using an already loaded tokenizer.
func NewSequenceAdapter(def Definition, tok *Tokenizer, client httpclient.Poster) *SequenceAdapter {
	return &SequenceAdapter{
		def:    def,
		client: client,
		vectorizer: Vectorizer{
			Tokenizer:  tok,
			MaxLen:     def.MaxLen,
			Padding:    Side(def.Padding),
			Truncating: Side(def.Truncating),
			ClipMax:    def.ClipMax,
		},
	}
}

func (a *SequenceAdapter) Name() string { return a.def.Name }

func (a *SequenceAdapter) Predict(ctx context.Context, text string) (domain.ModelResult, error) {
	if a == nil || a.client == nil || a.vectorizer.Tokenizer == nil {
		return domain.ModelResult{}, fmt.Errorf("sequence adapter is not initialized")
	}

	values, err := predictInstances(ctx, a.client, a.def, a.vectorizer.Vectorize(text))
	if err != nil {
		return domain.ModelResult{}, &domain.AdapterError{Model: a.def.Name, Err: err}
	}

	var out Output
	if a.def.Output == OutputFormatLogits {
		out, err = LogitOutput(values)
	} else {
		out, err = ProbabilityOutput(values)
	}
	if err != nil {
		return domain.ModelResult{}, &domain.AdapterError{Model: a.def.Name, Err: err}
	}
	return Resolve(a.def.Name, out)
}

type servingRequest struct {
	Instances [][]int `json:"instances"`
}

type servingResponse struct {
	Predictions json.RawMessage `json:"predictions"`
}

// predictInstances posts one vectorized instance and returns its score vector.
func predictInstances(ctx context.Context, client httpclient.Poster, def Definition, ids []int) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, def.Timeout())
	defer cancel()

	resp, err := client.PostJSON(ctx, def.Endpoint, def.Headers, servingRequest{Instances: [][]int{ids}})
	if err != nil {
		return nil, err
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, err
	}

	var payload servingResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if len(payload.Predictions) == 0 {
		return nil, fmt.Errorf("%w: response without predictions", domain.ErrUnexpectedOutput)
	}
	return decodeScores(payload.Predictions)
}
