package models

import (
	"context"
	"fmt"
	"math"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

// ToxicityClassifier wraps the three-class hate-speech model.
type ToxicityClassifier struct {
	def        Definition
	client     httpclient.Poster
	vectorizer Vectorizer
	labels     []domain.ToxicityLabel
}

// NewToxicityClassifier builds the classifier; def.Labels gives the class order of the output.
func NewToxicityClassifier(def Definition, tok *Tokenizer, client httpclient.Poster) *ToxicityClassifier {
	labels := make([]domain.ToxicityLabel, 0, len(def.Labels))
	for _, l := range def.Labels {
		labels = append(labels, domain.ToxicityLabel(l))
	}
	if len(labels) == 0 {
		labels = domain.ToxicityLabels
	}
	return &ToxicityClassifier{
		def:    def,
		client: client,
		labels: labels,
		vectorizer: Vectorizer{
			Tokenizer:  tok,
			MaxLen:     def.MaxLen,
			Padding:    Side(def.Padding),
			Truncating: Side(def.Truncating),
			ClipMax:    def.ClipMax,
			Clean:      CleanSocialText,
		},
	}
}

func (c *ToxicityClassifier) Name() string { return c.def.Name }

// Classify returns the most likely class with scores that sum to 1.
func (c *ToxicityClassifier) Classify(ctx context.Context, text string) (domain.ToxicityResult, error) {
	if c == nil || c.client == nil || c.vectorizer.Tokenizer == nil {
		return domain.ToxicityResult{}, fmt.Errorf("toxicity classifier is not initialized")
	}

	values, err := predictInstances(ctx, c.client, c.def, c.vectorizer.Vectorize(text))
	if err != nil {
		return domain.ToxicityResult{}, &domain.AdapterError{Model: c.def.Name, Err: err}
	}
	if len(values) != len(c.labels) {
		return domain.ToxicityResult{}, &domain.AdapterError{
			Model: c.def.Name,
			Err:   fmt.Errorf("%w: %d scores for %d labels", domain.ErrUnexpectedOutput, len(values), len(c.labels)),
		}
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.ToxicityResult{}, &domain.AdapterError{
				Model: c.def.Name,
				Err:   fmt.Errorf("%w: non-finite score %v", domain.ErrUnexpectedOutput, v),
			}
		}
	}
	return toxicityFromScores(c.labels, values), nil
}

func toxicityFromScores(labels []domain.ToxicityLabel, values []float64) domain.ToxicityResult {
	probs := normalizeScores(values)
	res := domain.ToxicityResult{Scores: make(map[domain.ToxicityLabel]float64, len(labels))}
	best := -1
	for i, p := range probs {
		res.Scores[labels[i]] = p
		if best < 0 || p > probs[best] {
			best = i
		}
	}
	res.Label = labels[best]
	res.Confidence = probs[best]
	return res
}
