package publishers

import (
	"context"
	"slices"
)

// Publisher delivers verdict events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// VerdictFilter narrows the events a sink receives. The zero value accepts everything.
type VerdictFilter struct {
	// Labels lists accepted verdict labels (fake, real, undecided); empty means all.
	Labels []string `json:"labels" yaml:"labels"`
	// MinConfidence is compared with the verdict confidence (0-1).
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// Accepts reports whether evt passes the filter.
func (f VerdictFilter) Accepts(evt Event) bool {
	if len(f.Labels) > 0 && !slices.Contains(f.Labels, evt.Label) {
		return false
	}
	return evt.Verdict.Confidence >= f.MinConfidence
}

// Route pairs a sink with the verdicts it wants.
type Route struct {
	Publisher Publisher
	Filter    VerdictFilter
}
