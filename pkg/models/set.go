package models

import (
	"context"
	"fmt"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

// Adapter exposes one fake/real classifier through the uniform result shape.
type Adapter interface {
	Name() string
	Predict(ctx context.Context, text string) (domain.ModelResult, error)
}

// Classifier labels text as hate speech, offensive language or neither.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.ToxicityResult, error)
}

var (
	_ Adapter    = (*TransformerAdapter)(nil)
	_ Adapter    = (*SequenceAdapter)(nil)
	_ Classifier = (*ToxicityClassifier)(nil)
)

// Set is the model context built once at start-up and shared read-only by all requests.
type Set struct {
	adapters []Adapter
	toxicity Classifier
}

// NewSet assembles a set from ready adapters; order is the ensemble priority.
func NewSet(toxicity Classifier, adapters ...Adapter) *Set {
	out := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		if a != nil {
			out = append(out, a)
		}
	}
	return &Set{adapters: out, toxicity: toxicity}
}

// Adapters returns the adapters in priority order.
func (s *Set) Adapters() []Adapter {
	if s == nil {
		return nil
	}
	out := make([]Adapter, len(s.adapters))
	copy(out, s.adapters)
	return out
}

// Toxicity returns the hate-speech classifier, or nil when none is configured.
func (s *Set) Toxicity() Classifier {
	if s == nil {
		return nil
	}
	return s.toxicity
}

// Load reads the models file and builds every enabled adapter. Tokenizers shared by several
// entries are parsed once.
func Load(path string, client httpclient.Poster) (*Set, error) {
	if client == nil {
		return nil, fmt.Errorf("models: http client is nil")
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return Build(reg, client)
}

// Build instantiates adapters for an already parsed registry.
func Build(reg Registry, client httpclient.Poster) (*Set, error) {
	tokenizers := make(map[string]*Tokenizer)
	tokenizerFor := func(path string) (*Tokenizer, error) {
		if tok, ok := tokenizers[path]; ok {
			return tok, nil
		}
		tok, err := LoadTokenizer(path)
		if err != nil {
			return nil, err
		}
		tokenizers[path] = tok
		return tok, nil
	}

	adapters := make([]Adapter, 0, len(reg.Models))
	for _, def := range reg.Models {
		if !def.IsEnabled() {
			continue
		}
		switch def.Kind {
		case KindTransformer:
			adapters = append(adapters, NewTransformerAdapter(def, client))
		case KindSequence:
			tok, err := tokenizerFor(def.Tokenizer)
			if err != nil {
				return nil, fmt.Errorf("model %q: %w", def.Name, err)
			}
			adapters = append(adapters, NewSequenceAdapter(def, tok, client))
		default:
			return nil, fmt.Errorf("model %q: unsupported kind %q", def.Name, def.Kind)
		}
	}

	var toxicity Classifier
	if reg.Toxicity != nil && reg.Toxicity.IsEnabled() {
		tok, err := tokenizerFor(reg.Toxicity.Tokenizer)
		if err != nil {
			return nil, fmt.Errorf("toxicity model %q: %w", reg.Toxicity.Name, err)
		}
		toxicity = NewToxicityClassifier(*reg.Toxicity, tok, client)
	}

	return NewSet(toxicity, adapters...), nil
}
