package models

import (
	"errors"
	"math"
	"testing"

	"github.com/Skshirin/factify/internal/domain"
)

func TestResolveSigmoid(t *testing.T) {
	out, err := ProbabilityOutput([]float64{0.91})
	if err != nil {
		t.Fatalf("ProbabilityOutput: %v", err)
	}
	res, err := Resolve("distilbert", out)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.RealPercentage != 91 || res.FakePercentage != 9 {
		t.Fatalf("unexpected split: fake=%v real=%v", res.FakePercentage, res.RealPercentage)
	}
	if res.Confidence != 0.91 {
		t.Fatalf("expected confidence 0.91, got %v", res.Confidence)
	}
	if res.Model != "distilbert" {
		t.Fatalf("unexpected model name %q", res.Model)
	}
}

func TestResolveProbabilitiesRenormalized(t *testing.T) {
	res, err := Resolve("lstm", Output{Kind: OutputProbabilities, Values: []float64{0.3, 0.5}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.RealPercentage != 62.5 || res.FakePercentage != 37.5 {
		t.Fatalf("unexpected split: fake=%v real=%v", res.FakePercentage, res.RealPercentage)
	}
	if res.Confidence != 0.625 {
		t.Fatalf("expected confidence 0.625, got %v", res.Confidence)
	}
}

func TestResolveLogits(t *testing.T) {
	res, err := Resolve("roberta", Output{Kind: OutputLogits, Values: []float64{0, 0}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.FakePercentage != 50 || res.RealPercentage != 50 || res.Confidence != 0.5 {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = Resolve("roberta", Output{Kind: OutputLogits, Values: []float64{-2, 3}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.RealPercentage <= res.FakePercentage {
		t.Fatalf("expected real to dominate, got %+v", res)
	}
}

func TestSingleLogitGoesThroughLogistic(t *testing.T) {
	out, err := LogitOutput([]float64{0})
	if err != nil {
		t.Fatalf("LogitOutput: %v", err)
	}
	if out.Kind != OutputSigmoid || out.Values[0] != 0.5 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestUnexpectedShapes(t *testing.T) {
	if _, err := ProbabilityOutput([]float64{0.1, 0.2, 0.7}); !errors.Is(err, domain.ErrUnexpectedOutput) {
		t.Fatalf("expected ErrUnexpectedOutput, got %v", err)
	}
	if _, err := LogitOutput(nil); !errors.Is(err, domain.ErrUnexpectedOutput) {
		t.Fatalf("expected ErrUnexpectedOutput, got %v", err)
	}

	_, err := Resolve("cnn", Output{Kind: OutputProbabilities, Values: []float64{math.NaN(), 0.5}})
	var adapterErr *domain.AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("expected AdapterError, got %v", err)
	}
	if adapterErr.Model != "cnn" {
		t.Fatalf("expected model cnn in error, got %q", adapterErr.Model)
	}
	if !errors.Is(err, domain.ErrUnexpectedOutput) {
		t.Fatalf("expected error to wrap ErrUnexpectedOutput")
	}

	if _, err := Resolve("cnn", Output{Kind: OutputProbabilities, Values: []float64{0, 0}}); err == nil {
		t.Fatalf("expected error for all-zero probabilities")
	}
}

func TestPercentagesAlwaysSumTo100(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		p := float64(i) / 1000
		res := ResultFromSplit("m", 1-p, p)
		if math.Round(res.FakePercentage+res.RealPercentage) != 100 {
			t.Fatalf("p=%v: fake %v + real %v != 100", p, res.FakePercentage, res.RealPercentage)
		}
		want := math.Max(res.FakePercentage, res.RealPercentage) / 100
		if res.Confidence != want {
			t.Fatalf("p=%v: confidence %v, want %v", p, res.Confidence, want)
		}
	}
}

func TestNormalizeScores(t *testing.T) {
	probs := normalizeScores([]float64{0.1, 0.7, 0.2})
	if math.Abs(probs[1]-0.7) > 1e-9 {
		t.Fatalf("expected distribution kept, got %v", probs)
	}

	probs = normalizeScores([]float64{2, 1, 0})
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("expected softmax to sum to 1, got %v", sum)
	}
	if probs[0] <= probs[1] || probs[1] <= probs[2] {
		t.Fatalf("softmax changed ordering: %v", probs)
	}
}
