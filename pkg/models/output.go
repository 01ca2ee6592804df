package models

import (
	"fmt"
	"math"

	"github.com/Skshirin/factify/internal/domain"
)

// OutputKind tags how a raw score vector must be read.
type OutputKind int

const (
	// OutputSigmoid is a single probability of the "real" class.
	OutputSigmoid OutputKind = iota + 1
	// OutputProbabilities is a (fake, real) probability pair.
	OutputProbabilities
	// OutputLogits is a (fake, real) pair of unnormalized scores.
	OutputLogits
)

func (k OutputKind) String() string {
	switch k {
	case OutputSigmoid:
		return "sigmoid"
	case OutputProbabilities:
		return "probabilities"
	case OutputLogits:
		return "logits"
	default:
		return fmt.Sprintf("OutputKind(%d)", int(k))
	}
}

// Output is a raw binary-classifier answer whose shape has been resolved.
type Output struct {
	Kind   OutputKind
	Values []float64
}

// ProbabilityOutput resolves a probability vector: one value is a sigmoid, two a softmax pair.
func ProbabilityOutput(values []float64) (Output, error) {
	switch len(values) {
	case 1:
		return Output{Kind: OutputSigmoid, Values: values}, nil
	case 2:
		return Output{Kind: OutputProbabilities, Values: values}, nil
	default:
		return Output{}, fmt.Errorf("%w: %d probabilities", domain.ErrUnexpectedOutput, len(values))
	}
}

// LogitOutput resolves a logit vector: one value goes through the logistic function.
func LogitOutput(values []float64) (Output, error) {
	switch len(values) {
	case 1:
		return Output{Kind: OutputSigmoid, Values: []float64{logistic(values[0])}}, nil
	case 2:
		return Output{Kind: OutputLogits, Values: values}, nil
	default:
		return Output{}, fmt.Errorf("%w: %d logits", domain.ErrUnexpectedOutput, len(values))
	}
}

// Split returns the normalized (fake, real) probabilities, summing to 1.
func (o Output) Split() (pFake, pReal float64, err error) {
	for _, v := range o.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("%w: non-finite score %v", domain.ErrUnexpectedOutput, v)
		}
	}

	switch o.Kind {
	case OutputSigmoid:
		if len(o.Values) != 1 {
			break
		}
		p := clamp01(o.Values[0])
		return 1 - p, p, nil
	case OutputProbabilities:
		if len(o.Values) != 2 {
			break
		}
		f, r := o.Values[0], o.Values[1]
		if f < 0 || r < 0 || f+r <= 0 {
			return 0, 0, fmt.Errorf("%w: invalid probabilities %v", domain.ErrUnexpectedOutput, o.Values)
		}
		sum := f + r
		return f / sum, r / sum, nil
	case OutputLogits:
		if len(o.Values) != 2 {
			break
		}
		probs := softmax(o.Values)
		return probs[0], probs[1], nil
	}
	return 0, 0, fmt.Errorf("%w: %s with %d values", domain.ErrUnexpectedOutput, o.Kind, len(o.Values))
}

// ResultFromSplit builds a ModelResult from (fake, real) probabilities. Percentages are
// rounded to two decimals and fake is derived from real so the pair sums to 100.
func ResultFromSplit(model string, pFake, pReal float64) domain.ModelResult {
	if sum := pFake + pReal; sum > 0 {
		pReal = pReal / sum
	}
	realPct := round2(clamp01(pReal) * 100)
	fakePct := round2(100 - realPct)
	return domain.ModelResult{
		Model:          model,
		Confidence:     math.Max(fakePct, realPct) / 100,
		FakePercentage: fakePct,
		RealPercentage: realPct,
	}
}

// Resolve converts a raw output into the uniform result shape.
func Resolve(model string, out Output) (domain.ModelResult, error) {
	pFake, pReal, err := out.Split()
	if err != nil {
		return domain.ModelResult{}, &domain.AdapterError{Model: model, Err: err}
	}
	return ResultFromSplit(model, pFake, pReal), nil
}

func softmax(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	maxV := values[0]
	for _, v := range values[1:] {
		if v > maxV {
			maxV = v
		}
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		out[i] = math.Exp(v - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// normalizeScores returns values as a probability distribution: kept (renormalized) when
// they already look like one, passed through softmax otherwise.
func normalizeScores(values []float64) []float64 {
	var sum float64
	probabilities := true
	for _, v := range values {
		if v < 0 || v > 1 {
			probabilities = false
		}
		sum += v
	}
	if probabilities && math.Abs(sum-1) <= 1e-3 && sum > 0 {
		out := make([]float64, len(values))
		for i, v := range values {
			out[i] = v / sum
		}
		return out
	}
	return softmax(values)
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
