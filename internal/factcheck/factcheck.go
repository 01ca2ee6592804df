// Package factcheck turns claim-verification reports into a final decision and applies that
// decision on top of the model ensemble.
package factcheck

import (
	"math"
	"strings"

	"github.com/Skshirin/factify/internal/domain"
)

// Thresholds decide when averaged claim confidences are decisive.
type Thresholds struct {
	// Real is the minimum average confidence of the winning side.
	Real float64
	// Margin is the minimum lead of the winning side over the other.
	Margin float64
}

// DefaultThresholds returns the 0.60 / 0.15 pair.
func DefaultThresholds() Thresholds {
	return Thresholds{Real: 0.60, Margin: 0.15}
}

var (
	realVerdicts = map[string]struct{}{"real": {}, "true": {}, "likely_real": {}, "likely real": {}}
	fakeVerdicts = map[string]struct{}{"fake": {}, "false": {}, "likely_fake": {}, "likely fake": {}}
)

// Aggregator computes FactCheckVerdicts.
type Aggregator struct {
	th Thresholds
}

// New returns an aggregator; zero thresholds fall back to the defaults.
func New(th Thresholds) *Aggregator {
	def := DefaultThresholds()
	if th.Real <= 0 {
		th.Real = def.Real
	}
	if th.Margin < 0 {
		th.Margin = def.Margin
	}
	return &Aggregator{th: th}
}

// Aggregate returns the decision carried by report, or nil when there is nothing to decide on.
// A summary decision wins over per-claim verdicts.
func (a *Aggregator) Aggregate(report *domain.FactCheckReport) *domain.FactCheckVerdict {
	if report == nil {
		return nil
	}
	if a == nil {
		a = New(DefaultThresholds())
	}

	if summary := strings.TrimSpace(report.SummaryDecision); summary != "" {
		return &domain.FactCheckVerdict{
			Label:      normalizeLabel(summary),
			Confidence: round2(math.Min(100, math.Max(0, report.SummaryConfidence))),
		}
	}

	if len(report.Claims) == 0 {
		return nil
	}

	var realScore, fakeScore float64
	for _, c := range report.Claims {
		conf := clampUnit(c.Confidence)
		switch verdictSide(c.Verdict) {
		case domain.FactCheckReal:
			realScore += conf
		case domain.FactCheckFake:
			fakeScore += conf
		}
	}
	total := float64(len(report.Claims))
	avgReal := realScore / total
	avgFake := fakeScore / total

	switch {
	case avgReal >= a.th.Real && avgReal-avgFake >= a.th.Margin:
		return &domain.FactCheckVerdict{Label: domain.FactCheckReal, Confidence: round2(avgReal * 100)}
	case avgFake >= a.th.Real && avgFake-avgReal >= a.th.Margin:
		return &domain.FactCheckVerdict{Label: domain.FactCheckFake, Confidence: round2(avgFake * 100)}
	default:
		return &domain.FactCheckVerdict{Label: domain.FactCheckUnverified, Confidence: round2(math.Max(avgReal, avgFake) * 100)}
	}
}

// Merge fills the verdict fields of resp from the ensemble, letting a decisive fact-check
// replace the probability split. The chosen model and the per-model results are kept.
func Merge(resp *domain.FinalResponse, ens domain.EnsembleResult, verdict *domain.FactCheckVerdict) {
	if resp == nil {
		return
	}
	resp.ModelUsed = ens.BestModel
	resp.AllModelResults = ens.AllModelResults
	resp.Confidence = ens.Confidence
	resp.FakePercentage = ens.FakePercentage
	resp.RealPercentage = ens.RealPercentage
	resp.Source = domain.SourceEnsemble
	resp.FinalDecision = verdict
	resp.FactCheckUsed = verdict != nil

	if verdict == nil || !verdict.Label.Decisive() {
		return
	}

	conf := math.Min(100, math.Max(0, verdict.Confidence))
	if verdict.Label == domain.FactCheckReal {
		resp.RealPercentage = round2(conf)
		resp.FakePercentage = round2(100 - conf)
	} else {
		resp.FakePercentage = round2(conf)
		resp.RealPercentage = round2(100 - conf)
	}
	resp.Confidence = conf / 100
	resp.Source = domain.SourceFactCheck
}

func verdictSide(verdict string) domain.FactCheckLabel {
	v := strings.ToLower(strings.TrimSpace(verdict))
	if _, ok := realVerdicts[v]; ok {
		return domain.FactCheckReal
	}
	if _, ok := fakeVerdicts[v]; ok {
		return domain.FactCheckFake
	}
	return domain.FactCheckUnverified
}

func normalizeLabel(label string) domain.FactCheckLabel {
	return verdictSide(label)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
