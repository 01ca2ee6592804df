package domain

import (
	"bytes"
	"encoding/json"
)

// ModelResult is the uniform output of one classifier.
type ModelResult struct {
	Model          string  `json:"-"`
	Confidence     float64 `json:"confidence"`
	FakePercentage float64 `json:"fake_percentage"`
	RealPercentage float64 `json:"real_percentage"`
}

// ModelResults keeps per-model results in priority order. It encodes as a JSON
// object keyed by model name, preserving that order.
type ModelResults []ModelResult

// Names lists the models in order.
func (m ModelResults) Names() []string {
	out := make([]string, 0, len(m))
	for _, r := range m {
		out = append(out, r.Model)
	}
	return out
}

func (m ModelResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Model)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EnsembleResult is the max-voting outcome over all adapters that answered.
type EnsembleResult struct {
	BestModel       string       `json:"model_used"`
	Confidence      float64      `json:"confidence"`
	FakePercentage  float64      `json:"fake_percentage"`
	RealPercentage  float64      `json:"real_percentage"`
	AllModelResults ModelResults `json:"all_model_results"`
	Failures        []error      `json:"-"`
}

// ToxicityLabel is one of the three hate-speech classes.
type ToxicityLabel string

const (
	ToxicityHate      ToxicityLabel = "Hate Speech"
	ToxicityOffensive ToxicityLabel = "Offensive Language"
	ToxicityNeither   ToxicityLabel = "Neither"
)

// ToxicityLabels is the class order used by the toxicity model output.
var ToxicityLabels = []ToxicityLabel{ToxicityHate, ToxicityOffensive, ToxicityNeither}

// ToxicityResult is the hate-speech classifier output. Scores sum to 1.
type ToxicityResult struct {
	Label      ToxicityLabel             `json:"label"`
	Confidence float64                   `json:"confidence"`
	Scores     map[ToxicityLabel]float64 `json:"scores"`
}

// FactCheckLabel is the decision derived from claim verification.
type FactCheckLabel string

const (
	FactCheckReal       FactCheckLabel = "Real"
	FactCheckFake       FactCheckLabel = "Fake"
	FactCheckUnverified FactCheckLabel = "Unverified"
)

// Decisive reports whether the label may override model output.
func (l FactCheckLabel) Decisive() bool {
	return l == FactCheckReal || l == FactCheckFake
}

// FactCheckClaim is one verified statement returned by a claim-verification service.
type FactCheckClaim struct {
	Claim      string  `json:"claim,omitempty"`
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// FactCheckReport is the raw output of a claim-verification service: either a
// precomputed summary decision, per-claim verdicts, or both.
type FactCheckReport struct {
	Provider          string           `json:"provider,omitempty"`
	SummaryDecision   string           `json:"summary_decision,omitempty"`
	SummaryConfidence float64          `json:"summary_confidence,omitempty"`
	Claims            []FactCheckClaim `json:"claims"`
}

// FactCheckVerdict is the aggregated decision. Confidence is on a 0-100 scale.
type FactCheckVerdict struct {
	Label      FactCheckLabel `json:"label"`
	Confidence float64        `json:"confidence"`
}

// RelatedArticle is a piece of evidence found by searching for the text.
type RelatedArticle struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// ResultSource records whether percentages come from the models or the fact-check.
type ResultSource string

const (
	SourceEnsemble  ResultSource = "ensemble"
	SourceFactCheck ResultSource = "fact_check_pipeline"
)

// FinalResponse is everything returned for one analyzed input.
type FinalResponse struct {
	RequestID       string            `json:"request_id"`
	InputKind       InputKind         `json:"input_kind"`
	Provenance      Provenance        `json:"provenance"`
	TextSnippet     string            `json:"text_snippet"`
	ModelUsed       string            `json:"model_used"`
	Confidence      float64           `json:"confidence"`
	FakePercentage  float64           `json:"fake_percentage"`
	RealPercentage  float64           `json:"real_percentage"`
	AllModelResults ModelResults      `json:"all_model_results"`
	Source          ResultSource      `json:"source"`
	FactCheckUsed   bool              `json:"fact_check_used"`
	HateSpeech      *ToxicityResult   `json:"hate_speech"`
	Verified        bool              `json:"verified"`
	RelatedArticles []RelatedArticle  `json:"related_articles"`
	FactCheck       *FactCheckReport  `json:"fact_check"`
	FinalDecision   *FactCheckVerdict `json:"final_decision"`
	Warnings        []string          `json:"warnings,omitempty"`
}
