package publishers

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/Skshirin/factify/internal/domain"
)

// Verdict labels carried on events and used by sink filters.
const (
	LabelFake      = "fake"
	LabelReal      = "real"
	LabelUndecided = "undecided"
)

// Event is the verdict payload published downstream.
type Event struct {
	// Fingerprint identifies the analyzed content; equal inputs share it across requests.
	Fingerprint string               `json:"fingerprint"`
	Label       string               `json:"label"`
	InputKind   domain.InputKind     `json:"input_kind"`
	Source      domain.ResultSource  `json:"source"`
	Verdict     domain.FinalResponse `json:"verdict"`
	AnalyzedAt  time.Time            `json:"analyzed_at"`
}

// NewEvent wraps a finished analysis.
func NewEvent(resp domain.FinalResponse) Event {
	return Event{
		Fingerprint: Fingerprint(resp.InputKind, resp.TextSnippet),
		Label:       VerdictLabel(resp),
		InputKind:   resp.InputKind,
		Source:      resp.Source,
		Verdict:     resp,
		AnalyzedAt:  time.Now().UTC(),
	}
}

// VerdictLabel names the side with the larger percentage.
func VerdictLabel(resp domain.FinalResponse) string {
	switch {
	case resp.FakePercentage > resp.RealPercentage:
		return LabelFake
	case resp.RealPercentage > resp.FakePercentage:
		return LabelReal
	default:
		return LabelUndecided
	}
}

// Fingerprint hashes the input kind and the normalized text snippet.
func Fingerprint(kind domain.InputKind, snippet string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(snippet)), " ")
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + norm))
	return hex.EncodeToString(sum[:])
}

// attributes are the routing headers attached by queue-style sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"fingerprint": e.Fingerprint,
		"label":       e.Label,
		"input_kind":  string(e.InputKind),
		"source":      string(e.Source),
	}
}
