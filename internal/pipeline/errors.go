package pipeline

import (
	"fmt"

	"github.com/Skshirin/factify/internal/domain"
)

// Stage is a step of one analysis request.
type Stage string

const (
	StageReceived      Stage = "received"
	StageExtracting    Stage = "extracting"
	StageExtractFailed Stage = "extract_failed"
	StageInferring     Stage = "inferring"
	StageAggregating   Stage = "aggregating"
	StageFactChecking  Stage = "fact_checking"
	StageMerging       Stage = "merging"
	StageResponded     Stage = "responded"
)

// PipelineError is a fatal failure of one request, tagged with the stage that broke.
type PipelineError struct {
	RequestID string
	Stage     Stage
	Err       error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Envelope converts the failure into the structured error payload.
func (e *PipelineError) Envelope() domain.ErrorEnvelope {
	return domain.NewErrorEnvelope(e.RequestID, string(e.Stage), e.Err)
}
