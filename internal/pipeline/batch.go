package pipeline

import (
	"context"

	"github.com/Skshirin/factify/internal/domain"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one input of a batch. Exactly one of Response and Err is set.
type BatchResult struct {
	Index    int
	Response *domain.FinalResponse
	Err      error
}

// Envelope returns the error payload of a failed item.
func (r BatchResult) Envelope() domain.ErrorEnvelope {
	if pe, ok := r.Err.(*PipelineError); ok {
		return pe.Envelope()
	}
	return domain.NewErrorEnvelope("", string(StageReceived), r.Err)
}

// ProcessBatch runs every input through Process with at most parallelism requests in flight.
// A failing item never stops the rest; results keep the input order.
func (o *Orchestrator) ProcessBatch(ctx context.Context, inputs []domain.InputItem, parallelism int) []BatchResult {
	results := make([]BatchResult, len(inputs))
	var g errgroup.Group
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, in := range inputs {
		g.Go(func() error {
			resp, err := o.Process(ctx, in)
			results[i] = BatchResult{Index: i, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
