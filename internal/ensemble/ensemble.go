// Package ensemble runs every fake/real adapter on a text and keeps the most confident answer.
package ensemble

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/internal/logger"
	"github.com/Skshirin/factify/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Aggregator fans a text out to all adapters and applies max voting.
type Aggregator struct {
	parallelism int
	log         logger.Logger
}

// New returns an aggregator running at most parallelism predictions at once
// (zero or less means one goroutine per adapter).
func New(parallelism int, log logger.Logger) *Aggregator {
	return &Aggregator{parallelism: parallelism, log: logger.Ensure(log)}
}

type slot struct {
	result domain.ModelResult
	err    error
}

// Aggregate invokes every adapter. Failed adapters are recorded in Failures and left out of
// AllModelResults; the winner is the highest confidence, the earliest adapter winning ties.
func (a *Aggregator) Aggregate(ctx context.Context, text string, adapters []models.Adapter) (domain.EnsembleResult, error) {
	if a == nil {
		a = New(0, nil)
	}
	if len(adapters) == 0 {
		return domain.EnsembleResult{}, &domain.EnsembleEmptyError{}
	}

	slots := make([]slot, len(adapters))
	var g errgroup.Group
	if a.parallelism > 0 {
		g.SetLimit(a.parallelism)
	}
	for i, adapter := range adapters {
		g.Go(func() error {
			res, err := predict(ctx, adapter, text)
			slots[i] = slot{result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := domain.EnsembleResult{AllModelResults: make(domain.ModelResults, 0, len(adapters))}
	best := -1
	for i, s := range slots {
		if s.err != nil {
			out.Failures = append(out.Failures, s.err)
			a.log.WarnObj("model prediction failed", "model_failure", map[string]any{
				"model": adapters[i].Name(),
				"error": s.err.Error(),
			})
			continue
		}
		out.AllModelResults = append(out.AllModelResults, s.result)
		if best < 0 || s.result.Confidence > out.AllModelResults[best].Confidence {
			best = len(out.AllModelResults) - 1
		}
	}

	if best < 0 {
		return domain.EnsembleResult{Failures: out.Failures}, &domain.EnsembleEmptyError{Failures: out.Failures}
	}

	winner := out.AllModelResults[best]
	out.BestModel = winner.Model
	out.Confidence = winner.Confidence
	out.FakePercentage = winner.FakePercentage
	out.RealPercentage = winner.RealPercentage
	a.log.DebugObj("ensemble aggregated", "ensemble", map[string]any{
		"answered":   out.AllModelResults.Names(),
		"failed":     len(out.Failures),
		"best_model": out.BestModel,
	})
	return out, nil
}

// predict calls one adapter, normalizing errors and panics to AdapterError and forcing the
// result to carry the adapter's name.
func predict(ctx context.Context, adapter models.Adapter, text string) (res domain.ModelResult, err error) {
	name := adapter.Name()
	defer func() {
		if r := recover(); r != nil {
			err = &domain.AdapterError{Model: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err = adapter.Predict(ctx, text)
	if err != nil {
		var adapterErr *domain.AdapterError
		if !errors.As(err, &adapterErr) {
			err = &domain.AdapterError{Model: name, Err: err}
		}
		return domain.ModelResult{}, err
	}
	res.Model = name
	return res, nil
}
