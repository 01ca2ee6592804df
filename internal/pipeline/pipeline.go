// Package pipeline orchestrates one analysis request: extraction, model inference, toxicity,
// evidence search, fact-checking and the final merge.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/internal/extractor"
	"github.com/Skshirin/factify/internal/factcheck"
	"github.com/Skshirin/factify/internal/logger"
	"github.com/Skshirin/factify/pkg/claims"
	"github.com/Skshirin/factify/pkg/evidence"
	"github.com/Skshirin/factify/pkg/models"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// TextExtractor produces the text to analyze.
type TextExtractor interface {
	Extract(ctx context.Context, input domain.InputItem, ws *extractor.Workspace) (domain.ExtractedText, error)
}

// EnsembleRunner applies max voting over the adapters.
type EnsembleRunner interface {
	Aggregate(ctx context.Context, text string, adapters []models.Adapter) (domain.EnsembleResult, error)
}

// ModelSet exposes the shared, read-only model context.
type ModelSet interface {
	Adapters() []models.Adapter
	Toxicity() models.Classifier
}

// VerdictAggregator reduces a fact-check report to a decision.
type VerdictAggregator interface {
	Aggregate(report *domain.FactCheckReport) *domain.FactCheckVerdict
}

// Deps wires the collaborators into the orchestrator. FactChecker and Evidence are optional.
type Deps struct {
	Extractor      TextExtractor
	Ensemble       EnsembleRunner
	Models         ModelSet
	FactChecker    claims.Verifier
	FactAggregator VerdictAggregator
	Evidence       evidence.Searcher
	Fs             afero.Fs
	Logger         logger.Logger
	NewID          func() string
}

// Options are the per-deployment knobs of the orchestrator.
type Options struct {
	WorkDir            string
	SnippetMaxChars    int
	EvidenceQueryChars int
	EvidenceLimit      int
}

// Orchestrator runs requests. It keeps no state between them, so Process may be called
// concurrently.
type Orchestrator struct {
	extractor   TextExtractor
	ensemble    EnsembleRunner
	models      ModelSet
	factChecker claims.Verifier
	verdicts    VerdictAggregator
	evidence    evidence.Searcher
	fs          afero.Fs
	log         logger.Logger
	newID       func() string
	opts        Options
}

// New constructs the orchestrator, filling defaults for missing optional pieces.
func New(opts Options, deps Deps) (*Orchestrator, error) {
	if deps.Extractor == nil {
		return nil, errors.New("pipeline: extractor is required")
	}
	if deps.Ensemble == nil {
		return nil, errors.New("pipeline: ensemble is required")
	}
	if deps.Models == nil {
		return nil, errors.New("pipeline: model set is required")
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.FactAggregator == nil {
		deps.FactAggregator = factcheck.New(factcheck.DefaultThresholds())
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if opts.SnippetMaxChars <= 0 {
		opts.SnippetMaxChars = 500
	}
	if opts.EvidenceQueryChars <= 0 {
		opts.EvidenceQueryChars = 80
	}
	if opts.EvidenceLimit <= 0 {
		opts.EvidenceLimit = 5
	}

	return &Orchestrator{
		extractor:   deps.Extractor,
		ensemble:    deps.Ensemble,
		models:      deps.Models,
		factChecker: deps.FactChecker,
		verdicts:    deps.FactAggregator,
		evidence:    deps.Evidence,
		fs:          deps.Fs,
		log:         logger.Ensure(deps.Logger),
		newID:       deps.NewID,
		opts:        opts,
	}, nil
}

// Process analyzes one input. Failures are *PipelineError values.
func (o *Orchestrator) Process(ctx context.Context, input domain.InputItem) (*domain.FinalResponse, error) {
	if o == nil {
		return nil, errors.New("pipeline is nil")
	}
	id := o.newID()
	o.stage(id, StageReceived)

	if err := input.Validate(); err != nil {
		return nil, &PipelineError{RequestID: id, Stage: StageReceived, Err: err}
	}

	ws, err := extractor.NewWorkspace(o.fs, o.opts.WorkDir, "factify-")
	if err != nil {
		return nil, &PipelineError{RequestID: id, Stage: StageReceived, Err: err}
	}
	defer func() {
		if rmErr := ws.Remove(); rmErr != nil {
			o.log.WarnObj("workspace cleanup failed", "workspace", map[string]any{
				"request_id": id,
				"dir":        ws.Dir(),
				"error":      rmErr.Error(),
			})
		}
	}()

	o.stage(id, StageExtracting)
	text, err := o.extractor.Extract(ctx, input, ws)
	if err == nil && text.Empty() {
		err = domain.NoTextExtracted(nil)
	}
	if err != nil {
		o.stage(id, StageExtractFailed)
		return nil, &PipelineError{RequestID: id, Stage: StageExtracting, Err: err}
	}

	resp := &domain.FinalResponse{
		RequestID:       id,
		InputKind:       input.Kind(),
		Provenance:      text.Provenance,
		TextSnippet:     truncateRunes(text.Text, o.opts.SnippetMaxChars),
		RelatedArticles: []domain.RelatedArticle{},
	}

	// the ensemble is fatal; the other branches only degrade the response
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		ens      domain.EnsembleResult
		ensErr   error
		report   *domain.FactCheckReport
		warnings = map[string]string{}
	)
	warn := func(component string, err error) {
		mu.Lock()
		warnings[component] = err.Error()
		mu.Unlock()
		o.log.WarnObj("degraded pipeline stage", "degraded", map[string]any{
			"request_id": id,
			"component":  component,
			"error":      err.Error(),
		})
	}

	g.Go(func() error {
		o.stage(id, StageInferring)
		ens, ensErr = o.ensemble.Aggregate(runCtx, text.Text, o.models.Adapters())
		if ensErr != nil {
			cancel()
		}
		return nil
	})
	g.Go(func() error {
		clf := o.models.Toxicity()
		if clf == nil {
			return nil
		}
		res, err := clf.Classify(runCtx, text.Text)
		if err != nil {
			warn("hate_speech", err)
			return nil
		}
		resp.HateSpeech = &res
		return nil
	})
	g.Go(func() error {
		if o.evidence == nil {
			return nil
		}
		query := truncateRunes(text.Text, o.opts.EvidenceQueryChars)
		articles, err := o.evidence.Search(runCtx, query, o.opts.EvidenceLimit)
		if err != nil {
			warn("evidence", err)
			return nil
		}
		if len(articles) > 0 {
			resp.RelatedArticles = articles
			resp.Verified = true
		}
		return nil
	})
	g.Go(func() error {
		if o.factChecker == nil {
			return nil
		}
		r, err := o.factChecker.Check(runCtx, text.Text)
		if err != nil {
			warn("fact_check", &domain.FactCheckError{Provider: o.factChecker.Name(), Err: err})
			return nil
		}
		report = r
		return nil
	})
	_ = g.Wait()

	o.stage(id, StageAggregating)
	if ensErr != nil {
		return nil, &PipelineError{RequestID: id, Stage: StageAggregating, Err: ensErr}
	}
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{RequestID: id, Stage: StageAggregating, Err: err}
	}

	o.stage(id, StageFactChecking)
	resp.FactCheck = report
	verdict := o.verdicts.Aggregate(report)

	o.stage(id, StageMerging)
	factcheck.Merge(resp, ens, verdict)
	resp.Warnings = sortedWarnings(warnings)

	o.stage(id, StageResponded)
	o.log.InfoObj("analysis complete", "analysis", map[string]any{
		"request_id":      id,
		"input_kind":      string(resp.InputKind),
		"provenance":      string(resp.Provenance),
		"model_used":      resp.ModelUsed,
		"confidence":      resp.Confidence,
		"source":          string(resp.Source),
		"verified":        resp.Verified,
		"failed_adapters": len(ens.Failures),
	})
	return resp, nil
}

func (o *Orchestrator) stage(id string, s Stage) {
	o.log.DebugObj("pipeline stage", "pipeline", map[string]any{
		"request_id": id,
		"stage":      string(s),
	})
}

// sortedWarnings renders component warnings in a stable order.
func sortedWarnings(w map[string]string) []string {
	if len(w) == 0 {
		return nil
	}
	out := make([]string, 0, len(w))
	for _, component := range []string{"hate_speech", "evidence", "fact_check"} {
		if msg, ok := w[component]; ok {
			out = append(out, fmt.Sprintf("%s: %s", component, msg))
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
