// Package extractor turns any supported input into plain text through an ordered chain of
// strategies: raw text, network fetch, headless-browser fallback, OCR and transcription.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/internal/logger"
)

// Options tunes the default strategy chain.
type Options struct {
	UserAgent       string
	MaxHTMLBytes    int
	ArticleMaxChars int
	MediaTimeout    time.Duration
}

// Deps holds the collaborators used by the default strategy chain. Nil collaborators
// disable the strategies that need them.
type Deps struct {
	HTTP        HTTPClient
	Renderer    Renderer
	OCR         OCR
	Downloader  Downloader
	Audio       AudioExtractor
	Transcriber Transcriber
	Logger      logger.Logger
}

// Extractor runs strategies in order until one yields non-blank text.
type Extractor struct {
	strategies []Strategy
	log        logger.Logger
}

// New builds the default chain.
func New(opts Options, deps Deps) *Extractor {
	return NewWithStrategies(deps.Logger,
		RawTextStrategy{},
		FetchStrategy{
			Client:    deps.HTTP,
			UserAgent: opts.UserAgent,
			MaxBytes:  opts.MaxHTMLBytes,
			MaxChars:  opts.ArticleMaxChars,
		},
		BrowserStrategy{Renderer: deps.Renderer, MaxChars: opts.ArticleMaxChars},
		OCRStrategy{OCR: deps.OCR},
		TranscriptionStrategy{
			Downloader:  deps.Downloader,
			Audio:       deps.Audio,
			Transcriber: deps.Transcriber,
			StepTimeout: opts.MediaTimeout,
			Logger:      deps.Logger,
		},
	)
}

// NewWithStrategies builds an extractor with an explicit chain.
func NewWithStrategies(log logger.Logger, strategies ...Strategy) *Extractor {
	out := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Extractor{strategies: out, log: logger.Ensure(log)}
}

// Extract returns the first non-blank text produced for input. When every applicable
// strategy fails the result is a NoTextExtracted error joining their causes; media
// pipeline failures stop the chain immediately.
func (e *Extractor) Extract(ctx context.Context, input domain.InputItem, ws *Workspace) (domain.ExtractedText, error) {
	if e == nil {
		return domain.ExtractedText{}, fmt.Errorf("extractor is nil")
	}
	if err := input.Validate(); err != nil {
		return domain.ExtractedText{}, err
	}

	var causes []error
	tried := 0
	for _, s := range e.strategies {
		if !s.Applies(input) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return domain.ExtractedText{}, err
		}
		tried++

		text, err := s.Extract(ctx, input, ws)
		if err == nil && !text.Empty() {
			return text, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: no text found", s.Name())
		}

		var extractErr *domain.ExtractionError
		if errors.As(err, &extractErr) && extractErr.Kind == domain.KindMediaPipeline {
			return domain.ExtractedText{}, err
		}

		e.log.WarnObj("extraction strategy failed", "extraction_failure", map[string]any{
			"strategy": s.Name(),
			"kind":     string(input.Kind()),
			"error":    err.Error(),
		})
		causes = append(causes, err)
	}

	if tried == 0 {
		return domain.ExtractedText{}, domain.NoTextExtracted(fmt.Errorf("no extraction strategy configured for %s input", input.Kind()))
	}
	if len(causes) == 1 && errors.Is(causes[0], domain.ErrNoTextExtracted) {
		return domain.ExtractedText{}, causes[0]
	}
	return domain.ExtractedText{}, domain.NoTextExtracted(errors.Join(causes...))
}
