package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoTextExtracted  = errors.New("no text extracted")
	ErrEnsembleEmpty    = errors.New("no model adapter produced a result")
	ErrUnexpectedOutput = errors.New("unexpected model output shape")
)

// ExtractionKind classifies extraction failures.
type ExtractionKind string

const (
	KindNoTextExtracted ExtractionKind = "no_text_extracted"
	KindMediaPipeline   ExtractionKind = "media_pipeline"
	KindBrowser         ExtractionKind = "browser"
)

// MediaStage names the step of the video pipeline that broke.
type MediaStage string

const (
	StageDownload      MediaStage = "download"
	StageSave          MediaStage = "save"
	StageAudio         MediaStage = "audio_extraction"
	StageTranscription MediaStage = "transcription"
)

// ExtractionError is returned when no usable text could be produced.
type ExtractionError struct {
	Kind  ExtractionKind
	Stage MediaStage
	Err   error
}

func (e *ExtractionError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Stage != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Stage))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is lets callers match any NoTextExtracted failure with errors.Is(err, ErrNoTextExtracted).
func (e *ExtractionError) Is(target error) bool {
	return target == ErrNoTextExtracted && e.Kind == KindNoTextExtracted
}

// NoTextExtracted builds the terminal extraction error; cause may be nil.
func NoTextExtracted(cause error) *ExtractionError {
	return &ExtractionError{Kind: KindNoTextExtracted, Err: cause}
}

// MediaPipelineError reports a broken download/save/audio/transcription step.
func MediaPipelineError(stage MediaStage, err error) *ExtractionError {
	return &ExtractionError{Kind: KindMediaPipeline, Stage: stage, Err: err}
}

// BrowserError reports a failed headless-browser render.
func BrowserError(err error) *ExtractionError {
	return &ExtractionError{Kind: KindBrowser, Err: err}
}

// AdapterError names the model whose prediction failed.
type AdapterError struct {
	Model string
	Err   error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// EnsembleEmptyError is returned when every adapter failed.
type EnsembleEmptyError struct {
	Failures []error
}

func (e *EnsembleEmptyError) Error() string {
	if len(e.Failures) == 0 {
		return ErrEnsembleEmpty.Error() + ": no adapters configured"
	}
	return fmt.Sprintf("%s: %v", ErrEnsembleEmpty, errors.Join(e.Failures...))
}

func (e *EnsembleEmptyError) Is(target error) bool { return target == ErrEnsembleEmpty }

func (e *EnsembleEmptyError) Unwrap() []error { return e.Failures }

// FactCheckError is a non-fatal claim-verification failure.
type FactCheckError struct {
	Provider string
	Err      error
}

func (e *FactCheckError) Error() string {
	return fmt.Sprintf("fact-check %s: %v", e.Provider, e.Err)
}

func (e *FactCheckError) Unwrap() error { return e.Err }

// ErrorEnvelope is the structured failure returned in place of a FinalResponse.
type ErrorEnvelope struct {
	RequestID string `json:"request_id,omitempty"`
	Stage     string `json:"stage"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

// NewErrorEnvelope classifies err into a human-readable envelope.
func NewErrorEnvelope(requestID, stage string, err error) ErrorEnvelope {
	env := ErrorEnvelope{RequestID: requestID, Stage: stage, Kind: "internal"}
	if err == nil {
		return env
	}
	env.Error = err.Error()

	var extractErr *ExtractionError
	switch {
	case errors.As(err, &extractErr):
		env.Kind = string(extractErr.Kind)
	case errors.Is(err, ErrEnsembleEmpty):
		env.Kind = "ensemble_empty"
	case errors.Is(err, ErrInvalidInput):
		env.Kind = "invalid_input"
	}
	return env
}
