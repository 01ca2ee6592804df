package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/internal/logger"
	"github.com/Skshirin/factify/pkg/httpclient"
)

// RawTextStrategy passes user-supplied text through.
type RawTextStrategy struct{}

func (RawTextStrategy) Name() string { return string(domain.ProvenanceRaw) }

func (RawTextStrategy) Applies(input domain.InputItem) bool {
	return input.Kind() == domain.InputRawText
}

func (RawTextStrategy) Extract(_ context.Context, input domain.InputItem, _ *Workspace) (domain.ExtractedText, error) {
	text := strings.TrimSpace(input.Text())
	if text == "" {
		return domain.ExtractedText{}, domain.NoTextExtracted(errors.New("text is blank"))
	}
	return domain.ExtractedText{Text: text, Provenance: domain.ProvenanceRaw}, nil
}

// FetchStrategy downloads an article and joins its paragraphs.
type FetchStrategy struct {
	Client    HTTPClient
	UserAgent string
	MaxBytes  int
	MaxChars  int
}

func (s FetchStrategy) Name() string { return string(domain.ProvenanceNetworkFetch) }

func (s FetchStrategy) Applies(input domain.InputItem) bool {
	return input.Kind() == domain.InputArticleURL && s.Client != nil
}

func (s FetchStrategy) Extract(ctx context.Context, input domain.InputItem, _ *Workspace) (domain.ExtractedText, error) {
	headers := map[string]string{"Accept": "text/html,application/xhtml+xml"}
	if s.UserAgent != "" {
		headers["User-Agent"] = s.UserAgent
	}

	resp, err := s.get(ctx, input.URL(), headers)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("http fetch: %w", err)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return domain.ExtractedText{}, fmt.Errorf("http fetch: %w", err)
	}

	body := resp.Body()
	if s.MaxBytes > 0 && len(body) > s.MaxBytes {
		body = body[:s.MaxBytes]
	}
	text, err := paragraphText(body)
	if err != nil {
		return domain.ExtractedText{}, err
	}
	return domain.ExtractedText{
		Text:       truncateRunes(text, s.MaxChars),
		Provenance: domain.ProvenanceNetworkFetch,
	}, nil
}

// get caps the download at MaxBytes while reading when the client can, and after it otherwise.
func (s FetchStrategy) get(ctx context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	if lc, ok := s.Client.(httpclient.LimitedClient); ok && s.MaxBytes > 0 {
		return lc.GetLimited(ctx, url, headers, int64(s.MaxBytes))
	}
	return s.Client.Get(ctx, url, headers)
}

// BrowserStrategy renders the article in a headless browser. It only runs when the plain
// fetch failed or found no paragraphs, since strategies stop at the first usable text.
type BrowserStrategy struct {
	Renderer Renderer
	MaxChars int
}

func (s BrowserStrategy) Name() string { return string(domain.ProvenanceBrowser) }

func (s BrowserStrategy) Applies(input domain.InputItem) bool {
	return input.Kind() == domain.InputArticleURL && s.Renderer != nil
}

func (s BrowserStrategy) Extract(ctx context.Context, input domain.InputItem, _ *Workspace) (domain.ExtractedText, error) {
	html, err := s.Renderer.Render(ctx, input.URL())
	if err != nil {
		return domain.ExtractedText{}, domain.BrowserError(err)
	}
	text, err := paragraphText([]byte(html))
	if err != nil {
		return domain.ExtractedText{}, domain.BrowserError(err)
	}
	return domain.ExtractedText{
		Text:       truncateRunes(text, s.MaxChars),
		Provenance: domain.ProvenanceBrowser,
	}, nil
}

// OCRStrategy recognizes text in an uploaded or local image.
type OCRStrategy struct {
	OCR OCR
}

func (s OCRStrategy) Name() string { return string(domain.ProvenanceOCR) }

func (s OCRStrategy) Applies(input domain.InputItem) bool {
	return input.Kind() == domain.InputImage && s.OCR != nil
}

func (s OCRStrategy) Extract(ctx context.Context, input domain.InputItem, ws *Workspace) (domain.ExtractedText, error) {
	path := input.Path()
	if input.Reader() != nil {
		name := safeName(input.Name(), "image")
		saved, err := ws.Save(name, input.Reader())
		if err != nil {
			return domain.ExtractedText{}, fmt.Errorf("save image: %w", err)
		}
		path = saved
	}

	text, err := s.OCR.Recognize(ctx, path)
	if err != nil {
		return domain.ExtractedText{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ExtractedText{}, domain.NoTextExtracted(errors.New("ocr recognized no text"))
	}
	return domain.ExtractedText{Text: text, Provenance: domain.ProvenanceOCR}, nil
}

const (
	videoFileName = "input_video.mp4"
	audioFileName = "audio.wav"
)

// TranscriptionStrategy turns a video into text: resolve a local file, extract audio, transcribe.
// Download, save and audio failures are fatal media errors. A failed transcription leaves an
// empty transcript, reported as NoTextExtracted carrying the cause.
type TranscriptionStrategy struct {
	Downloader  Downloader
	Audio       AudioExtractor
	Transcriber Transcriber
	StepTimeout time.Duration
	Logger      logger.Logger
}

func (s TranscriptionStrategy) Name() string { return string(domain.ProvenanceTranscription) }

func (s TranscriptionStrategy) Applies(input domain.InputItem) bool {
	return input.Kind() == domain.InputVideo && s.Audio != nil && s.Transcriber != nil
}

func (s TranscriptionStrategy) Extract(ctx context.Context, input domain.InputItem, ws *Workspace) (domain.ExtractedText, error) {
	log := logger.Ensure(s.Logger)

	videoPath, err := s.resolveVideo(ctx, input, ws)
	if err != nil {
		return domain.ExtractedText{}, err
	}

	audioPath := ws.Path(audioFileName)
	stepCtx, cancel := s.step(ctx)
	err = s.Audio.ExtractAudio(stepCtx, videoPath, audioPath)
	cancel()
	if err != nil {
		return domain.ExtractedText{}, domain.MediaPipelineError(domain.StageAudio, err)
	}

	stepCtx, cancel = s.step(ctx)
	transcript, transcribeErr := s.Transcriber.Transcribe(stepCtx, audioPath)
	cancel()
	if transcribeErr != nil {
		log.WarnObj("transcription failed", "transcription_error", map[string]any{
			"error": transcribeErr.Error(),
		})
		transcript = ""
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		cause := transcribeErr
		if cause == nil {
			cause = errors.New("transcript is empty")
		} else {
			cause = domain.MediaPipelineError(domain.StageTranscription, cause)
		}
		return domain.ExtractedText{}, domain.NoTextExtracted(cause)
	}
	return domain.ExtractedText{Text: transcript, Provenance: domain.ProvenanceTranscription}, nil
}

func (s TranscriptionStrategy) resolveVideo(ctx context.Context, input domain.InputItem, ws *Workspace) (string, error) {
	switch {
	case input.URL() != "":
		if s.Downloader == nil {
			return "", domain.MediaPipelineError(domain.StageDownload, errors.New("no downloader configured"))
		}
		out := ws.Path(videoFileName)
		stepCtx, cancel := s.step(ctx)
		defer cancel()
		if err := s.Downloader.Download(stepCtx, input.URL(), out); err != nil {
			return "", domain.MediaPipelineError(domain.StageDownload, err)
		}
		if err := ws.Exists(out); err != nil {
			return "", domain.MediaPipelineError(domain.StageDownload, fmt.Errorf("downloaded file missing: %w", err))
		}
		return out, nil
	case input.Reader() != nil:
		name := videoFileName
		if ext := filepath.Ext(input.Name()); ext != "" {
			name = "input_video" + ext
		}
		saved, err := ws.Save(name, input.Reader())
		if err != nil {
			return "", domain.MediaPipelineError(domain.StageSave, err)
		}
		return saved, nil
	default:
		if err := ws.Exists(input.Path()); err != nil {
			return "", domain.MediaPipelineError(domain.StageSave, err)
		}
		return input.Path(), nil
	}
}

func (s TranscriptionStrategy) step(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.StepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.StepTimeout)
}
