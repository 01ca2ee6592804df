package extractor

import (
	"context"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/pkg/httpclient"
)

// Strategy is one way of turning an input into text. Strategies are tried in order.
type Strategy interface {
	Name() string
	Applies(input domain.InputItem) bool
	Extract(ctx context.Context, input domain.InputItem, ws *Workspace) (domain.ExtractedText, error)
}

// HTTPClient aliases the shared httpclient.Client interface for page fetches.
type HTTPClient = httpclient.Client

// Renderer returns the HTML of a page after scripts ran.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// OCR recognizes text in an image file.
type OCR interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Downloader stores a remote video at outPath.
type Downloader interface {
	Download(ctx context.Context, url, outPath string) error
}

// AudioExtractor writes the audio track of a video as WAV.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error
}

// Transcriber converts speech in an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
