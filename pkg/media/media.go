// Package media wraps the OCR, download, audio and transcription engines used to turn
// images and videos into text.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Skshirin/factify/pkg/httpclient"
	"github.com/Skshirin/factify/pkg/toolexec"
)

// TesseractOCR recognizes text in an image with the tesseract CLI.
type TesseractOCR struct {
	Path     string
	Language string
	Runner   toolexec.Runner
}

// Recognize returns the raw recognized text; it may be blank.
func (o TesseractOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	runner := o.Runner
	if runner == nil {
		runner = toolexec.ExecRunner{}
	}
	lang := o.Language
	if lang == "" {
		lang = "eng"
	}
	out, err := runner.Run(ctx, programOr(o.Path, "tesseract"), imagePath, "stdout", "-l", lang)
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", imagePath, err)
	}
	return string(out), nil
}

// YTDLPDownloader fetches remote videos (YouTube, Instagram, direct links) with yt-dlp.
type YTDLPDownloader struct {
	Path   string
	Runner toolexec.Runner
}

// Download stores the video at outPath as mp4.
func (d YTDLPDownloader) Download(ctx context.Context, url, outPath string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("download: url is empty")
	}
	runner := d.Runner
	if runner == nil {
		runner = toolexec.ExecRunner{}
	}
	_, err := runner.Run(ctx, programOr(d.Path, "yt-dlp"),
		"-f", "mp4/best",
		"--no-playlist",
		"--merge-output-format", "mp4",
		"-q",
		"-o", outPath,
		url,
	)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

// FFmpegAudioExtractor writes the audio track of a video as 16 kHz mono PCM WAV.
type FFmpegAudioExtractor struct {
	Path   string
	Runner toolexec.Runner
}

func (e FFmpegAudioExtractor) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	runner := e.Runner
	if runner == nil {
		runner = toolexec.ExecRunner{}
	}
	_, err := runner.Run(ctx, programOr(e.Path, "ffmpeg"),
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-acodec", "pcm_s16le",
		wavPath,
	)
	if err != nil {
		return fmt.Errorf("extract audio from %s: %w", videoPath, err)
	}
	return nil
}

// WhisperTranscriber uploads audio to a Whisper-compatible transcription endpoint
// (OpenAI /v1/audio/transcriptions shape).
type WhisperTranscriber struct {
	URL     string
	Model   string
	Headers map[string]string
	Client  httpclient.Poster
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (w WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if w.Client == nil {
		return "", errors.New("transcribe: http client is nil")
	}
	if strings.TrimSpace(w.URL) == "" {
		return "", errors.New("transcribe: endpoint is empty")
	}

	form := map[string]string{"response_format": "json"}
	if w.Model != "" {
		form["model"] = w.Model
	}
	resp, err := w.Client.PostFile(ctx, w.URL, w.Headers, "file", audioPath, form)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", audioPath, err)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return "", fmt.Errorf("transcribe %s: %w", audioPath, err)
	}

	var payload transcriptionResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	return payload.Text, nil
}

func programOr(path, fallback string) string {
	if p := strings.TrimSpace(path); p != "" {
		return p
	}
	return fallback
}
