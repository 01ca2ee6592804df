package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Skshirin/factify/pkg/httpclient"
)

type recordingRunner struct {
	name string
	args []string
	out  []byte
	err  error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	return r.out, r.err
}

func TestTesseractOCRArgs(t *testing.T) {
	runner := &recordingRunner{out: []byte("Breaking news\n")}
	ocr := TesseractOCR{Language: "eng", Runner: runner}

	text, err := ocr.Recognize(context.Background(), "/tmp/ws/image.png")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "Breaking news\n" {
		t.Fatalf("unexpected text %q", text)
	}
	if runner.name != "tesseract" {
		t.Fatalf("unexpected program %q", runner.name)
	}
	want := []string{"/tmp/ws/image.png", "stdout", "-l", "eng"}
	if !reflect.DeepEqual(runner.args, want) {
		t.Fatalf("args = %v, want %v", runner.args, want)
	}
}

func TestYTDLPDownloaderArgs(t *testing.T) {
	runner := &recordingRunner{}
	d := YTDLPDownloader{Path: "/usr/local/bin/yt-dlp", Runner: runner}

	if err := d.Download(context.Background(), "https://youtu.be/abc", "/tmp/ws/video.mp4"); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if runner.name != "/usr/local/bin/yt-dlp" {
		t.Fatalf("unexpected program %q", runner.name)
	}
	last := runner.args[len(runner.args)-1]
	if last != "https://youtu.be/abc" {
		t.Fatalf("url should be the last argument, got %q", last)
	}
}

func TestYTDLPDownloaderFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exit status 1")}
	d := YTDLPDownloader{Runner: runner}
	if err := d.Download(context.Background(), "https://youtu.be/abc", "/tmp/out.mp4"); err == nil {
		t.Fatalf("expected error")
	}
	if err := d.Download(context.Background(), "", "/tmp/out.mp4"); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestFFmpegAudioExtractorArgs(t *testing.T) {
	runner := &recordingRunner{}
	e := FFmpegAudioExtractor{Runner: runner}

	if err := e.ExtractAudio(context.Background(), "in.mp4", "out.wav"); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	want := []string{"-y", "-i", "in.mp4", "-vn", "-ac", "1", "-ar", "16000", "-acodec", "pcm_s16le", "out.wav"}
	if !reflect.DeepEqual(runner.args, want) {
		t.Fatalf("args = %v, want %v", runner.args, want)
	}
}

func TestWhisperTranscriber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("model") != "base" {
			t.Errorf("unexpected model %q", r.FormValue("model"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file field: %v", err)
		}
		_, _ = w.Write([]byte(`{"text": "the minister said"}`))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	tr := WhisperTranscriber{URL: srv.URL, Model: "base", Client: httpclient.NewRestyClient(2 * time.Second)}
	text, err := tr.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "the minister said" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestWhisperTranscriberNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	tr := WhisperTranscriber{URL: srv.URL, Client: httpclient.NewRestyClient(2 * time.Second)}
	if _, err := tr.Transcribe(context.Background(), audio); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}
