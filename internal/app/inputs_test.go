package app

import (
	"errors"
	"io"
	"testing"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/spf13/afero"
)

func TestLoadInputsYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "batch.yaml", `
items:
  - text: "PM announces new scheme"
  - url: https://example.com/story
  - image: ./scan.png
  - video_url: https://youtu.be/abc
  - video: ./clip.mp4
`)
	specs, err := LoadInputs(path)
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	want := []domain.InputKind{domain.InputRawText, domain.InputArticleURL, domain.InputImage, domain.InputVideo, domain.InputVideo}
	if len(specs) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(specs))
	}
	for i, s := range specs {
		item, err := s.Item()
		if err != nil {
			t.Fatalf("item %d: %v", i, err)
		}
		if item.Kind() != want[i] {
			t.Fatalf("item %d kind = %s, want %s", i, item.Kind(), want[i])
		}
	}
}

func TestLoadInputsJSONAndErrors(t *testing.T) {
	dir := t.TempDir()
	specs, err := LoadInputs(writeFile(t, dir, "batch.json", `{"items":[{"text":"a"}]}`))
	if err != nil || len(specs) != 1 {
		t.Fatalf("LoadInputs json: %v %v", specs, err)
	}
	if _, err := LoadInputs(writeFile(t, dir, "empty.yaml", "items: []\n")); err == nil {
		t.Fatalf("expected error for empty batch")
	}
	if _, err := LoadInputs(writeFile(t, dir, "batch.txt", "text")); err == nil {
		t.Fatalf("expected error for unknown extension")
	}
}

func TestInputSpecRequiresExactlyOne(t *testing.T) {
	for _, s := range []InputSpec{{}, {Text: "a", URL: "b"}} {
		if _, err := s.Item(); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", s, err)
		}
	}
}

func TestInputSpecUpload(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/media/scan.png", []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := afero.WriteFile(fs, "/media/clip.mp4", []byte("mp4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	item, f, err := InputSpec{Image: "/media/scan.png"}.Upload(fs)
	if err != nil {
		t.Fatalf("Upload image: %v", err)
	}
	defer f.Close()
	if item.Kind() != domain.InputImage || item.Name() != "scan.png" || item.Path() != "" || item.Reader() == nil {
		t.Fatalf("unexpected image upload %+v", item)
	}
	body, err := io.ReadAll(item.Reader())
	if err != nil || string(body) != "png-bytes" {
		t.Fatalf("upload stream = %q err=%v", body, err)
	}

	item, f2, err := InputSpec{Video: "/media/clip.mp4"}.Upload(fs)
	if err != nil {
		t.Fatalf("Upload video: %v", err)
	}
	defer f2.Close()
	if item.Kind() != domain.InputVideo || item.Name() != "clip.mp4" || item.Reader() == nil {
		t.Fatalf("unexpected video upload %+v", item)
	}

	for _, s := range []InputSpec{{Text: "claim"}, {VideoURL: "https://youtu.be/x"}, {Image: "/media/missing.png"}} {
		if _, _, err := s.Upload(fs); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", s, err)
		}
	}
}
