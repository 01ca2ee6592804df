package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Skshirin/factify/internal/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// InputSpec is one input as written in a batch file or on the command line. Exactly one
// field is set.
type InputSpec struct {
	Text     string `json:"text" yaml:"text"`
	URL      string `json:"url" yaml:"url"`
	Image    string `json:"image" yaml:"image"`
	VideoURL string `json:"video_url" yaml:"video_url"`
	Video    string `json:"video" yaml:"video"`
}

type inputFile struct {
	Items []InputSpec `json:"items" yaml:"items"`
}

// Item converts the entry into a domain input. Image and video values are local paths.
func (s InputSpec) Item() (domain.InputItem, error) {
	set := 0
	for _, v := range []string{s.Text, s.URL, s.Image, s.VideoURL, s.Video} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return domain.InputItem{}, fmt.Errorf("%w: exactly one of text, url, image, video_url, video must be set (got %d)", domain.ErrInvalidInput, set)
	}

	switch {
	case s.Text != "":
		return domain.NewRawText(s.Text), nil
	case s.URL != "":
		return domain.NewArticleURL(s.URL), nil
	case s.Image != "":
		return domain.NewImageFile(s.Image), nil
	case s.VideoURL != "":
		return domain.NewVideoURL(s.VideoURL), nil
	default:
		return domain.NewVideoFile(s.Video), nil
	}
}

// Upload opens the image or video file through fs and submits its bytes as an upload stream
// instead of a local path. The caller closes the returned file once the analysis is done.
func (s InputSpec) Upload(fs afero.Fs) (domain.InputItem, io.Closer, error) {
	item, err := s.Item()
	if err != nil {
		return domain.InputItem{}, nil, err
	}
	path := item.Path()
	if path == "" {
		return domain.InputItem{}, nil, fmt.Errorf("%w: upload needs an image or video file", domain.ErrInvalidInput)
	}
	f, err := fs.Open(path)
	if err != nil {
		return domain.InputItem{}, nil, fmt.Errorf("%w: open upload: %v", domain.ErrInvalidInput, err)
	}
	name := filepath.Base(path)
	if item.Kind() == domain.InputImage {
		return domain.NewImage(name, f), f, nil
	}
	return domain.NewVideoUpload(name, f), f, nil
}

// LoadInputs reads a YAML or JSON batch file of the form {items: [{text: ...}, {url: ...}]}.
func LoadInputs(path string) ([]InputSpec, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("inputs file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inputs file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read inputs file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	decoders := []struct {
		ext string
		fn  func([]byte, any) error
	}{
		{ext: ".yaml", fn: yaml.Unmarshal},
		{ext: ".yml", fn: yaml.Unmarshal},
		{ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var f inputFile
		if err := d.fn(raw, &f); err != nil {
			errs = append(errs, fmt.Errorf("decode %s inputs: %w", strings.TrimPrefix(d.ext, "."), err))
			continue
		}
		if len(f.Items) == 0 {
			return nil, errors.New("inputs file contains no items")
		}
		return f.Items, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("inputs file format %q not recognized (expected YAML or JSON)", ext)
	}
	return nil, errors.Join(errs...)
}
