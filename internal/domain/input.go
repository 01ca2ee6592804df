package domain

import (
	"fmt"
	"io"
	"strings"
)

// InputKind tags the variant held by an InputItem.
type InputKind string

const (
	InputRawText    InputKind = "text"
	InputArticleURL InputKind = "url"
	InputImage      InputKind = "image"
	InputVideo      InputKind = "video"
)

// InputItem is the content submitted for analysis. Exactly one payload is set,
// matching Kind. Values are built with the New* constructors and never mutated.
type InputItem struct {
	kind InputKind

	text string
	url  string

	// asset payloads: a stream to be saved into the request workspace or a local path
	name   string
	reader io.Reader
	path   string
}

// NewRawText wraps user-supplied text.
func NewRawText(text string) InputItem {
	return InputItem{kind: InputRawText, text: text}
}

// NewArticleURL wraps an article link.
func NewArticleURL(url string) InputItem {
	return InputItem{kind: InputArticleURL, url: strings.TrimSpace(url)}
}

// NewImage wraps an uploaded image stream.
func NewImage(name string, r io.Reader) InputItem {
	return InputItem{kind: InputImage, name: name, reader: r}
}

// NewImageFile wraps an image already present on disk.
func NewImageFile(path string) InputItem {
	return InputItem{kind: InputImage, path: strings.TrimSpace(path)}
}

// NewVideoURL wraps a remote video link (YouTube, Instagram, direct file...).
func NewVideoURL(url string) InputItem {
	return InputItem{kind: InputVideo, url: strings.TrimSpace(url)}
}

// NewVideoUpload wraps an uploaded video stream.
func NewVideoUpload(name string, r io.Reader) InputItem {
	return InputItem{kind: InputVideo, name: name, reader: r}
}

// NewVideoFile wraps a video already present on disk.
func NewVideoFile(path string) InputItem {
	return InputItem{kind: InputVideo, path: strings.TrimSpace(path)}
}

func (i InputItem) Kind() InputKind { return i.kind }
func (i InputItem) Text() string    { return i.text }
func (i InputItem) URL() string     { return i.url }

// Name is the original file name of an uploaded asset, if any.
func (i InputItem) Name() string { return i.name }

// Reader returns the upload stream of an asset, or nil.
func (i InputItem) Reader() io.Reader { return i.reader }

// Path returns the local path of an asset, or "".
func (i InputItem) Path() string { return i.path }

// Validate checks that the variant carries a payload of the right shape.
func (i InputItem) Validate() error {
	switch i.kind {
	case InputRawText:
		// blank text is an extraction outcome, not a malformed input
	case InputArticleURL:
		if i.url == "" {
			return fmt.Errorf("%w: url is empty", ErrInvalidInput)
		}
	case InputImage:
		if i.reader == nil && i.path == "" {
			return fmt.Errorf("%w: image has neither upload nor path", ErrInvalidInput)
		}
	case InputVideo:
		if i.url == "" && i.reader == nil && i.path == "" {
			return fmt.Errorf("%w: video has no url, upload or path", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown input kind %q", ErrInvalidInput, i.kind)
	}
	return nil
}

// Provenance names the extraction strategy that produced a text.
type Provenance string

const (
	ProvenanceRaw           Provenance = "raw"
	ProvenanceNetworkFetch  Provenance = "network-fetch"
	ProvenanceBrowser       Provenance = "browser-fallback"
	ProvenanceOCR           Provenance = "ocr"
	ProvenanceTranscription Provenance = "transcription"
)

// ExtractedText is the normalized text handed to the classifiers.
type ExtractedText struct {
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
}

// Empty reports whether no usable text was produced.
func (e ExtractedText) Empty() bool {
	return strings.TrimSpace(e.Text) == ""
}
