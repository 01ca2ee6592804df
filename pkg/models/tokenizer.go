package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// defaultFilters is the punctuation set stripped by Keras' text_to_word_sequence.
const defaultFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

// Tokenizer maps words to the integer indices a sequence model was trained with.
// It reproduces the Keras Tokenizer exported with tokenizer.to_json().
type Tokenizer struct {
	wordIndex map[string]int
	numWords  int
	oovIndex  int
	filters   string
	lower     bool
	split     string
}

type kerasTokenizerFile struct {
	ClassName string               `json:"class_name"`
	Config    *kerasTokenizerConfig `json:"config"`
}

type kerasTokenizerConfig struct {
	NumWords  *int            `json:"num_words"`
	Filters   *string         `json:"filters"`
	Lower     *bool           `json:"lower"`
	Split     *string         `json:"split"`
	OOVToken  *string         `json:"oov_token"`
	WordIndex json.RawMessage `json:"word_index"`
}

// LoadTokenizer reads a tokenizer JSON file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}
	tok, err := ParseTokenizer(raw)
	if err != nil {
		return nil, fmt.Errorf("tokenizer %s: %w", path, err)
	}
	return tok, nil
}

// ParseTokenizer decodes either the Keras to_json() envelope or its bare config object.
// word_index may be an object or a JSON-encoded string (as Keras writes it).
func ParseTokenizer(raw []byte) (*Tokenizer, error) {
	var file kerasTokenizerFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode tokenizer json: %w", err)
	}
	cfg := file.Config
	if cfg == nil {
		cfg = &kerasTokenizerConfig{}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("decode tokenizer config: %w", err)
		}
	}

	wordIndex, err := decodeWordIndex(cfg.WordIndex)
	if err != nil {
		return nil, err
	}
	if len(wordIndex) == 0 {
		return nil, errors.New("tokenizer word_index is empty")
	}

	tok := &Tokenizer{
		wordIndex: wordIndex,
		filters:   defaultFilters,
		lower:     true,
		split:     " ",
	}
	if cfg.NumWords != nil {
		tok.numWords = *cfg.NumWords
	}
	if cfg.Filters != nil {
		tok.filters = *cfg.Filters
	}
	if cfg.Lower != nil {
		tok.lower = *cfg.Lower
	}
	if cfg.Split != nil && *cfg.Split != "" {
		tok.split = *cfg.Split
	}
	if cfg.OOVToken != nil {
		tok.oovIndex = wordIndex[*cfg.OOVToken]
	}
	return tok, nil
}

func decodeWordIndex(raw json.RawMessage) (map[string]int, error) {
	if len(raw) == 0 {
		return nil, errors.New("tokenizer word_index missing")
	}
	var idx map[string]int
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("decode word_index string: %w", err)
		}
		raw = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("decode word_index: %w", err)
	}
	return idx, nil
}

// Words splits text the way the tokenizer was fitted.
func (t *Tokenizer) Words(text string) []string {
	if t.lower {
		text = strings.ToLower(text)
	}
	if t.filters != "" {
		text = strings.Map(func(r rune) rune {
			if strings.ContainsRune(t.filters, r) {
				return ' '
			}
			return r
		}, text)
	}
	parts := strings.Split(text, t.split)
	out := parts[:0]
	for _, p := range parts {
		// the split string is usually a single space; other whitespace is kept by Keras
		// but never present in a fitted vocabulary, so it is trimmed here
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sequence converts text to word indices. Words outside the num_words budget or unknown
// words map to the OOV index when one is configured and are dropped otherwise.
func (t *Tokenizer) Sequence(text string) []int {
	words := t.Words(text)
	seq := make([]int, 0, len(words))
	for _, w := range words {
		idx, ok := t.wordIndex[w]
		switch {
		case ok && (t.numWords <= 0 || idx < t.numWords):
			seq = append(seq, idx)
		case t.oovIndex > 0:
			seq = append(seq, t.oovIndex)
		}
	}
	return seq
}

// Side selects where padding or truncation happens.
type Side string

const (
	SidePre  Side = "pre"
	SidePost Side = "post"
)

// Pad fits seq to exactly maxLen entries, filling with zeros.
func Pad(seq []int, maxLen int, padding, truncating Side) []int {
	if maxLen <= 0 {
		return seq
	}
	if len(seq) > maxLen {
		if truncating == SidePost {
			seq = seq[:maxLen]
		} else {
			seq = seq[len(seq)-maxLen:]
		}
	}
	out := make([]int, maxLen)
	if padding == SidePost {
		copy(out, seq)
	} else {
		copy(out[maxLen-len(seq):], seq)
	}
	return out
}

// Vectorizer turns text into the fixed-length index sequence a model expects.
type Vectorizer struct {
	Tokenizer  *Tokenizer
	MaxLen     int
	Padding    Side
	Truncating Side
	// ClipMax bounds indices to the model's embedding range; zero disables clipping.
	ClipMax int
	// Clean is applied to the text before tokenization.
	Clean func(string) string
}

// Vectorize returns the padded index sequence for text.
func (v Vectorizer) Vectorize(text string) []int {
	if v.Clean != nil {
		text = v.Clean(text)
	}
	seq := Pad(v.Tokenizer.Sequence(text), v.MaxLen, v.Padding, v.Truncating)
	if v.ClipMax > 0 {
		for i, idx := range seq {
			if idx > v.ClipMax {
				seq[i] = v.ClipMax
			}
		}
	}
	return seq
}

var (
	urlPattern     = regexp.MustCompile(`https?\S+|www\S+`)
	mentionPattern = regexp.MustCompile(`@w+|#`)
	nonLetter      = regexp.MustCompile(`[^a-zA-Z]`)
)

// CleanSocialText strips links, "@w" runs, hashtag markers and non-letters, then lower-cases,
// matching the preprocessing the hate-speech model was trained with. Mention names are kept:
// the training pattern only ever removed a literal "@w+".
func CleanSocialText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = nonLetter.ReplaceAllString(text, " ")
	return strings.ToLower(text)
}
