package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Adapter kinds accepted in the models file.
const (
	KindTransformer = "transformer"
	KindSequence    = "sequence"
	KindToxicity    = "toxicity"
)

// Output encodings a model endpoint may return.
const (
	OutputFormatProbabilities = "probabilities"
	OutputFormatLogits        = "logits"
)

const (
	defaultSequenceMaxLen = 200
	defaultToxicityMaxLen = 100
	defaultModelTimeout   = 15 * time.Second
)

// Definition describes one model endpoint as configured in models.yaml/models.json.
type Definition struct {
	Name           string            `json:"name" yaml:"name"`
	Kind           string            `json:"kind" yaml:"kind"`
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Tokenizer      string            `json:"tokenizer" yaml:"tokenizer"`
	MaxLen         int               `json:"max_len" yaml:"max_len"`
	Padding        string            `json:"padding" yaml:"padding"`
	Truncating     string            `json:"truncating" yaml:"truncating"`
	ClipMax        int               `json:"clip_max" yaml:"clip_max"`
	Output         string            `json:"output" yaml:"output"`
	Labels         []string          `json:"labels" yaml:"labels"`
	Enabled        *bool             `json:"enabled" yaml:"enabled"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// IsEnabled reports whether the entry takes part in inference; entries are on unless disabled.
func (d Definition) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Timeout returns the per-request deadline for the endpoint.
func (d Definition) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return defaultModelTimeout
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Registry is the parsed models file. Models keeps file order, which is the ensemble priority.
type Registry struct {
	Models   []Definition `json:"models" yaml:"models"`
	Toxicity *Definition  `json:"toxicity" yaml:"toxicity"`
}

// LoadRegistry reads and validates a models file. Relative tokenizer paths are resolved
// against the file's directory.
func LoadRegistry(path string) (Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Registry{}, errors.New("models file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return Registry{}, fmt.Errorf("open models file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return Registry{}, fmt.Errorf("read models file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return Registry{}, err
	}
	if err := reg.normalize(filepath.Dir(path)); err != nil {
		return Registry{}, err
	}
	return reg, nil
}

func parseRegistry(data []byte, ext string) (Registry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		reg, err := unmarshalRegistry(d.name, data, d.fn)
		if err == nil {
			return reg, nil
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Registry{}, errors.Join(errs...)
	}
	return Registry{}, errors.New("models file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (Registry, error) {
	var reg Registry
	if err := fn(data, &reg); err != nil {
		return Registry{}, fmt.Errorf("decode %s models: %w", name, err)
	}
	return reg, nil
}

func (r *Registry) normalize(baseDir string) error {
	if len(r.Models) == 0 {
		return errors.New("models file contains no models entries")
	}

	seen := make(map[string]struct{}, len(r.Models))
	for i := range r.Models {
		d := sanitizeDefinition(r.Models[i], baseDir)
		if err := validateDefinition(d); err != nil {
			return fmt.Errorf("models[%d]: %w", i, err)
		}
		if d.Kind == KindToxicity {
			return fmt.Errorf("models[%d]: toxicity model %q belongs under the toxicity key", i, d.Name)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate model name %q", d.Name)
		}
		seen[d.Name] = struct{}{}
		r.Models[i] = d
	}

	if r.Toxicity != nil {
		d := sanitizeDefinition(*r.Toxicity, baseDir)
		if d.Kind == "" {
			d.Kind = KindToxicity
		}
		if d.MaxLen == 0 {
			d.MaxLen = defaultToxicityMaxLen
		}
		if d.Padding == "" {
			d.Padding = string(SidePost)
		}
		if d.Truncating == "" {
			d.Truncating = string(SidePost)
		}
		if len(d.Labels) == 0 {
			d.Labels = []string{"Hate Speech", "Offensive Language", "Neither"}
		}
		if err := validateDefinition(d); err != nil {
			return fmt.Errorf("toxicity: %w", err)
		}
		r.Toxicity = &d
	}
	return nil
}

func sanitizeDefinition(d Definition, baseDir string) Definition {
	d.Name = strings.TrimSpace(d.Name)
	d.Kind = strings.ToLower(strings.TrimSpace(d.Kind))
	d.Endpoint = strings.TrimSpace(d.Endpoint)
	d.Tokenizer = strings.TrimSpace(d.Tokenizer)
	d.Padding = strings.ToLower(strings.TrimSpace(d.Padding))
	d.Truncating = strings.ToLower(strings.TrimSpace(d.Truncating))
	d.Output = strings.ToLower(strings.TrimSpace(d.Output))

	if d.Tokenizer != "" && !filepath.IsAbs(d.Tokenizer) && baseDir != "" {
		d.Tokenizer = filepath.Join(baseDir, d.Tokenizer)
	}
	if d.Kind == KindSequence {
		if d.MaxLen == 0 {
			d.MaxLen = defaultSequenceMaxLen
		}
		if d.Padding == "" {
			d.Padding = string(SidePre)
		}
		if d.Truncating == "" {
			d.Truncating = string(SidePre)
		}
	}
	if d.Output == "" {
		if d.Kind == KindTransformer {
			d.Output = OutputFormatLogits
		} else {
			d.Output = OutputFormatProbabilities
		}
	}
	if d.Headers == nil {
		d.Headers = map[string]string{}
	}
	return d
}

func validateDefinition(d Definition) error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.Endpoint == "" {
		return fmt.Errorf("endpoint is required for model %q", d.Name)
	}
	switch d.Kind {
	case KindTransformer:
	case KindSequence, KindToxicity:
		if d.Tokenizer == "" {
			return fmt.Errorf("tokenizer is required for %s model %q", d.Kind, d.Name)
		}
		if d.MaxLen < 0 {
			return fmt.Errorf("max_len must be positive for model %q", d.Name)
		}
		if !validSide(d.Padding) || !validSide(d.Truncating) {
			return fmt.Errorf("padding/truncating must be pre or post for model %q", d.Name)
		}
	case "":
		return fmt.Errorf("kind is required for model %q", d.Name)
	default:
		return fmt.Errorf("unsupported kind %q for model %q", d.Kind, d.Name)
	}
	switch d.Output {
	case OutputFormatProbabilities, OutputFormatLogits:
	default:
		return fmt.Errorf("unsupported output %q for model %q", d.Output, d.Name)
	}
	if d.ClipMax < 0 {
		return fmt.Errorf("clip_max must not be negative for model %q", d.Name)
	}
	return nil
}

func validSide(s string) bool {
	return s == string(SidePre) || s == string(SidePost)
}
