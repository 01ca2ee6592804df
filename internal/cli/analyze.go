package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Skshirin/factify/internal/app"
	"github.com/Skshirin/factify/internal/domain"
	"github.com/Skshirin/factify/internal/pipeline"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		spec   app.InputSpec
		upload bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one text, article, image or video",
		Example: `  factify analyze --text "PM announces free electricity for all"
  factify analyze --url https://example.com/story
  factify analyze --image ./screenshot.png
  factify analyze --video ./clip.mp4 --upload
  factify analyze --video-url https://youtu.be/abc123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := spec.Item()
			if upload {
				var f io.Closer
				item, f, err = spec.Upload(afero.NewOsFs())
				if f != nil {
					defer f.Close()
				}
			}
			if err != nil {
				return err
			}
			return withAnalyzer(cmd.Context(), nil, func(ctx context.Context, a *app.Analyzer) error {
				return analyzeOne(ctx, cmd.OutOrStdout(), a, item)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&spec.Text, "text", "", "raw text to analyze")
	f.StringVar(&spec.URL, "url", "", "article URL")
	f.StringVar(&spec.Image, "image", "", "path to an image")
	f.StringVar(&spec.VideoURL, "video-url", "", "video URL (YouTube, Instagram, direct link)")
	f.StringVar(&spec.Video, "video", "", "path to a video file")
	f.BoolVar(&upload, "upload", false, "send the --image or --video file as uploaded bytes instead of a local path")
	cmd.MarkFlagsMutuallyExclusive("text", "url", "image", "video-url", "video")
	cmd.MarkFlagsOneRequired("text", "url", "image", "video-url", "video")
	return cmd
}

// analyzer is the part of app.Analyzer the commands use.
type analyzer interface {
	Analyze(ctx context.Context, input domain.InputItem) (*domain.FinalResponse, error)
	AnalyzeBatch(ctx context.Context, inputs []domain.InputItem) []pipeline.BatchResult
}

// analyzeOne prints the response, or the error envelope followed by errReported.
func analyzeOne(ctx context.Context, w io.Writer, a analyzer, item domain.InputItem) error {
	resp, err := a.Analyze(ctx, item)
	if err == nil {
		return writeJSON(w, resp)
	}

	var env domain.ErrorEnvelope
	var pe *pipeline.PipelineError
	if errors.As(err, &pe) {
		env = pe.Envelope()
	} else {
		env = domain.NewErrorEnvelope("", string(pipeline.StageReceived), err)
	}
	if werr := writeJSON(w, env); werr != nil {
		return errors.Join(err, werr)
	}
	return fmt.Errorf("%w: %s", errReported, strings.TrimSpace(env.Kind))
}
