package cli

import (
	"context"
	"io"

	"github.com/Skshirin/factify/internal/app"
	"github.com/Skshirin/factify/internal/config"
	"github.com/Skshirin/factify/internal/domain"
	"github.com/spf13/cobra"
)

// batchItem is one line of batch output.
type batchItem struct {
	Index  int                   `json:"index"`
	Result *domain.FinalResponse `json:"result,omitempty"`
	Error  *domain.ErrorEnvelope `json:"error,omitempty"`
}

func newBatchCmd() *cobra.Command {
	var parallel int
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Analyze every item of a YAML or JSON inputs file",
		Long:  "batch analyzes independent inputs concurrently and prints one JSON object per item. A failing item is reported in place and never stops the batch.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := app.LoadInputs(args[0])
			if err != nil {
				return err
			}
			configure := func(cfg *config.Config) {
				if parallel > 0 {
					cfg.BatchParallelism = parallel
				}
			}
			return withAnalyzer(cmd.Context(), configure, func(ctx context.Context, a *app.Analyzer) error {
				return runBatch(ctx, cmd.OutOrStdout(), a, specs)
			})
		},
	}
	cmd.Flags().IntVar(&parallel, "parallel", 0, "requests in flight (defaults to batch_parallelism)")
	return cmd
}

// runBatch converts specs, analyzes the valid ones and writes results in input order.
func runBatch(ctx context.Context, w io.Writer, a analyzer, specs []app.InputSpec) error {
	out := make([]batchItem, len(specs))
	items := make([]domain.InputItem, 0, len(specs))
	positions := make([]int, 0, len(specs))

	for i, s := range specs {
		out[i].Index = i
		item, err := s.Item()
		if err != nil {
			env := domain.NewErrorEnvelope("", "received", err)
			out[i].Error = &env
			continue
		}
		items = append(items, item)
		positions = append(positions, i)
	}

	for _, r := range a.AnalyzeBatch(ctx, items) {
		pos := positions[r.Index]
		if r.Err != nil {
			env := r.Envelope()
			out[pos].Error = &env
			continue
		}
		out[pos].Result = r.Response
	}

	enc := newEncoder(w)
	for _, item := range out {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}
