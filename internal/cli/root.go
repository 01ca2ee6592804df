// Package cli exposes the analyzer as the factify command.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var flagPretty bool

// errReported marks failures whose envelope was already written to stdout.
var errReported = errors.New("analysis failed")

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "factify",
		Short:         "Fake-news verification pipeline",
		Long:          "factify extracts text from articles, images and videos, classifies it with a model ensemble and cross-checks claims against fact-check services.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagPretty, "pretty", false, "indent JSON output")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "factify %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "factify: %v\n", err)
		}
		os.Exit(1)
	}
}

// SetVersionInfo is called from main with build-time values.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func writeJSON(w io.Writer, v any) error {
	enc := newEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
