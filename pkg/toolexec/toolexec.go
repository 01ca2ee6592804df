// Package toolexec runs external command-line tools (tesseract, yt-dlp, ffmpeg).
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a program and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec. The process is killed when ctx is done.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("toolexec: program name is empty")
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", name, ctxErr)
		}
		return nil, &ExitError{Program: name, Err: err, Stderr: tail(stderr.String())}
	}
	return stdout.Bytes(), nil
}

// ExitError reports a failed run with the tail of its stderr.
type ExitError struct {
	Program string
	Err     error
	Stderr  string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Program, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Program, e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

func tail(s string) string {
	const maxLen = 512
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		return "..." + s[len(s)-maxLen:]
	}
	return s
}
