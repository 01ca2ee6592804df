package toolexec

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestExecRunnerCapturesStdout(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	out, err := ExecRunner{}.Run(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExecRunnerReportsFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	_, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Stderr != "broken" {
		t.Fatalf("expected stderr tail, got %q", exitErr.Stderr)
	}
}

func TestExecRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (ExecRunner{}).Run(ctx, "sh", "-c", "sleep 5"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecRunnerEmptyName(t *testing.T) {
	if _, err := (ExecRunner{}).Run(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty program name")
	}
}
