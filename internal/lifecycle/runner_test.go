package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"govinv/internal/config"
	"govinv/internal/errors"
	"govinv/internal/slogutil"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "maintenance.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newShellRunner(t *testing.T, body string, timeout time.Duration) *ExecRunner {
	script := writeScript(t, body)
	r := NewExecRunner(config.LifecycleConfig{
		Interpreter:  "sh",
		Script:       script,
		WorkDir:      filepath.Dir(script),
		FailOnStderr: true,
	}, slogutil.NewDiscardLogger())
	if timeout > 0 {
		r.Timeout = timeout
	}
	return r
}

func TestExecRunnerSuccess(t *testing.T) {
	r := newShellRunner(t, `echo "args: $@"
echo "Found 2 deprecated components"
`, 0)
	inv, err := r.Run(context.Background(), []string{FlagDetectOnly})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(inv.Stdout, "args: --detect-only") {
		t.Errorf("Stdout = %q, want the mode flag echoed", inv.Stdout)
	}
	if got := ParseDetection(inv.Stdout).TotalCount; got != 2 {
		t.Errorf("TotalCount = %d, want 2", got)
	}
}

func TestExecRunnerWithoutInterpreter(t *testing.T) {
	script := writeScript(t, "echo \"direct $1\"\n")
	r := NewExecRunner(config.LifecycleConfig{Script: script, FailOnStderr: true}, slogutil.NewDiscardLogger())
	inv, err := r.Run(context.Background(), []string{FlagHealthOnly})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(inv.Stdout); got != "direct --health-only" {
		t.Errorf("Stdout = %q, want the script run directly", got)
	}
}

func TestExecRunnerWorkDir(t *testing.T) {
	r := newShellRunner(t, "pwd\n", 0)
	inv, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(r.WorkDir)
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(inv.Stdout))
	if got != want {
		t.Errorf("working directory = %q, want %q", got, want)
	}
}

func TestExecRunnerFailures(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		timeout      time.Duration
		failOnStderr bool
		wantExit     int
		wantTimeout  bool
	}{
		{"non-zero exit", "echo partial\nexit 3\n", 0, true, 3, false},
		{"timeout", "sleep 5\n", 100 * time.Millisecond, true, -1, true},
		{"stderr output", "echo warning >&2\n", 0, true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newShellRunner(t, tt.body, tt.timeout)
			r.FailOnStderr = tt.failOnStderr
			_, err := r.Run(context.Background(), []string{FlagHealthOnly})
			ge, ok := errors.As(err)
			if !ok || ge.Code != errors.SubprocessFailed {
				t.Fatalf("Run() error = %v, want %s", err, errors.SubprocessFailed)
			}
			d, ok := ge.Details.(errors.SubprocessDetails)
			if !ok {
				t.Fatalf("Details = %T, want SubprocessDetails", ge.Details)
			}
			if d.ExitCode != tt.wantExit {
				t.Errorf("ExitCode = %d, want %d", d.ExitCode, tt.wantExit)
			}
			if d.TimedOut != tt.wantTimeout {
				t.Errorf("TimedOut = %v, want %v", d.TimedOut, tt.wantTimeout)
			}
			if len(d.Args) != 1 || d.Args[0] != FlagHealthOnly {
				t.Errorf("Args = %v", d.Args)
			}
		})
	}
}

func TestExecRunnerStderrTolerated(t *testing.T) {
	r := newShellRunner(t, "echo warning >&2\necho done\n", 0)
	r.FailOnStderr = false
	inv, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(inv.Stderr) != "warning" {
		t.Errorf("Stderr = %q, want %q", inv.Stderr, "warning")
	}
}

func TestExecRunnerMissingInterpreter(t *testing.T) {
	r := newShellRunner(t, "echo hi\n", 0)
	r.Interpreter = filepath.Join(t.TempDir(), "no-such-interpreter")
	_, err := r.Run(context.Background(), nil)
	if errors.CodeOf(err) != errors.SubprocessFailed {
		t.Errorf("CodeOf(err) = %v, want %v", errors.CodeOf(err), errors.SubprocessFailed)
	}
}

func TestNewExecRunnerDefaultTimeout(t *testing.T) {
	r := NewExecRunner(config.LifecycleConfig{Script: "x"}, slogutil.NewDiscardLogger())
	if r.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", r.Timeout, DefaultTimeout)
	}
}
