package lifecycle

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"govinv/internal/config"
	"govinv/internal/errors"
)

// DefaultTimeout bounds a maintenance invocation when none is configured.
const DefaultTimeout = 5 * time.Minute

// Invocation is the captured outcome of one maintenance process run.
type Invocation struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes the maintenance process with the given mode flags.
// Implementations return a SubprocessFailed error for any unsuccessful run.
type Runner interface {
	Run(ctx context.Context, args []string) (*Invocation, error)
}

// ExecRunner runs `<interpreter> <script> <args...>` as a child process.
type ExecRunner struct {
	Interpreter  string
	Script       string
	WorkDir      string
	Timeout      time.Duration
	FailOnStderr bool

	logger *slog.Logger
}

// NewExecRunner builds a runner from the lifecycle configuration section.
func NewExecRunner(cfg config.LifecycleConfig, logger *slog.Logger) *ExecRunner {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{
		Interpreter:  cfg.Interpreter,
		Script:       cfg.Script,
		WorkDir:      cfg.WorkDir,
		Timeout:      timeout,
		FailOnStderr: cfg.FailOnStderr,
		logger:       logger,
	}
}

func (r *ExecRunner) command() (string, []string) {
	if r.Interpreter == "" {
		return r.Script, nil
	}
	return r.Interpreter, []string{r.Script}
}

// Run starts the process and waits for it under the configured timeout.
// The call is never retried.
func (r *ExecRunner) Run(ctx context.Context, args []string) (*Invocation, error) {
	if r.Script == "" {
		return nil, errors.NewSubprocessFailed("maintenance script not configured", nil,
			errors.SubprocessDetails{Args: args, ExitCode: -1})
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	name, prefix := r.command()
	cmd := exec.CommandContext(ctx, name, append(prefix, args...)...)
	cmd.Dir = r.WorkDir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	r.logger.Debug("Starting maintenance process",
		"command", name,
		"args", strings.Join(args, " "),
		"workDir", r.WorkDir,
	)
	runErr := cmd.Run()

	inv := &Invocation{
		Args:     args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	details := func() errors.SubprocessDetails {
		return errors.SubprocessDetails{
			Args:     args,
			ExitCode: inv.ExitCode,
			TimedOut: stderrors.Is(ctx.Err(), context.DeadlineExceeded),
			Stdout:   inv.Stdout,
			Stderr:   inv.Stderr,
		}
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
			inv.ExitCode = -1
			r.logger.Warn("Maintenance process timed out", "timeout", r.Timeout, "args", strings.Join(args, " "))
			return nil, errors.NewSubprocessFailed(
				fmt.Sprintf("maintenance process timed out after %s", r.Timeout), runErr, details())
		case ctx.Err() != nil:
			inv.ExitCode = -1
			return nil, errors.NewSubprocessFailed("maintenance process cancelled", ctx.Err(), details())
		case stderrors.As(runErr, &exitErr):
			inv.ExitCode = exitErr.ExitCode()
			r.logger.Warn("Maintenance process failed", "exitCode", inv.ExitCode, "args", strings.Join(args, " "))
			return nil, errors.NewSubprocessFailed(
				fmt.Sprintf("maintenance process exited with code %d", inv.ExitCode), runErr, details())
		default:
			inv.ExitCode = -1
			return nil, errors.NewSubprocessFailed("maintenance process could not be started", runErr, details())
		}
	}

	if r.FailOnStderr && strings.TrimSpace(inv.Stderr) != "" {
		r.logger.Warn("Maintenance process wrote to stderr", "args", strings.Join(args, " "))
		return nil, errors.NewSubprocessFailed("maintenance process reported errors on stderr", nil, details())
	}

	r.logger.Debug("Maintenance process finished", "duration", inv.Duration)
	return inv, nil
}
