// Package runner provides bounded command execution with timeouts, optional
// standard input, and output size limits.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// waitDelay bounds how long Run waits for output pipes after the process
// has exited or been killed.
const waitDelay = time.Second

// Runner executes commands with a timeout and an output cap.
type Runner struct {
	Timeout   time.Duration
	MaxOutput int // bytes, per stream
	Logger    *zap.SugaredLogger
}

// Request describes a single invocation.
type Request struct {
	// Argv is the command line. The first element is the binary name
	// (resolved via PATH), and the rest are arguments.
	Argv []string
	// Stdin is written to the process's standard input, which is then
	// closed. A nil Stdin leaves the process with no input.
	Stdin io.Reader
	// Timeout overrides Runner.Timeout when positive.
	Timeout time.Duration
}

// Run executes the request and waits for it to exit. A non-zero exit or a
// timeout is reported in the Result; an error is returned only when the
// process could not be started.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}

	timeout := r.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	log := r.logger().With("run_id", runID)

	cmd := exec.CommandContext(ctx, req.Argv[0], req.Argv[1:]...)
	cmd.Stdin = req.Stdin
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	outW := &limitWriter{buf: &stdout, limit: r.MaxOutput}
	errW := &limitWriter{buf: &stderr, limit: r.MaxOutput}
	cmd.Stdout = outW
	cmd.Stderr = errW

	log.Debugw("starting process", "argv", req.Argv, "timeout", timeout)
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil && cmd.ProcessState == nil {
		// Binary not found or other start failure.
		log.Debugw("process failed to start", "error", runErr)
		return nil, fmt.Errorf("executing %s: %w", req.Argv[0], runErr)
	}

	res := &Result{
		RunID:     runID,
		ExitCode:  cmd.ProcessState.ExitCode(),
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Truncated: outW.dropped || errW.dropped,
		TimedOut:  timedOut(ctx, runErr),
		Timeout:   timeout,
		Duration:  elapsed,
	}

	log.Debugw("process exited",
		"exit_code", res.ExitCode,
		"timed_out", res.TimedOut,
		"truncated", res.Truncated,
		"duration", elapsed,
	)
	return res, nil
}

// timedOut reports whether a run was cut short by its deadline. A process
// that exited cleanly counts as finished even if the deadline has since
// passed.
func timedOut(ctx context.Context, runErr error) bool {
	return runErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func (r *Runner) logger() *zap.SugaredLogger {
	if r.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return r.Logger
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
// A non-positive limit disables the cap.
type limitWriter struct {
	buf     *bytes.Buffer
	limit   int
	dropped bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return w.buf.Write(p)
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.dropped = w.dropped || len(p) > 0
		return len(p), nil // discard
	}
	if len(p) > remaining {
		w.dropped = true
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
