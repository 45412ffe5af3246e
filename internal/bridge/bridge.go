// Package bridge translates shortcut operations into invocations of the
// host's Shortcuts command-line runner. Every call spawns an independent
// process; nothing is cached between calls.
package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/shortcuts/internal/metrics"
	"github.com/deixis/shortcuts/internal/runner"
	"go.uber.org/zap"
)

// CommandRunner executes a single process invocation.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, req runner.Request) (*runner.Result, error)
}

// Bridge invokes the Shortcuts runner binary.
type Bridge struct {
	Runner      CommandRunner
	Binary      string        // runner executable, e.g. "shortcuts"
	ListTimeout time.Duration // enumeration calls
	RunTimeout  time.Duration // shortcut execution
	Logger      *zap.SugaredLogger
	Metrics     *metrics.Metrics // may be nil
}

// Shortcut is a named automation known to the runner.
type Shortcut struct {
	Name   string `json:"name"`
	Folder string `json:"folder,omitempty"`
}

// RunOptions carries the optional inputs to RunShortcut.
type RunOptions struct {
	Input      string // piped to stdin when InputFile is empty
	InputFile  string // passed as --input-path
	OutputType string // passed as --output-type, e.g. public.plain-text
}

// RunResult is the outcome of RunShortcut. Output is set on success and
// Error on failure.
type RunResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Details is the outcome of GetShortcutDetails.
type Details struct {
	Exists bool   `json:"exists"`
	Name   string `json:"name"`
	Error  string `json:"error,omitempty"`
}

// Fallback messages used when the runner produces no text.
const (
	completedMessage = "Shortcut completed successfully"
	notFoundMessage  = "Shortcut not found"
)

// ListShortcuts returns every shortcut the runner knows about, in the
// runner's order.
func (b *Bridge) ListShortcuts(ctx context.Context) ([]Shortcut, error) {
	lines, err := b.enumerate(ctx, "list shortcuts", "list", "list")
	if err != nil {
		return nil, err
	}
	shortcuts := make([]Shortcut, 0, len(lines))
	for _, name := range lines {
		shortcuts = append(shortcuts, Shortcut{Name: name})
	}
	return shortcuts, nil
}

// ListFolders returns the shortcut folders. Older runners do not support
// folders, so any failure yields an empty list.
func (b *Bridge) ListFolders(ctx context.Context) []string {
	folders, err := b.enumerate(ctx, "list folders", "list_folders", "list", "--folders")
	if err != nil {
		b.logger().Debugw("folder listing unavailable", "error", err)
		return []string{}
	}
	return folders
}

// SearchShortcuts returns the shortcuts whose names contain query,
// ignoring case.
func (b *Bridge) SearchShortcuts(ctx context.Context, query string) ([]Shortcut, error) {
	shortcuts, err := b.ListShortcuts(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	matches := make([]Shortcut, 0)
	for _, s := range shortcuts {
		if strings.Contains(strings.ToLower(s.Name), q) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

// GetShortcutDetails reports whether a shortcut named name exists,
// ignoring case. A listing failure is reported in Details.Error.
func (b *Bridge) GetShortcutDetails(ctx context.Context, name string) Details {
	shortcuts, err := b.ListShortcuts(ctx)
	if err != nil {
		return Details{Exists: false, Name: name, Error: err.Error()}
	}
	for _, s := range shortcuts {
		if strings.EqualFold(s.Name, name) {
			return Details{Exists: true, Name: s.Name}
		}
	}
	return Details{Exists: false, Name: name, Error: notFoundMessage}
}

// RunShortcut executes the named shortcut. It never returns an error:
// spawn failures, non-zero exits and timeouts are all reported in the
// result.
func (b *Bridge) RunShortcut(ctx context.Context, name string, opts RunOptions) RunResult {
	argv := []string{b.binary(), "run", name}
	if opts.InputFile != "" {
		argv = append(argv, "--input-path", opts.InputFile)
	}
	if opts.OutputType != "" {
		argv = append(argv, "--output-type", opts.OutputType)
	}

	req := runner.Request{Argv: argv, Timeout: b.RunTimeout}
	if opts.Input != "" && opts.InputFile == "" {
		req.Stdin = strings.NewReader(opts.Input)
	}

	start := time.Now()
	res, err := b.Runner.Run(ctx, req)
	if err != nil {
		b.Metrics.ObserveProcess("run", metrics.OutcomeSpawnError, time.Since(start))
		b.logger().Warnw("shortcut failed to start", "shortcut", name, "error", err)
		return RunResult{Success: false, Error: err.Error()}
	}
	b.Metrics.ObserveProcess("run", processOutcome(res), res.Duration)

	if res.Success() {
		out := strings.TrimSpace(string(res.Stdout))
		if out == "" {
			out = completedMessage
		}
		return RunResult{Success: true, Output: out}
	}

	msg := strings.TrimSpace(string(res.Stderr))
	if msg == "" {
		if res.TimedOut {
			msg = fmt.Sprintf("Shortcut timed out after %s", appliedTimeout(res, b.RunTimeout))
		} else {
			msg = fmt.Sprintf("Shortcut exited with code %d", res.ExitCode)
		}
	}
	b.logger().Infow("shortcut failed",
		"shortcut", name,
		"run_id", res.RunID,
		"exit_code", res.ExitCode,
		"timed_out", res.TimedOut,
	)
	return RunResult{Success: false, Error: msg}
}

// enumerate runs the binary with args under the list timeout and returns
// the non-empty, trimmed lines of its stdout.
func (b *Bridge) enumerate(ctx context.Context, op, command string, args ...string) ([]string, error) {
	argv := append([]string{b.binary()}, args...)

	start := time.Now()
	res, err := b.Runner.Run(ctx, runner.Request{Argv: argv, Timeout: b.ListTimeout})
	if err != nil {
		b.Metrics.ObserveProcess(command, metrics.OutcomeSpawnError, time.Since(start))
		return nil, &ExecutionError{Op: op, Err: err}
	}
	b.Metrics.ObserveProcess(command, processOutcome(res), res.Duration)

	switch {
	case res.TimedOut:
		return nil, &ExecutionError{Op: op, Err: fmt.Errorf("%s timed out after %s", strings.Join(argv, " "), appliedTimeout(res, b.ListTimeout))}
	case res.Truncated:
		return nil, &ExecutionError{Op: op, Err: ErrOutputLimit}
	case res.ExitCode != 0:
		cause := fmt.Errorf("%s exited with code %d", strings.Join(argv, " "), res.ExitCode)
		if stderr := strings.TrimSpace(string(res.Stderr)); stderr != "" {
			cause = fmt.Errorf("%w: %s", cause, stderr)
		}
		return nil, &ExecutionError{Op: op, Err: cause}
	}

	return splitLines(string(res.Stdout)), nil
}

func (b *Bridge) binary() string {
	if b.Binary == "" {
		return "shortcuts"
	}
	return b.Binary
}

func (b *Bridge) logger() *zap.SugaredLogger {
	if b.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return b.Logger
}

// splitLines returns the trimmed, non-empty lines of s in order.
func splitLines(s string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func processOutcome(res *runner.Result) string {
	switch {
	case res.TimedOut:
		return metrics.OutcomeTimeout
	case res.ExitCode != 0:
		return metrics.OutcomeExitError
	default:
		return metrics.OutcomeOK
	}
}

// appliedTimeout returns the timeout the runner enforced, falling back to
// the configured one when the runner did not report it.
func appliedTimeout(res *runner.Result, configured time.Duration) time.Duration {
	if res.Timeout > 0 {
		return res.Timeout
	}
	return configured
}
