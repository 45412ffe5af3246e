package bridge

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/deixis/shortcuts/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeRunner returns canned results keyed by the arguments after the binary.
type fakeRunner struct {
	results map[string]*runner.Result
	errs    map[string]error

	calls []runner.Request
	stdin []string
}

func (f *fakeRunner) Run(_ context.Context, req runner.Request) (*runner.Result, error) {
	f.calls = append(f.calls, req)
	in := ""
	if req.Stdin != nil {
		b, _ := io.ReadAll(req.Stdin)
		in = string(b)
	}
	f.stdin = append(f.stdin, in)

	key := strings.Join(req.Argv[1:], " ")
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return &runner.Result{ExitCode: 0}, nil
}

func newFakeBridge(t *testing.T, f *fakeRunner) *Bridge {
	t.Helper()
	return &Bridge{
		Runner:      f,
		Binary:      "shortcuts",
		ListTimeout: 30 * time.Second,
		RunTimeout:  2 * time.Minute,
		Logger:      zaptest.NewLogger(t).Sugar(),
	}
}

func listing(lines string) *fakeRunner {
	return &fakeRunner{results: map[string]*runner.Result{
		"list": {Stdout: []byte(lines)},
	}}
}

func names(shortcuts []Shortcut) []string {
	out := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		out = append(out, s.Name)
	}
	return out
}

// --- ListShortcuts ---

func TestListShortcuts_OneEntryPerLine(t *testing.T) {
	f := listing("Morning Routine\n\n  Resize Image  \nSend ETA\r\n\n")
	b := newFakeBridge(t, f)

	got, err := b.ListShortcuts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Morning Routine", "Resize Image", "Send ETA"}, names(got))

	require.Len(t, f.calls, 1)
	assert.Equal(t, []string{"shortcuts", "list"}, f.calls[0].Argv)
	assert.Equal(t, 30*time.Second, f.calls[0].Timeout)
	assert.Nil(t, f.calls[0].Stdin)
}

func TestListShortcuts_Empty(t *testing.T) {
	b := newFakeBridge(t, listing(""))

	got, err := b.ListShortcuts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListShortcuts_Failures(t *testing.T) {
	spawnErr := errors.New(`executing shortcuts: exec: "shortcuts": executable file not found in $PATH`)
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantErr string
	}{
		{
			name:    "spawn",
			runner:  &fakeRunner{errs: map[string]error{"list": spawnErr}},
			wantErr: "executable file not found",
		},
		{
			name: "exit code",
			runner: &fakeRunner{results: map[string]*runner.Result{
				"list": {ExitCode: 1, Stderr: []byte("permission denied\n")},
			}},
			wantErr: "shortcuts list exited with code 1: permission denied",
		},
		{
			name: "timeout",
			runner: &fakeRunner{results: map[string]*runner.Result{
				"list": {ExitCode: -1, TimedOut: true},
			}},
			wantErr: "timed out after 30s",
		},
		{
			name: "output limit",
			runner: &fakeRunner{results: map[string]*runner.Result{
				"list": {Stdout: []byte("A\nB"), Truncated: true},
			}},
			wantErr: ErrOutputLimit.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBridge(t, tt.runner)
			_, err := b.ListShortcuts(context.Background())
			require.Error(t, err)

			var execErr *ExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, "list shortcuts", execErr.Op)
			assert.True(t, strings.HasPrefix(err.Error(), "failed to list shortcuts: "))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// --- ListFolders ---

func TestListFolders(t *testing.T) {
	f := &fakeRunner{results: map[string]*runner.Result{
		"list --folders": {Stdout: []byte("Work\nHome\n")},
	}}
	b := newFakeBridge(t, f)

	assert.Equal(t, []string{"Work", "Home"}, b.ListFolders(context.Background()))
	assert.Equal(t, []string{"shortcuts", "list", "--folders"}, f.calls[0].Argv)
}

func TestListFolders_FailureIsEmpty(t *testing.T) {
	for name, f := range map[string]*fakeRunner{
		"spawn": {errs: map[string]error{"list --folders": errors.New("not found")}},
		"exit":  {results: map[string]*runner.Result{"list --folders": {ExitCode: 64, Stderr: []byte("unknown option")}}},
	} {
		t.Run(name, func(t *testing.T) {
			got := newFakeBridge(t, f).ListFolders(context.Background())
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

// --- SearchShortcuts ---

func TestSearchShortcuts(t *testing.T) {
	b := newFakeBridge(t, listing("ABC Daily\nxyz\nlabcoat\nAbc\n"))

	got, err := b.SearchShortcuts(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC Daily", "labcoat", "Abc"}, names(got))
}

func TestSearchShortcuts_MatchAllAndNone(t *testing.T) {
	b := newFakeBridge(t, listing("One\nTwo\nThree\n"))

	all, err := b.SearchShortcuts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two", "Three"}, names(all))

	none, err := b.SearchShortcuts(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSearchShortcuts_ListFailure(t *testing.T) {
	f := &fakeRunner{errs: map[string]error{"list": errors.New("boom")}}
	_, err := newFakeBridge(t, f).SearchShortcuts(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list shortcuts: boom")
}

// --- GetShortcutDetails ---

func TestGetShortcutDetails_CaseInsensitive(t *testing.T) {
	b := newFakeBridge(t, listing("Foo\nBar\n"))

	upper := b.GetShortcutDetails(context.Background(), "Foo")
	lower := b.GetShortcutDetails(context.Background(), "foo")

	assert.Equal(t, Details{Exists: true, Name: "Foo"}, upper)
	assert.Equal(t, upper.Exists, lower.Exists)
	assert.Equal(t, "Foo", lower.Name)
}

func TestGetShortcutDetails_SubstringIsNotMatch(t *testing.T) {
	b := newFakeBridge(t, listing("Foobar\n"))

	got := b.GetShortcutDetails(context.Background(), "foo")
	assert.Equal(t, Details{Exists: false, Name: "foo", Error: "Shortcut not found"}, got)
}

func TestGetShortcutDetails_ListFailure(t *testing.T) {
	f := &fakeRunner{errs: map[string]error{"list": errors.New("boom")}}
	got := newFakeBridge(t, f).GetShortcutDetails(context.Background(), "Foo")

	assert.False(t, got.Exists)
	assert.Equal(t, "Foo", got.Name)
	assert.Equal(t, "failed to list shortcuts: boom", got.Error)
}

// --- RunShortcut ---

func TestRunShortcut_Arguments(t *testing.T) {
	tests := []struct {
		name      string
		opts      RunOptions
		wantArgv  []string
		wantStdin string
	}{
		{
			name:     "bare",
			wantArgv: []string{"shortcuts", "run", "My Shortcut"},
		},
		{
			name:      "input",
			opts:      RunOptions{Input: "hello"},
			wantArgv:  []string{"shortcuts", "run", "My Shortcut"},
			wantStdin: "hello",
		},
		{
			name:     "input file wins over input",
			opts:     RunOptions{Input: "ignored", InputFile: "/tmp/in.txt"},
			wantArgv: []string{"shortcuts", "run", "My Shortcut", "--input-path", "/tmp/in.txt"},
		},
		{
			name: "all options",
			opts: RunOptions{InputFile: "/tmp/in.txt", OutputType: "public.json"},
			wantArgv: []string{
				"shortcuts", "run", "My Shortcut",
				"--input-path", "/tmp/in.txt",
				"--output-type", "public.json",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRunner{}
			b := newFakeBridge(t, f)
			b.RunShortcut(context.Background(), "My Shortcut", tt.opts)

			require.Len(t, f.calls, 1)
			assert.Equal(t, tt.wantArgv, f.calls[0].Argv)
			assert.Equal(t, 2*time.Minute, f.calls[0].Timeout)
			assert.Equal(t, tt.wantStdin, f.stdin[0])
			if tt.wantStdin == "" {
				assert.Nil(t, f.calls[0].Stdin)
			}
		})
	}
}

func TestRunShortcut_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		result *runner.Result
		err    error
		want   RunResult
	}{
		{
			name:   "output",
			result: &runner.Result{Stdout: []byte("Done\n")},
			want:   RunResult{Success: true, Output: "Done"},
		},
		{
			name:   "empty output",
			result: &runner.Result{Stdout: []byte("  \n")},
			want:   RunResult{Success: true, Output: "Shortcut completed successfully"},
		},
		{
			name:   "exit code without stderr",
			result: &runner.Result{ExitCode: 1},
			want:   RunResult{Success: false, Error: "Shortcut exited with code 1"},
		},
		{
			name:   "exit code with stderr",
			result: &runner.Result{ExitCode: 2, Stdout: []byte("partial"), Stderr: []byte(" not allowed \n")},
			want:   RunResult{Success: false, Error: "not allowed"},
		},
		{
			name:   "timeout",
			result: &runner.Result{ExitCode: -1, TimedOut: true},
			want:   RunResult{Success: false, Error: "Shortcut timed out after 2m0s"},
		},
		{
			name:   "timeout reported by runner",
			result: &runner.Result{ExitCode: -1, TimedOut: true, Timeout: 45 * time.Second},
			want:   RunResult{Success: false, Error: "Shortcut timed out after 45s"},
		},
		{
			name: "spawn failure",
			err:  errors.New(`executing shortcuts: exec: "shortcuts": executable file not found in $PATH`),
			want: RunResult{Success: false, Error: `executing shortcuts: exec: "shortcuts": executable file not found in $PATH`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRunner{
				results: map[string]*runner.Result{"run Thing": tt.result},
				errs:    map[string]error{},
			}
			if tt.err != nil {
				f.errs["run Thing"] = tt.err
			}
			got := newFakeBridge(t, f).RunShortcut(context.Background(), "Thing", RunOptions{})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{}, splitLines(""))
	assert.Equal(t, []string{}, splitLines("\n \n\t\n"))
	assert.Equal(t, []string{"a", "b c"}, splitLines(" a \r\n\nb c"))
}
