// Package dispatch maps named tool operations onto bridge calls. It
// validates arguments, serializes results as indented JSON, and turns every
// failure into an error response at its boundary.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/shortcuts/internal/bridge"
	"github.com/deixis/shortcuts/internal/metrics"
	"go.uber.org/zap"
)

// Operation names, as exposed to protocol clients.
const (
	OpList        = "shortcuts_list"
	OpListFolders = "shortcuts_list_folders"
	OpSearch      = "shortcuts_search"
	OpRun         = "shortcuts_run"
	OpExists      = "shortcuts_exists"
)

// Operations lists every recognised operation in registration order.
var Operations = []string{OpList, OpListFolders, OpSearch, OpRun, OpExists}

// metricLabel returns op, or "unknown" for names outside Operations so
// that client-supplied names cannot grow the label set.
func metricLabel(op string) string {
	for _, known := range Operations {
		if op == known {
			return op
		}
	}
	return "unknown"
}

// Bridge is the subset of bridge.Bridge the dispatcher needs.
type Bridge interface {
	ListShortcuts(ctx context.Context) ([]bridge.Shortcut, error)
	ListFolders(ctx context.Context) []string
	SearchShortcuts(ctx context.Context, query string) ([]bridge.Shortcut, error)
	RunShortcut(ctx context.Context, name string, opts bridge.RunOptions) bridge.RunResult
	GetShortcutDetails(ctx context.Context, name string) bridge.Details
}

// Dispatcher routes operations to the bridge.
type Dispatcher struct {
	Bridge  Bridge
	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics // may be nil
}

// Response is the text payload returned to the caller.
type Response struct {
	Text    string
	IsError bool
}

// Handle dispatches op and always returns a response. Errors, including
// panics raised below the dispatcher, become "Error: <message>" responses.
func (d *Dispatcher) Handle(ctx context.Context, op string, args map[string]any) (resp Response) {
	start := time.Now()
	log := d.logger().With("tool", op)

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("tool panicked", "panic", r)
			resp = Response{Text: fmt.Sprintf("Error: internal error: %v", r), IsError: true}
		}

		outcome := metrics.OutcomeOK
		if resp.IsError {
			outcome = metrics.OutcomeError
		}
		d.Metrics.ObserveToolCall(metricLabel(op), outcome, time.Since(start))
		log.Infow("tool call", "outcome", outcome, "duration", time.Since(start))
	}()

	text, err := d.Dispatch(ctx, op, args)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			log.Warnw("invalid arguments", "error", err)
		}
		return Response{Text: "Error: " + err.Error(), IsError: true}
	}
	return Response{Text: text}
}

// Dispatch validates args for op, calls the bridge, and returns the
// serialized result.
func (d *Dispatcher) Dispatch(ctx context.Context, op string, args map[string]any) (string, error) {
	switch op {
	case OpList:
		shortcuts, err := d.Bridge.ListShortcuts(ctx)
		if err != nil {
			return "", err
		}
		return encode(listResult{Count: len(shortcuts), Shortcuts: shortcutNames(shortcuts)})

	case OpListFolders:
		return encode(foldersResult{Folders: nonNil(d.Bridge.ListFolders(ctx))})

	case OpSearch:
		query, err := requiredString(args, "query")
		if err != nil {
			return "", err
		}
		shortcuts, err := d.Bridge.SearchShortcuts(ctx, query)
		if err != nil {
			return "", err
		}
		return encode(searchResult{Query: query, Count: len(shortcuts), Shortcuts: shortcutNames(shortcuts)})

	case OpRun:
		name, err := requiredString(args, "name")
		if err != nil {
			return "", err
		}
		var opts bridge.RunOptions
		if opts.Input, err = optionalString(args, "input"); err != nil {
			return "", err
		}
		if opts.InputFile, err = optionalString(args, "input_file"); err != nil {
			return "", err
		}
		if opts.OutputType, err = optionalString(args, "output_type"); err != nil {
			return "", err
		}
		return encode(d.Bridge.RunShortcut(ctx, name, opts))

	case OpExists:
		name, err := requiredString(args, "name")
		if err != nil {
			return "", err
		}
		return encode(d.Bridge.GetShortcutDetails(ctx, name))

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

func (d *Dispatcher) logger() *zap.SugaredLogger {
	if d.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return d.Logger
}

type listResult struct {
	Count     int      `json:"count"`
	Shortcuts []string `json:"shortcuts"`
}

type foldersResult struct {
	Folders []string `json:"folders"`
}

type searchResult struct {
	Query     string   `json:"query"`
	Count     int      `json:"count"`
	Shortcuts []string `json:"shortcuts"`
}

// encode renders v as two-space indented JSON without HTML escaping, so
// names such as "Q&A" survive verbatim.
func encode(v any) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func shortcutNames(shortcuts []bridge.Shortcut) []string {
	out := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		out = append(out, s.Name)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
