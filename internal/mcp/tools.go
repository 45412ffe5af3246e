package mcp

import (
	"context"
	"encoding/json"

	"github.com/deixis/shortcuts/internal/dispatch"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolDef holds the static definition for a shortcuts tool.
type toolDef struct {
	name        string
	description string
	inputSchema map[string]any
}

// objectSchema returns a JSON Schema for an object with the given required fields.
func objectSchema(props map[string]any, required ...string) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// tools defines the tools exposed by the server, in listing order.
var tools = []toolDef{
	{
		name:        dispatch.OpList,
		description: "List all available shortcuts on this Mac.",
		inputSchema: objectSchema(map[string]any{}),
	},
	{
		name:        dispatch.OpListFolders,
		description: "List all shortcut folders.",
		inputSchema: objectSchema(map[string]any{}),
	},
	{
		name:        dispatch.OpSearch,
		description: "Search for shortcuts by name.",
		inputSchema: objectSchema(map[string]any{
			"query": stringProp("Text to search for in shortcut names"),
		}, "query"),
	},
	{
		name: dispatch.OpRun,
		description: `Run a shortcut by name. Can optionally pass input text or a file path.

This is a powerful tool that can trigger any automation the user has created.`,
		inputSchema: objectSchema(map[string]any{
			"name":        stringProp("Name of the shortcut to run (exact match)"),
			"input":       stringProp("Text input to pass to the shortcut (optional)"),
			"input_file":  stringProp("Path to file to use as input (optional)"),
			"output_type": stringProp("Output format: 'public.plain-text', 'public.html', 'public.json', etc. (optional)"),
		}, "name"),
	},
	{
		name:        dispatch.OpExists,
		description: "Check if a shortcut exists by name.",
		inputSchema: objectSchema(map[string]any{
			"name": stringProp("Name of the shortcut to check"),
		}, "name"),
	},
}

// registerTools registers every tool against the dispatcher. Arguments are
// validated by the dispatcher rather than the SDK, so that a missing
// argument yields an error result instead of a protocol error.
func registerTools(s *sdkmcp.Server, d *dispatch.Dispatcher) {
	for _, def := range tools {
		s.AddTool(
			&sdkmcp.Tool{
				Name:        def.name,
				Description: def.description,
				InputSchema: def.inputSchema,
			},
			makeHandler(d, def.name),
		)
	}
	s.AddReceivingMiddleware(unknownToolMiddleware(d))
}

// unknownToolMiddleware answers calls to unregistered tools through the
// dispatcher, so the client gets an error result rather than a protocol
// error.
func unknownToolMiddleware(d *dispatch.Dispatcher) sdkmcp.Middleware {
	known := make(map[string]bool, len(tools))
	for _, def := range tools {
		known[def.name] = true
	}
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			call, ok := req.(*sdkmcp.CallToolRequest)
			if !ok || call.Params == nil || known[call.Params.Name] {
				return next(ctx, method, req)
			}
			return makeHandler(d, call.Params.Name)(ctx, call)
		}
	}
}

// makeHandler returns a ToolHandler that forwards the call to the dispatcher.
func makeHandler(d *dispatch.Dispatcher, name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		args := map[string]any{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult("Error: invalid arguments: " + err.Error()), nil
			}
		}

		resp := d.Handle(ctx, name, args)
		if resp.IsError {
			return errorResult(resp.Text), nil
		}
		return textResult(resp.Text), nil
	}
}
