// Package mcp provides the Shortcuts MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"

	"github.com/deixis/shortcuts"
	"github.com/deixis/shortcuts/internal/dispatch"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

//go:embed instructions.md
var Instructions string

// NewServer creates an MCP server with all shortcuts tools registered.
func NewServer(d *dispatch.Dispatcher, log *zap.SugaredLogger) *mcp.Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			log.Debugw("client initialized", "session", req.Session.ID())
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: shortcuts.Name, Version: shortcuts.Version}, opts)

	registerTools(s, d)

	return s
}

// Serve runs the server on the stdio transport until the client
// disconnects or ctx is cancelled.
func Serve(ctx context.Context, s *mcp.Server, log *zap.SugaredLogger) error {
	log.Infof("Shortcuts MCP server v%s running on stdio", shortcuts.Version)
	return s.Run(ctx, &mcp.StdioTransport{})
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
