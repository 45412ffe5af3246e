// Package shortcuts exposes the host's Shortcuts runner as MCP tools.
package shortcuts

// Version is the server version reported to MCP clients.
const Version = "1.0.0"

// Name is the server name reported to MCP clients.
const Name = "shortcuts-mcp"
