package mcphttp

import "net/http"

// Server is the MCP streamable HTTP transport as seen by the REST handler.
// The handler forwards POST /mcp to it without knowing the concrete mcp-go type.
type Server interface {
	http.Handler
}
