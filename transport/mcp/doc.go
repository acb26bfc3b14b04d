// Package mcp exposes the rover API as MCP tools.
//
// The Client is a thin proxy: every tool call is translated into a request
// against the REST API, so the MCP surface and HTTP surface always agree on
// behavior. The underlying MCP server can be mounted on an HTTP endpoint or
// run over stdio.
//
// Tools:
//
//   - simulate_rover: run one complete simulation
//   - list_scenarios: list available scenario presets
//   - get_scenario: fetch a single scenario preset
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.NewStreamableHTTPServer(client.GetMCPServer())
package mcp
