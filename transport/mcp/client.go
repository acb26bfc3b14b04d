package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dpasquali/rover-api/rover/engine"
	"github.com/dpasquali/rover-api/rover/scenario"
)

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rover Command API",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rover Command API - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The rover lives on a toroidal grid: moving off one edge wraps to the
opposite edge. Commands are single characters: f (forward), b (backward),
l (turn left), r (turn right). If a move would land on an obstacle the
simulation stops with the rover still on its last safe cell and reports
the blocking position plus the unexecuted command suffix.

Every simulation is independent; nothing is stored between calls.

AVAILABLE TOOLS:
- simulate_rover: Run a command string against a grid
- list_scenarios: List named scenario presets
- get_scenario: Show one scenario preset in full`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "simulate_rover",
		Description: "Run a rover simulation: execute a command string on a toroidal grid and report the final pose, obstacle hits and remaining commands",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"commands": map[string]interface{}{
					"type":        "string",
					"description": "Command string made of f, b, l, r (required unless the scenario provides one)",
				},
				"scenario": map[string]interface{}{
					"type":        "string",
					"description": "Name of a scenario preset supplying grid/start/obstacle defaults (optional)",
				},
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Starting x coordinate (default 0)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Starting y coordinate (default 0)",
				},
				"dir": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"N", "E", "S", "W"},
					"description": "Starting direction (default N)",
				},
				"width": map[string]interface{}{
					"type":        "integer",
					"description": "Grid width (default 10)",
				},
				"height": map[string]interface{}{
					"type":        "integer",
					"description": "Grid height (default 10)",
				},
			},
		},
	}, c.handleSimulate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List available scenario presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_scenario",
		Description: "Get a scenario preset in full, including its obstacle list and default commands",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Scenario name",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleGetScenario)
}

// GetMCPServer returns the underlying MCP server for serving.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs one REST call and decodes the response, unwrapping the
// API's error envelope on failure.
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("%s", errResp.Error.Message)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})

	body := map[string]interface{}{}
	if commands, ok := args["commands"].(string); ok {
		body["commands"] = commands
	}
	if name, ok := args["scenario"].(string); ok && name != "" {
		body["scenario"] = name
	}

	start := map[string]interface{}{}
	if x, ok := args["x"].(float64); ok {
		start["x"] = int(x)
	}
	if y, ok := args["y"].(float64); ok {
		start["y"] = int(y)
	}
	if dir, ok := args["dir"].(string); ok && dir != "" {
		start["dir"] = dir
	}
	if len(start) > 0 {
		body["start"] = start
	}

	grid := map[string]interface{}{}
	if width, ok := args["width"].(float64); ok {
		grid["width"] = int(width)
	}
	if height, ok := args["height"].(float64); ok {
		grid["height"] = int(height)
	}
	if len(grid) > 0 {
		body["grid"] = grid
	}

	var result engine.Result
	err := c.apiCall("POST", "/api/v1/rover/command", body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatResult(&result)), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count     int              `json:"count"`
		Scenarios []*scenario.Info `json:"scenarios"`
	}

	err := c.apiCall("GET", "/api/v1/scenarios", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Scenarios (%d):\n\n", response.Count)
	for _, info := range response.Scenarios {
		result += fmt.Sprintf("- %s: %s (grid %dx%d, %d obstacles)\n",
			info.ID, info.Name, info.GridWidth, info.GridHeight, info.Obstacles)
		if info.Description != "" {
			result += fmt.Sprintf("  %s\n", info.Description)
		}
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	name, _ := args["name"].(string)

	var sc scenario.Scenario
	err := c.apiCall("GET", fmt.Sprintf("/api/v1/scenarios/%s", name), nil, &sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatScenario(name, &sc)), nil
}

// Formatting helpers

func formatResult(result *engine.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Final position: (%d,%d) facing %s\n",
		result.Position.X, result.Position.Y, result.Position.Dir))
	b.WriteString(fmt.Sprintf("Processed commands: %d\n", result.ProcessedCommands))

	if result.HitObstacle {
		b.WriteString("Status: BLOCKED by obstacle")
		if result.ObstacleAt != nil {
			b.WriteString(fmt.Sprintf(" at (%d,%d)", result.ObstacleAt.X, result.ObstacleAt.Y))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Remaining commands: %q\n", result.RemainingCommands))
	} else {
		b.WriteString("Status: completed\n")
	}

	return b.String()
}

func formatScenario(id string, sc *scenario.Scenario) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Scenario: %s (%s)\n", sc.Name, id))
	if sc.Description != "" {
		b.WriteString(sc.Description + "\n")
	}

	width, height := sc.Dimensions()
	b.WriteString(fmt.Sprintf("Grid: %dx%d\n", width, height))

	if sc.Start != nil {
		b.WriteString(fmt.Sprintf("Start: (%d,%d) facing %s\n", sc.Start.X, sc.Start.Y, sc.Start.Dir))
	} else {
		b.WriteString("Start: (0,0) facing N\n")
	}

	if len(sc.Obstacles) > 0 {
		b.WriteString("Obstacles:\n")
		for _, o := range sc.Obstacles {
			b.WriteString(fmt.Sprintf("- (%d,%d)\n", o.X, o.Y))
		}
	} else {
		b.WriteString("Obstacles: none\n")
	}

	if sc.Commands != "" {
		b.WriteString(fmt.Sprintf("Default commands: %q\n", sc.Commands))
	}

	return b.String()
}
