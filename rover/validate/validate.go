// Package validate checks the structure and types of a decoded rover command
// request before it reaches the simulation engine.
//
// Validation is strict and fails fast: the first problem found is returned as
// a typed *Error carrying a stable machine code, a human-readable message and,
// where useful, machine-readable details (the offending command characters or
// obstacle entry). Passing requests are converted into a fully typed,
// default-filled Input ready for engine.Simulate.
//
// The package expects the request body decoded into a map[string]any with
// json.Decoder.UseNumber enabled, so integer checks can distinguish 3 from
// 3.5 without floating point heuristics.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dpasquali/rover-api/rover/engine"
)

// Error codes carried in the API error envelope.
const (
	CodeMissingBody      = "missing_body"
	CodeMissingField     = "missing_field"
	CodeWrongType        = "wrong_type"
	CodeInvalidCommand   = "invalid_command"
	CodeInvalidDirection = "invalid_direction"
	CodeInvalidGrid      = "invalid_grid"
	CodeInvalidObstacle  = "invalid_obstacle"
	CodeUnknownScenario  = "unknown_scenario"
)

// Error is a structured validation failure. It satisfies the error interface
// so it can travel through ordinary error returns; the API layer unwraps it
// with errors.As to produce a 400 response.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error returns the human-readable message.
func (e *Error) Error() string {
	return e.Message
}

// NewError builds a validation error with the given code, message and details.
func NewError(code, message string, details any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// Input is a validated, default-filled simulation input.
type Input struct {
	Grid      engine.Grid
	Start     engine.Pose
	Obstacles []engine.Position
	Commands  string
}

// Defaults returns the input applied for fields absent from the request:
// 10x10 grid, start at (0,0) facing north, no obstacles, no default commands.
func Defaults() *Input {
	return &Input{
		Grid:  engine.DefaultGrid(),
		Start: engine.Pose{X: 0, Y: 0, Dir: engine.North},
	}
}

// Request validates the decoded request body and returns the typed input for
// the simulator. Fields absent from the body fall back to the provided
// defaults (use Defaults() unless a scenario preset supplies its own).
//
// Checks run in a fixed order and the first failure wins:
//
//  1. body present
//  2. "commands" present (a non-empty default satisfies this)
//  3. "commands" is a string
//  4. every character of "commands" is f, b, l or r (case-insensitive)
//  5. "start", when present, is an object with integer x/y and a valid dir
//  6. "grid", when present, has positive integer width/height
//  7. "obstacles", when present, is a list of objects with integer x and y
func Request(body map[string]any, defaults *Input) (*Input, *Error) {
	if defaults == nil {
		defaults = Defaults()
	}

	if body == nil {
		return nil, NewError(CodeMissingBody, "Missing request body", nil)
	}

	in := &Input{
		Grid:      defaults.Grid,
		Start:     defaults.Start,
		Obstacles: defaults.Obstacles,
		Commands:  defaults.Commands,
	}

	rawCommands, present := body["commands"]
	switch {
	case present:
		commands, ok := rawCommands.(string)
		if !ok {
			return nil, NewError(CodeWrongType, "'commands' must be a string", nil)
		}
		if invalid := invalidCommandChars(commands); len(invalid) > 0 {
			return nil, NewError(CodeInvalidCommand,
				fmt.Sprintf("'commands' contains invalid characters: %s", strings.Join(invalid, ", ")),
				invalid)
		}
		in.Commands = commands
	case in.Commands != "":
		// Scenario preset supplied the command string.
	default:
		return nil, NewError(CodeMissingField, "Missing 'commands' field", nil)
	}

	if rawStart, ok := body["start"]; ok {
		start, ok := rawStart.(map[string]any)
		if !ok {
			return nil, NewError(CodeWrongType, "'start' must be an object", nil)
		}
		if raw, ok := start["x"]; ok {
			x, ok := asInt(raw)
			if !ok {
				return nil, NewError(CodeWrongType, "'start.x' must be an integer", nil)
			}
			in.Start.X = x
		}
		if raw, ok := start["y"]; ok {
			y, ok := asInt(raw)
			if !ok {
				return nil, NewError(CodeWrongType, "'start.y' must be an integer", nil)
			}
			in.Start.Y = y
		}
		if raw, ok := start["dir"]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, NewError(CodeInvalidDirection, "'start.dir' must be one of N, E, S, W", raw)
			}
			dir, err := engine.ParseDirection(s)
			if err != nil {
				return nil, NewError(CodeInvalidDirection, "'start.dir' must be one of N, E, S, W", s)
			}
			in.Start.Dir = dir
		}
	}

	if rawGrid, ok := body["grid"]; ok {
		grid, ok := rawGrid.(map[string]any)
		if !ok {
			return nil, NewError(CodeInvalidGrid, "'grid' must be an object", nil)
		}
		if raw, ok := grid["width"]; ok {
			width, ok := asInt(raw)
			if !ok || width <= 0 {
				return nil, NewError(CodeInvalidGrid, "'grid.width' must be a positive integer", raw)
			}
			in.Grid.Width = width
		}
		if raw, ok := grid["height"]; ok {
			height, ok := asInt(raw)
			if !ok || height <= 0 {
				return nil, NewError(CodeInvalidGrid, "'grid.height' must be a positive integer", raw)
			}
			in.Grid.Height = height
		}
	}

	if rawObstacles, ok := body["obstacles"]; ok {
		list, ok := rawObstacles.([]any)
		if !ok {
			return nil, NewError(CodeInvalidObstacle, "'obstacles' must be a list", nil)
		}
		obstacles := make([]engine.Position, 0, len(list))
		for _, entry := range list {
			obj, ok := entry.(map[string]any)
			if !ok {
				return nil, NewError(CodeInvalidObstacle,
					"each obstacle must be an object with integer 'x' and 'y'", entry)
			}
			x, okX := asInt(obj["x"])
			y, okY := asInt(obj["y"])
			if !okX || !okY {
				return nil, NewError(CodeInvalidObstacle,
					"each obstacle must be an object with integer 'x' and 'y'", entry)
			}
			obstacles = append(obstacles, engine.Position{X: x, Y: y})
		}
		in.Obstacles = obstacles
	}

	return in, nil
}

// invalidCommandChars returns the distinct characters of commands outside the
// {f,b,l,r} alphabet, compared case-insensitively, in sorted order.
func invalidCommandChars(commands string) []string {
	seen := make(map[rune]bool)
	var invalid []string

	for _, r := range strings.ToLower(commands) {
		switch r {
		case 'f', 'b', 'l', 'r':
		default:
			if !seen[r] {
				seen[r] = true
				invalid = append(invalid, string(r))
			}
		}
	}

	sort.Strings(invalid)
	return invalid
}

// asInt reports whether the decoded JSON value is an integral number and
// returns it as an int. json.Number is the expected representation; float64
// is accepted for callers that decode without UseNumber.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		i := int(n)
		if float64(i) != n {
			return 0, false
		}
		return i, true
	case int:
		return n, true
	default:
		return 0, false
	}
}
