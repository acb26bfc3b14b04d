// Package scenario manages named simulation presets stored as JSON files.
//
// A scenario bundles a grid, start pose, obstacle list and optionally a
// default command string under a name, so clients can reference a prepared
// setup instead of repeating it in every request. Scenarios are plain files
// in a directory, cached in memory, and the cache is invalidated by a
// filesystem watcher so edits on disk take effect without a restart.
//
// Scenarios are request defaults, never cross-request state: a simulation
// that references one still runs fully independently.
package scenario

import (
	"fmt"

	"github.com/dpasquali/rover-api/rover/engine"
)

// Scenario is a named simulation preset. All simulation fields are optional;
// absent ones fall back to the standard defaults (10x10 grid, start (0,0,N),
// no obstacles).
type Scenario struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Grid        *engine.Grid      `json:"grid,omitempty"`
	Start       *engine.Pose      `json:"start,omitempty"`
	Obstacles   []engine.Position `json:"obstacles,omitempty"`
	Commands    string            `json:"commands,omitempty"`
}

// Info is a listing entry for a scenario file.
type Info struct {
	Filename    string `json:"filename"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	GridWidth   int    `json:"grid_width"`
	GridHeight  int    `json:"grid_height"`
	Obstacles   int    `json:"obstacles"`
}

// Validate checks a scenario for internal consistency.
func Validate(s *Scenario) error {
	if s == nil {
		return fmt.Errorf("scenario validation: scenario is nil")
	}
	if s.Name == "" {
		return fmt.Errorf("scenario validation: name is required")
	}
	if s.Grid != nil {
		if s.Grid.Width <= 0 {
			return fmt.Errorf("scenario validation: grid.width must be positive, got %d", s.Grid.Width)
		}
		if s.Grid.Height <= 0 {
			return fmt.Errorf("scenario validation: grid.height must be positive, got %d", s.Grid.Height)
		}
	}
	for _, c := range s.Commands {
		switch c {
		case 'f', 'b', 'l', 'r', 'F', 'B', 'L', 'R':
		default:
			return fmt.Errorf("scenario validation: invalid command character %q", c)
		}
	}
	return nil
}

// Dimensions returns the effective grid size, applying defaults when the
// scenario does not pin one.
func (s *Scenario) Dimensions() (width, height int) {
	if s.Grid != nil {
		return s.Grid.Width, s.Grid.Height
	}
	return engine.DefaultGridWidth, engine.DefaultGridHeight
}
