package service

import (
	"github.com/dpasquali/rover-api/rover/engine"
)

// SimulationRecord captures one complete simulation: the effective inputs
// after defaults and preset resolution, and the engine result. It is what the
// WebSocket hub broadcasts to observers; the HTTP response body is the Result
// alone.
type SimulationRecord struct {
	Scenario string         `json:"scenario,omitempty"`
	Grid     engine.Grid    `json:"grid"`
	Start    engine.Pose    `json:"start"`
	Commands string         `json:"commands"`
	Result   *engine.Result `json:"result"`
}
