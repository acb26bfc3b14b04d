package service

import (
	"context"

	"github.com/dpasquali/rover-api/rover/scenario"
)

// RoverService defines all rover-related operations.
type RoverService interface {
	// Simulation
	Simulate(ctx context.Context, body map[string]any) (*SimulationRecord, error)

	// Scenario presets
	ListScenarios(ctx context.Context) ([]*scenario.Info, error)
	GetScenario(ctx context.Context, name string) (*scenario.Scenario, error)
	SaveScenario(ctx context.Context, name string, sc *scenario.Scenario) error
}

// ScenarioStore handles scenario preset loading and saving.
type ScenarioStore interface {
	Load(name string) (*scenario.Scenario, error)
	List() ([]*scenario.Info, error)
	Save(name string, sc *scenario.Scenario) error
}
