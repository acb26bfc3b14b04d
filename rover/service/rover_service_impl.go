package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpasquali/rover-api/pkg/log"
	"github.com/dpasquali/rover-api/pkg/metrics"
	"github.com/dpasquali/rover-api/rover/engine"
	"github.com/dpasquali/rover-api/rover/scenario"
	"github.com/dpasquali/rover-api/rover/validate"
)

// roverServiceImpl implements the RoverService interface.
type roverServiceImpl struct {
	scenarios ScenarioStore
	logger    log.Logger
}

// NewRoverService creates a new rover service instance.
func NewRoverService(scenarios ScenarioStore) RoverService {
	return &roverServiceImpl{
		scenarios: scenarios,
		logger:    log.WithName("service"),
	}
}

// Simulate resolves the optional scenario preset, validates the request body
// and runs the simulation. Validation failures come back as *validate.Error.
func (s *roverServiceImpl) Simulate(ctx context.Context, body map[string]any) (*SimulationRecord, error) {
	started := time.Now()

	scenarioName, defaults, err := s.resolveDefaults(body)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			metrics.ValidationFailuresTotal.WithLabelValues(verr.Code).Inc()
		}
		return nil, err
	}

	in, verr := validate.Request(body, defaults)
	if verr != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(verr.Code).Inc()
		return nil, verr
	}

	result := engine.Simulate(in.Grid, in.Start, engine.NewObstacleSet(in.Obstacles), in.Commands)

	outcome := metrics.OutcomeCompleted
	if result.HitObstacle {
		outcome = metrics.OutcomeBlocked
	}
	metrics.SimulationsTotal.WithLabelValues(outcome).Inc()
	metrics.CommandsProcessedTotal.Add(float64(result.ProcessedCommands))
	metrics.SimulationDuration.Observe(time.Since(started).Seconds())

	s.logger.Info("simulation complete",
		"scenario", scenarioName,
		"commands", len(in.Commands),
		"processed", result.ProcessedCommands,
		"hit_obstacle", result.HitObstacle,
		"final", result.Position.Position(),
		"dir", result.Position.Dir.String(),
	)

	return &SimulationRecord{
		Scenario: scenarioName,
		Grid:     in.Grid,
		Start:    in.Start,
		Commands: in.Commands,
		Result:   &result,
	}, nil
}

// resolveDefaults returns the validation defaults for the request: the
// standard ones, or the named scenario's preset merged over them.
func (s *roverServiceImpl) resolveDefaults(body map[string]any) (string, *validate.Input, error) {
	defaults := validate.Defaults()

	raw, ok := body["scenario"]
	if !ok {
		return "", defaults, nil
	}

	name, ok := raw.(string)
	if !ok {
		return "", nil, validate.NewError(validate.CodeWrongType, "'scenario' must be a string", nil)
	}

	sc, err := s.scenarios.Load(name)
	if err != nil {
		if errors.Is(err, scenario.ErrScenarioNotFound) {
			available, listErr := s.scenarios.List()
			if listErr == nil && len(available) > 0 {
				ids := make([]string, 0, len(available))
				for _, info := range available {
					ids = append(ids, info.ID)
				}
				return "", nil, validate.NewError(validate.CodeUnknownScenario,
					fmt.Sprintf("Unknown scenario '%s'", name), map[string]any{"available": ids})
			}
			return "", nil, validate.NewError(validate.CodeUnknownScenario,
				fmt.Sprintf("Unknown scenario '%s'", name), nil)
		}
		return "", nil, fmt.Errorf("failed to load scenario %s: %w", name, err)
	}

	if sc.Grid != nil {
		defaults.Grid = *sc.Grid
	}
	if sc.Start != nil {
		defaults.Start = *sc.Start
	}
	if len(sc.Obstacles) > 0 {
		defaults.Obstacles = sc.Obstacles
	}
	defaults.Commands = sc.Commands

	return name, defaults, nil
}

// ListScenarios returns available scenario presets.
func (s *roverServiceImpl) ListScenarios(ctx context.Context) ([]*scenario.Info, error) {
	return s.scenarios.List()
}

// GetScenario loads a specific scenario preset.
func (s *roverServiceImpl) GetScenario(ctx context.Context, name string) (*scenario.Scenario, error) {
	return s.scenarios.Load(name)
}

// SaveScenario saves a scenario preset to disk.
func (s *roverServiceImpl) SaveScenario(ctx context.Context, name string, sc *scenario.Scenario) error {
	return s.scenarios.Save(name, sc)
}
