package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dpasquali/rover-api/rover/engine"
	"github.com/dpasquali/rover-api/rover/scenario"
	"github.com/dpasquali/rover-api/rover/service"
	"github.com/dpasquali/rover-api/rover/validate"
	"github.com/dpasquali/rover-api/transport/websocket"
)

// MockRoverService implements service.RoverService for testing. The default
// Simulate behavior runs real validation and the real engine so handler tests
// exercise the full request path.
type MockRoverService struct {
	SimulateFunc      func(ctx context.Context, body map[string]any) (*service.SimulationRecord, error)
	ListScenariosFunc func(ctx context.Context) ([]*scenario.Info, error)
	GetScenarioFunc   func(ctx context.Context, name string) (*scenario.Scenario, error)
	SaveScenarioFunc  func(ctx context.Context, name string, sc *scenario.Scenario) error
}

func (m *MockRoverService) Simulate(ctx context.Context, body map[string]any) (*service.SimulationRecord, error) {
	if m.SimulateFunc != nil {
		return m.SimulateFunc(ctx, body)
	}

	in, verr := validate.Request(body, nil)
	if verr != nil {
		return nil, verr
	}
	result := engine.Simulate(in.Grid, in.Start, engine.NewObstacleSet(in.Obstacles), in.Commands)
	return &service.SimulationRecord{
		Grid:     in.Grid,
		Start:    in.Start,
		Commands: in.Commands,
		Result:   &result,
	}, nil
}

func (m *MockRoverService) ListScenarios(ctx context.Context) ([]*scenario.Info, error) {
	if m.ListScenariosFunc != nil {
		return m.ListScenariosFunc(ctx)
	}
	return []*scenario.Info{}, nil
}

func (m *MockRoverService) GetScenario(ctx context.Context, name string) (*scenario.Scenario, error) {
	if m.GetScenarioFunc != nil {
		return m.GetScenarioFunc(ctx, name)
	}
	return &scenario.Scenario{Name: name}, nil
}

func (m *MockRoverService) SaveScenario(ctx context.Context, name string, sc *scenario.Scenario) error {
	if m.SaveScenarioFunc != nil {
		return m.SaveScenarioFunc(ctx, name, sc)
	}
	return nil
}

// Test helpers

func setupTestServer(mockService *MockRoverService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func postCommand(t *testing.T, server *Server, payload string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/v1/rover/command", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) *engine.Result {
	t.Helper()

	var result engine.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response %s: %v", w.Body.String(), err)
	}
	return &result
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *validate.Error {
	t.Helper()

	var envelope struct {
		Error *validate.Error `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope %s: %v", w.Body.String(), err)
	}
	if envelope.Error == nil {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	return envelope.Error
}

// Simulation handler tests

func TestCommandObstacleStop(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	w := postCommand(t, server, `{
		"start": {"x": 0, "y": 0, "dir": "E"},
		"obstacles": [{"x": 2, "y": 0}],
		"commands": "fff"
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	result := decodeResult(t, w)
	if !result.HitObstacle {
		t.Error("expected hit_obstacle true")
	}
	if result.Position != (engine.Pose{X: 1, Y: 0, Dir: engine.East}) {
		t.Errorf("unexpected position %+v", result.Position)
	}
	if result.ObstacleAt == nil || *result.ObstacleAt != (engine.Position{X: 2, Y: 0}) {
		t.Errorf("unexpected obstacle_at %+v", result.ObstacleAt)
	}
	if result.ProcessedCommands != 1 || result.RemainingCommands != "ff" {
		t.Errorf("unexpected progress: %+v", result)
	}
}

func TestCommandWrapping(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	w := postCommand(t, server, `{
		"grid": {"width": 5, "height": 5},
		"start": {"x": 4, "y": 0, "dir": "E"},
		"commands": "f"
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	result := decodeResult(t, w)
	if result.Position != (engine.Pose{X: 0, Y: 0, Dir: engine.East}) {
		t.Errorf("expected wrap to (0,0,E), got %+v", result.Position)
	}
	if result.HitObstacle {
		t.Error("expected clean completion")
	}
}

func TestCommandTurnsAndDefaults(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	// Default start (0,0,N): r turns east, f moves to (1,0).
	w := postCommand(t, server, `{"commands": "rf"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	result := decodeResult(t, w)
	if result.Position != (engine.Pose{X: 1, Y: 0, Dir: engine.East}) {
		t.Errorf("unexpected position %+v", result.Position)
	}
	if result.ProcessedCommands != 2 || result.RemainingCommands != "" {
		t.Errorf("unexpected progress: %+v", result)
	}
}

func TestCommandValidationErrors(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	tests := []struct {
		name        string
		payload     string
		wantMessage string
	}{
		{"missing commands", `{"grid": {"width": 5, "height": 5}}`, "Missing 'commands'"},
		{"commands not string", `{"commands": ["f"]}`, "must be a string"},
		{"invalid characters", `{"commands": "fxz"}`, "invalid characters"},
		{"obstacles not list", `{"commands": "f", "obstacles": {"x": 1, "y": 1}}`, "must be a list"},
		{"bad direction", `{"commands": "f", "start": {"dir": "Q"}}`, "N, E, S, W"},
		{"zero grid", `{"commands": "f", "grid": {"width": 0}}`, "positive integer"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := postCommand(t, server, test.payload)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}

			verr := decodeError(t, w)
			if !strings.Contains(verr.Message, test.wantMessage) {
				t.Errorf("expected message containing %q, got %q", test.wantMessage, verr.Message)
			}
			if verr.Code == "" {
				t.Error("expected a machine code on validation errors")
			}
		})
	}
}

func TestCommandEmptyBody(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	req := httptest.NewRequest("POST", "/api/v1/rover/command", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	verr := decodeError(t, w)
	if !strings.Contains(verr.Message, "Missing request body") {
		t.Errorf("unexpected message %q", verr.Message)
	}
}

func TestCommandMalformedJSON(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	w := postCommand(t, server, `{"commands": "ff`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	verr := decodeError(t, w)
	if !strings.Contains(verr.Message, "Malformed JSON") {
		t.Errorf("unexpected message %q", verr.Message)
	}
}

func TestCommandInternalError(t *testing.T) {
	server := setupTestServer(&MockRoverService{
		SimulateFunc: func(ctx context.Context, body map[string]any) (*service.SimulationRecord, error) {
			return nil, errors.New("scenario store exploded")
		},
	})

	w := postCommand(t, server, `{"commands": "f"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}

	verr := decodeError(t, w)
	if verr.Message != "Internal server error" {
		t.Errorf("internal details must not leak, got %q", verr.Message)
	}
}

func TestCommandPanicRecovery(t *testing.T) {
	server := setupTestServer(&MockRoverService{
		SimulateFunc: func(ctx context.Context, body map[string]any) (*service.SimulationRecord, error) {
			panic("boom")
		},
	})

	w := postCommand(t, server, `{"commands": "f"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}

	verr := decodeError(t, w)
	if verr.Message != "Internal server error" {
		t.Errorf("unexpected message %q", verr.Message)
	}
}

// Routing tests

func TestUnknownRoute(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	req := httptest.NewRequest("GET", "/api/v1/rover/unknown", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	verr := decodeError(t, w)
	if verr.Message != "Not found" {
		t.Errorf("unexpected message %q", verr.Message)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	req := httptest.NewRequest("GET", "/api/v1/rover/command", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}

	verr := decodeError(t, w)
	if verr.Message != "Method not allowed" {
		t.Errorf("unexpected message %q", verr.Message)
	}
}

func TestHealthCheck(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

// Scenario handler tests

func TestListScenarios(t *testing.T) {
	server := setupTestServer(&MockRoverService{
		ListScenariosFunc: func(ctx context.Context) ([]*scenario.Info, error) {
			return []*scenario.Info{
				{ID: "crater", Name: "Crater Field", GridWidth: 5, GridHeight: 5},
			}, nil
		},
	})

	req := httptest.NewRequest("GET", "/api/v1/scenarios", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Count     int              `json:"count"`
		Scenarios []*scenario.Info `json:"scenarios"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Scenarios) != 1 || resp.Scenarios[0].ID != "crater" {
		t.Errorf("unexpected listing %+v", resp)
	}
}

func TestGetScenario(t *testing.T) {
	server := setupTestServer(&MockRoverService{
		GetScenarioFunc: func(ctx context.Context, name string) (*scenario.Scenario, error) {
			if name != "crater" {
				return nil, scenario.ErrScenarioNotFound
			}
			return &scenario.Scenario{
				Name: "Crater Field",
				Grid: &engine.Grid{Width: 5, Height: 5},
			}, nil
		},
	})

	req := httptest.NewRequest("GET", "/api/v1/scenarios/crater", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var sc scenario.Scenario
	if err := json.Unmarshal(w.Body.Bytes(), &sc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sc.Name != "Crater Field" {
		t.Errorf("unexpected scenario %+v", sc)
	}
}

func TestGetScenarioNotFound(t *testing.T) {
	server := setupTestServer(&MockRoverService{
		GetScenarioFunc: func(ctx context.Context, name string) (*scenario.Scenario, error) {
			return nil, scenario.ErrScenarioNotFound
		},
	})

	req := httptest.NewRequest("GET", "/api/v1/scenarios/missing", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	verr := decodeError(t, w)
	if verr.Code != validate.CodeUnknownScenario {
		t.Errorf("expected code %s, got %s", validate.CodeUnknownScenario, verr.Code)
	}
}

func TestCreateScenario(t *testing.T) {
	saved := make(map[string]*scenario.Scenario)
	server := setupTestServer(&MockRoverService{
		SaveScenarioFunc: func(ctx context.Context, name string, sc *scenario.Scenario) error {
			saved[name] = sc
			return nil
		},
	})

	payload := `{
		"id": "crater",
		"name": "Crater Field",
		"grid": {"width": 5, "height": 5},
		"obstacles": [{"x": 2, "y": 0}]
	}`
	req := httptest.NewRequest("POST", "/api/v1/scenarios", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	sc, ok := saved["crater"]
	if !ok {
		t.Fatal("scenario was not saved under its id")
	}
	if sc.Name != "Crater Field" || len(sc.Obstacles) != 1 {
		t.Errorf("unexpected saved scenario %+v", sc)
	}
}

func TestCreateScenarioMissingName(t *testing.T) {
	server := setupTestServer(&MockRoverService{})

	req := httptest.NewRequest("POST", "/api/v1/scenarios", strings.NewReader(`{"commands": "ff"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	verr := decodeError(t, w)
	if !strings.Contains(verr.Message, "name is required") {
		t.Errorf("unexpected message %q", verr.Message)
	}
}
