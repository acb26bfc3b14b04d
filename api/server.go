package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dpasquali/rover-api/pkg/log"
	"github.com/dpasquali/rover-api/pkg/metrics"
	"github.com/dpasquali/rover-api/rover/scenario"
	"github.com/dpasquali/rover-api/rover/service"
	"github.com/dpasquali/rover-api/rover/validate"
	"github.com/dpasquali/rover-api/transport/websocket"
)

// Server represents the REST API server.
type Server struct {
	service service.RoverService
	hub     *websocket.Hub
	logger  log.Logger
	router  *mux.Router
}

// NewServer creates a new API server. The hub may be nil when WebSocket
// observation is not wanted.
func NewServer(roverService service.RoverService, hub *websocket.Hub) *Server {
	s := &Server{
		service: roverService,
		hub:     hub,
		logger:  log.WithName("api"),
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(s.recoverMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Simulation
	api.HandleFunc("/rover/command", s.handleCommand).Methods("POST")

	// Scenario presets
	api.HandleFunc("/scenarios", s.handleListScenarios).Methods("GET")
	api.HandleFunc("/scenarios", s.handleCreateScenario).Methods("POST")
	api.HandleFunc("/scenarios/{name}", s.handleGetScenario).Methods("GET")

	// Operational endpoints
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// WebSocket observers
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found", "", nil)
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "", nil)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// recoverMiddleware converts panics into the 500 envelope.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error(nil, "panic while handling request",
					"method", r.Method, "path", r.URL.Path, "panic", rec)
				respondError(w, http.StatusInternalServerError, "Internal server error", "", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes the error envelope. Code and details are optional.
func respondError(w http.ResponseWriter, status int, message, code string, details any) {
	respondJSON(w, status, map[string]any{
		"error": &validate.Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Handlers

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty body: let validation report it as a missing body.
			body = nil
		} else {
			respondError(w, http.StatusBadRequest, "Malformed JSON or bad request", "", nil)
			return
		}
	}

	record, err := s.service.Simulate(r.Context(), body)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": verr})
			return
		}
		s.logger.Error(err, "simulation failed")
		respondError(w, http.StatusInternalServerError, "Internal server error", "", nil)
		return
	}

	if s.hub != nil {
		s.hub.Broadcast("simulation", record)
	}

	respondJSON(w, http.StatusOK, record.Result)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	infos, err := s.service.ListScenarios(r.Context())
	if err != nil {
		s.logger.Error(err, "failed to list scenarios")
		respondError(w, http.StatusInternalServerError, "Internal server error", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":     len(infos),
		"scenarios": infos,
	})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := strings.TrimSuffix(vars["name"], ".json")

	sc, err := s.service.GetScenario(r.Context(), name)
	if err != nil {
		if errors.Is(err, scenario.ErrScenarioNotFound) {
			respondError(w, http.StatusNotFound, "Scenario not found", validate.CodeUnknownScenario, name)
			return
		}
		s.logger.Error(err, "failed to load scenario", "scenario", name)
		respondError(w, http.StatusInternalServerError, "Internal server error", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, sc)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
		scenario.Scenario
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON or bad request", "", nil)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Scenario name is required", validate.CodeMissingField, nil)
		return
	}

	id := req.ID
	if id == "" {
		id = req.Name
	}

	if err := s.service.SaveScenario(r.Context(), id, &req.Scenario); err != nil {
		if errors.Is(err, scenario.ErrInvalidScenario) {
			respondError(w, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
		s.logger.Error(err, "failed to save scenario", "scenario", id)
		respondError(w, http.StatusInternalServerError, "Internal server error", "", nil)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":     "Scenario saved successfully",
		"scenario_id": id,
	})
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
