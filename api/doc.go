// Package api provides the HTTP REST surface of the rover simulation service.
//
// Endpoints:
//
// Simulation:
//   - POST /api/v1/rover/command - Run one complete simulation
//
// Scenario presets:
//   - GET /api/v1/scenarios - List scenario presets
//   - POST /api/v1/scenarios - Save a scenario preset
//   - GET /api/v1/scenarios/{name} - Get one scenario preset
//
// Operational:
//   - GET /health - Liveness check
//   - GET /metrics - Prometheus metrics
//   - GET /ws - WebSocket observer upgrade
//
// Request/Response Format:
//
// All endpoints accept and return JSON. A simulation request:
//
//	{
//	  "grid": {"width": 10, "height": 10},   // optional, default 10x10
//	  "start": {"x": 0, "y": 0, "dir": "N"}, // optional, default (0,0,N)
//	  "obstacles": [{"x": 2, "y": 0}],       // optional, default none
//	  "commands": "fflrb",                   // required unless scenario has one
//	  "scenario": "crater"                   // optional preset name
//	}
//
// Error Handling:
//
// Errors are returned as a JSON envelope with appropriate HTTP status codes:
//
//	{
//	  "error": {
//	    "message": "'commands' must be a string",
//	    "code": "wrong_type",       // optional machine code
//	    "details": ...              // optional machine details
//	  }
//	}
//
// Validation failures map to 400, unknown routes and scenarios to 404, wrong
// methods to 405, and panics or internal failures to 500.
package api
