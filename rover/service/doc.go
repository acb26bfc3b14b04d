// Package service provides the business logic layer for the rover API.
//
// RoverService sits between the transport layers (HTTP, WebSocket, MCP) and
// the simulation engine. It resolves scenario presets into request defaults,
// runs validation, executes the simulation and records metrics. Every call is
// stateless: a simulation is built entirely from its request (plus preset
// defaults) and nothing survives to the next one.
//
// Usage:
//
//	scenarios, _ := scenario.NewManager("scenarios")
//	svc := service.NewRoverService(scenarios)
//
//	record, err := svc.Simulate(ctx, body)
package service
