// Package engine provides the core simulation logic for the rover API.
//
// The engine package implements the command-interpretation and motion model:
//   - A cyclic four-direction compass (N, E, S, W) with turn arithmetic
//   - Toroidal wrap-around movement on a finite grid
//   - Obstacle collision detection with early stop
//   - Partial-execution reporting (processed count and remaining suffix)
//
// Core Types:
//
// Grid defines the board dimensions, Pose is the rover's position plus
// facing, and ObstacleSet is the set of blocked cells. Simulate consumes a
// command string and returns a Result describing the final pose and, when an
// obstacle was hit, where and how far into the sequence the rover got.
//
// Usage:
//
//	grid := engine.Grid{Width: 5, Height: 5}
//	start := engine.Pose{X: 0, Y: 0, Dir: engine.East}
//	obstacles := engine.NewObstacleSet([]engine.Position{{X: 2, Y: 0}})
//
//	result := engine.Simulate(grid, start, obstacles, "fff")
//	// result.HitObstacle == true, result.Position == (1,0,E)
//
// Purity:
//
// Simulate is a pure function: it keeps no state between calls, never fails,
// and always yields identical output for identical input. Callers are
// expected to validate input first (see the validate package); the engine
// only assumes positive grid dimensions.
package engine
