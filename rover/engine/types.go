package engine

import (
	"encoding/json"
	"fmt"
)

// Default grid dimensions applied when a request omits them.
const (
	DefaultGridWidth  = 10
	DefaultGridHeight = 10
)

// Direction represents the rover's facing. The cycle is clockwise
// N -> E -> S -> W -> N, so turns are ±1 steps under modulo-4 arithmetic.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

var directionNames = [4]string{"N", "E", "S", "W"}

// directionDeltas holds the unit move vector per direction, indexed by the
// Direction ordinal. North increases y, East increases x.
var directionDeltas = [4][2]int{
	{0, 1},  // North
	{1, 0},  // East
	{0, -1}, // South
	{-1, 0}, // West
}

// ParseDirection converts a compass letter ("N", "E", "S", "W") to a Direction.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return North, fmt.Errorf("invalid direction %q", s)
}

// String returns the compass letter for the direction.
func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Left returns the direction one quarter turn counter-clockwise.
func (d Direction) Left() Direction {
	return (d + 3) % 4
}

// Right returns the direction one quarter turn clockwise.
func (d Direction) Right() Direction {
	return (d + 1) % 4
}

// Delta returns the unit move vector for the direction.
func (d Direction) Delta() (dx, dy int) {
	return directionDeltas[d][0], directionDeltas[d][1]
}

// MarshalJSON encodes the direction as its compass letter.
func (d Direction) MarshalJSON() ([]byte, error) {
	if d < 0 || int(d) >= len(directionNames) {
		return nil, fmt.Errorf("invalid direction ordinal %d", int(d))
	}
	return json.Marshal(directionNames[d])
}

// UnmarshalJSON decodes a compass letter into a Direction.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Position represents x,y coordinates on the grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid defines the board dimensions. Both must be positive; movement wraps at
// the edges.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultGrid returns the 10x10 grid used when the request does not specify one.
func DefaultGrid() Grid {
	return Grid{Width: DefaultGridWidth, Height: DefaultGridHeight}
}

// Pose is the rover's full state: position plus facing direction.
type Pose struct {
	X   int       `json:"x"`
	Y   int       `json:"y"`
	Dir Direction `json:"dir"`
}

// Position returns the pose's coordinates.
func (p Pose) Position() Position {
	return Position{X: p.X, Y: p.Y}
}

// ObstacleSet is the set of grid cells the rover cannot occupy. Membership
// checks are O(1) on average. Coordinates are stored as given; only positions
// the rover can actually reach (always wrapped into bounds) are looked up.
type ObstacleSet map[Position]struct{}

// NewObstacleSet builds an obstacle set from a list of points.
func NewObstacleSet(points []Position) ObstacleSet {
	set := make(ObstacleSet, len(points))
	for _, p := range points {
		set[p] = struct{}{}
	}
	return set
}

// Contains reports whether the position is an obstacle.
func (s ObstacleSet) Contains(p Position) bool {
	_, ok := s[p]
	return ok
}

// Result describes the outcome of a single simulation run.
type Result struct {
	// Position is the final pose of the rover.
	Position Pose `json:"position"`

	// HitObstacle is true when the run stopped early because a move would
	// have landed on an obstacle.
	HitObstacle bool `json:"hit_obstacle"`

	// ObstacleAt is the blocked cell; nil unless HitObstacle is true.
	ObstacleAt *Position `json:"obstacle_at"`

	// ProcessedCommands counts the command characters whose effect was
	// actually applied before the run stopped.
	ProcessedCommands int `json:"processed_commands"`

	// RemainingCommands is the unexecuted suffix of the command string,
	// starting with the blocked command when an obstacle was hit.
	RemainingCommands string `json:"remaining_commands"`
}
