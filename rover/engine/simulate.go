package engine

// Command characters understood by the simulator. Execution is
// case-sensitive even though validation accepts either case.
const (
	CmdForward  = 'f'
	CmdBackward = 'b'
	CmdLeft     = 'l'
	CmdRight    = 'r'
)

// Simulate runs the command string against the grid from the starting pose
// and returns the final pose together with obstacle and progress information.
//
// Commands are consumed left to right. Turns always succeed. A forward or
// backward move first computes its wrapped target cell; if that cell is an
// obstacle the run stops immediately: the pose is left untouched, the
// triggering command is not counted as processed, and the target cell is
// reported as the obstacle location. An obstacle sitting on the starting cell
// is never checked, only cells the rover moves into.
//
// Grid dimensions must be positive. A dimension of 1 makes every move along
// that axis wrap back onto the same cell, which is legal.
func Simulate(grid Grid, start Pose, obstacles ObstacleSet, commands string) Result {
	pose := start
	processed := 0
	hit := false
	var obstacleAt *Position

loop:
	for i := 0; i < len(commands); i++ {
		switch commands[i] {
		case CmdLeft:
			pose.Dir = pose.Dir.Left()
		case CmdRight:
			pose.Dir = pose.Dir.Right()
		case CmdForward, CmdBackward:
			dx, dy := pose.Dir.Delta()
			if commands[i] == CmdBackward {
				dx, dy = -dx, -dy
			}
			target := Position{
				X: wrap(pose.X+dx, grid.Width),
				Y: wrap(pose.Y+dy, grid.Height),
			}
			if obstacles.Contains(target) {
				hit = true
				obstacleAt = &target
				break loop
			}
			pose.X, pose.Y = target.X, target.Y
		default:
			// Validation rejects anything outside {f,b,l,r}, so this only
			// happens when the engine is called directly. Such characters
			// are no-ops that still count as processed.
		}
		processed++
	}

	return Result{
		Position:          pose,
		HitObstacle:       hit,
		ObstacleAt:        obstacleAt,
		ProcessedCommands: processed,
		RemainingCommands: commands[processed:],
	}
}

// wrap maps v into [0, m) using a non-negative modulo, so wrapping off the
// low edge (v == -1) lands on m-1 rather than a negative index.
func wrap(v, m int) int {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}
