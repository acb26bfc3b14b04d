// Command roverctl is a small CLI companion to the rover API server.
//
// It can run a simulation locally without a server (simulate), send a request
// to a running server (post), and validate the scenario JSON files in a
// directory (validate).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dpasquali/rover-api/rover/engine"
	"github.com/dpasquali/rover-api/rover/scenario"
)

func main() {
	cmd := &cli.Command{
		Name:  "roverctl",
		Usage: "run and inspect rover simulations",
		Commands: []*cli.Command{
			simulateCommand(),
			postCommand(),
			validateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "run a simulation locally, without a server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "commands",
				Aliases:  []string{"c"},
				Usage:    "command string (f, b, l, r)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "starting pose as x,y,DIR (e.g. 0,0,N)",
				Value: "0,0,N",
			},
			&cli.StringFlag{
				Name:  "grid",
				Usage: "grid size as WIDTHxHEIGHT",
				Value: "10x10",
			},
			&cli.StringFlag{
				Name:  "obstacles",
				Usage: "obstacle list as x1,y1;x2,y2",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			start, err := parseStart(cmd.String("start"))
			if err != nil {
				return err
			}
			grid, err := parseGrid(cmd.String("grid"))
			if err != nil {
				return err
			}
			obstacles, err := parseObstacles(cmd.String("obstacles"))
			if err != nil {
				return err
			}

			result := engine.Simulate(grid, start, engine.NewObstacleSet(obstacles), cmd.String("commands"))
			return printJSON(result)
		},
	}
}

func postCommand() *cli.Command {
	return &cli.Command{
		Name:  "post",
		Usage: "send a simulation request to a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "base URL of the rover API server",
				Value: "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "commands",
				Aliases: []string{"c"},
				Usage:   "command string (f, b, l, r)",
			},
			&cli.StringFlag{
				Name:  "scenario",
				Usage: "scenario preset name",
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "starting pose as x,y,DIR (e.g. 0,0,N)",
			},
			&cli.StringFlag{
				Name:  "grid",
				Usage: "grid size as WIDTHxHEIGHT",
			},
			&cli.StringFlag{
				Name:  "obstacles",
				Usage: "obstacle list as x1,y1;x2,y2",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			body := map[string]any{}

			if commands := cmd.String("commands"); commands != "" {
				body["commands"] = commands
			}
			if name := cmd.String("scenario"); name != "" {
				body["scenario"] = name
			}
			if raw := cmd.String("start"); raw != "" {
				start, err := parseStart(raw)
				if err != nil {
					return err
				}
				body["start"] = map[string]any{"x": start.X, "y": start.Y, "dir": start.Dir.String()}
			}
			if raw := cmd.String("grid"); raw != "" {
				grid, err := parseGrid(raw)
				if err != nil {
					return err
				}
				body["grid"] = map[string]any{"width": grid.Width, "height": grid.Height}
			}
			if raw := cmd.String("obstacles"); raw != "" {
				obstacles, err := parseObstacles(raw)
				if err != nil {
					return err
				}
				body["obstacles"] = obstacles
			}

			data, err := json.Marshal(body)
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Post(
				strings.TrimSuffix(cmd.String("server"), "/")+"/api/v1/rover/command",
				"application/json",
				bytes.NewReader(data),
			)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var payload any
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			if err := printJSON(payload); err != nil {
				return err
			}
			if resp.StatusCode >= 400 {
				return fmt.Errorf("server returned %s", resp.Status)
			}
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "validate the scenario JSON files in a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "scenario directory",
				Value: "scenarios",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only print failures",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("dir")
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("reading %s: %w", dir, err)
			}

			failures := 0
			checked := 0
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
					continue
				}
				checked++

				if err := validateScenarioFile(filepath.Join(dir, entry.Name())); err != nil {
					failures++
					fmt.Printf("✗ %s: %v\n", entry.Name(), err)
					continue
				}
				if !cmd.Bool("quiet") {
					fmt.Printf("✓ %s\n", entry.Name())
				}
			}

			fmt.Printf("\n%d checked, %d invalid\n", checked, failures)
			if failures > 0 {
				return fmt.Errorf("%d invalid scenario file(s)", failures)
			}
			return nil
		},
	}
}

// validateScenarioFile parses and validates one scenario file.
func validateScenarioFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var sc scenario.Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return err
	}
	return scenario.Validate(&sc)
}

// parseStart parses "x,y,DIR" into a pose.
func parseStart(s string) (engine.Pose, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return engine.Pose{}, fmt.Errorf("invalid start %q, want x,y,DIR", s)
	}

	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return engine.Pose{}, fmt.Errorf("invalid start x %q", parts[0])
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return engine.Pose{}, fmt.Errorf("invalid start y %q", parts[1])
	}
	dir, err := engine.ParseDirection(strings.TrimSpace(parts[2]))
	if err != nil {
		return engine.Pose{}, err
	}

	return engine.Pose{X: x, Y: y, Dir: dir}, nil
}

// parseGrid parses "WIDTHxHEIGHT" into a grid.
func parseGrid(s string) (engine.Grid, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return engine.Grid{}, fmt.Errorf("invalid grid %q, want WIDTHxHEIGHT", s)
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || width <= 0 {
		return engine.Grid{}, fmt.Errorf("invalid grid width %q", parts[0])
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || height <= 0 {
		return engine.Grid{}, fmt.Errorf("invalid grid height %q", parts[1])
	}

	return engine.Grid{Width: width, Height: height}, nil
}

// parseObstacles parses "x1,y1;x2,y2" into a point list. Empty input is a
// valid empty list.
func parseObstacles(s string) ([]engine.Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var points []engine.Position
	for _, pair := range strings.Split(s, ";") {
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid obstacle %q, want x,y", pair)
		}
		x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid obstacle x %q", parts[0])
		}
		y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid obstacle y %q", parts[1])
		}
		points = append(points, engine.Position{X: x, Y: y})
	}

	return points, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
