package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dpasquali/rover-api/pkg/log"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
)

// Manager handles scenario loading, caching and saving. Loads are cached
// until the watcher (see Watch) observes a change in the scenario directory.
type Manager struct {
	dir       string
	logger    log.Logger
	scenarios map[string]*Scenario
	mu        sync.RWMutex
}

// NewManager creates a scenario manager over the given directory, creating
// it if necessary.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}

	return &Manager{
		dir:       dir,
		logger:    log.WithName("scenario"),
		scenarios: make(map[string]*Scenario),
	}, nil
}

// Load returns the scenario with the given name, reading it from disk on
// first use and from cache afterwards.
func (m *Manager) Load(name string) (*Scenario, error) {
	m.mu.RLock()
	if sc, exists := m.scenarios[name]; exists {
		m.mu.RUnlock()
		return sc, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock.
	if sc, exists := m.scenarios[name]; exists {
		return sc, nil
	}

	data, err := os.ReadFile(filepath.Join(m.dir, fileName(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrScenarioNotFound
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := Validate(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	m.scenarios[name] = &sc
	return &sc, nil
}

// List returns information about all valid scenario files in the directory.
// Files that fail to parse or validate are skipped.
func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	infos := make([]*Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		sc, err := m.Load(name)
		if err != nil {
			m.logger.Warn("skipping unreadable scenario", "file", entry.Name(), "error", err.Error())
			continue
		}

		width, height := sc.Dimensions()
		infos = append(infos, &Info{
			Filename:    entry.Name(),
			ID:          name,
			Name:        sc.Name,
			Description: sc.Description,
			GridWidth:   width,
			GridHeight:  height,
			Obstacles:   len(sc.Obstacles),
		})
	}

	return infos, nil
}

// Save validates and writes a scenario to disk under the given name, then
// updates the cache.
func (m *Manager) Save(name string, sc *Scenario) error {
	if err := Validate(sc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.dir, fileName(name)), data, 0o644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[name] = sc
	m.mu.Unlock()

	return nil
}

// Invalidate drops the cached copy of the named scenario so the next Load
// rereads it from disk.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	delete(m.scenarios, name)
	m.mu.Unlock()
}

// Watch runs a filesystem watcher on the scenario directory until the
// context is cancelled, invalidating cached entries when their files change
// or disappear. It blocks; run it in a goroutine.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create scenario watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.dir); err != nil {
		return fmt.Errorf("failed to watch scenario directory: %w", err)
	}

	m.logger.Info("watching scenario directory", "dir", m.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), ".json")
			m.Invalidate(name)
			m.logger.Debug("scenario cache invalidated", "scenario", name, "op", event.Op.String())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Error(err, "scenario watcher error")
		}
	}
}

// fileName appends the .json extension unless the name already carries it.
func fileName(name string) string {
	if strings.HasSuffix(name, ".json") {
		return name
	}
	return name + ".json"
}
