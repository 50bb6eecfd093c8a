// Package storage persists simulation output: per-run directories with
// metadata, global field snapshots gathered from the process grid, and
// a sqlite history of observables.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Store roots every run directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.baseDir, 0755), "storage: init")
}

// RunMetadata is the run manifest written next to the snapshots.
type RunMetadata struct {
	ID         string    `json:"id"`
	Preset     string    `json:"preset"`
	Timestamp  time.Time `json:"timestamp"`
	GridNX     int       `json:"grid_nx"`
	GridNY     int       `json:"grid_ny"`
	LengthX    float64   `json:"length_x"`
	LengthY    float64   `json:"length_y"`
	DeltaT     float64   `json:"dt"`
	Iterations int       `json:"iterations"`
	ImagTime   bool      `json:"imag_time"`
	Kernel     string    `json:"kernel"`
	ProcsX     int       `json:"procs_x"`
	ProcsY     int       `json:"procs_y"`
	Components int       `json:"components"`
}

// CreateRun makes the run directory and writes its manifest. When the
// directory cannot be created the run degrades to the working
// directory rather than aborting.
func (s *Store) CreateRun(meta RunMetadata) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Preset, time.Now().Unix())
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "storage: cannot create %s (%v), writing to current directory\n", runDir, err)
		runDir = "."
	}

	f, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return runDir, errors.Wrap(err, "storage: metadata")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return runDir, errors.Wrap(enc.Encode(meta), "storage: metadata")
}

// List returns the manifests of every run under the store.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "storage: list")
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load reads one run's manifest.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, errors.Wrap(err, "storage: load")
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(err, "storage: load")
	}
	return &meta, nil
}
