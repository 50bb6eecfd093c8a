// Package experiment wires a configuration into lattices, states and
// solvers across the process grid and drives the evolution in
// snapshot-sized batches.
package experiment

import (
	"path/filepath"
	"time"

	"github.com/skern/trotter/internal/config"
	"github.com/skern/trotter/internal/solver"
	"github.com/skern/trotter/internal/storage"
	"github.com/skern/trotter/internal/topology"
)

// Progress is one batch boundary seen by the observer (rank 0 only).
type Progress struct {
	Iter      int
	Time      float64
	Norm2     float64
	Total     float64
	Kinetic   float64
	Potential float64
}

type Observer func(Progress)

// Result summarises a finished run.
type Result struct {
	RunDir  string
	Samples []storage.Sample
	Final   Progress
	Elapsed time.Duration
}

// Run executes the configured evolution on a PX×PY goroutine grid.
// Snapshots, history and observer callbacks happen at batch
// boundaries; the observer is invoked from rank 0.
func Run(cfg *config.Config, store *storage.Store, observe Observer) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	components := 1
	if cfg.SecondComponent != nil {
		components = 2
	}
	runDir := "."
	var hist *storage.History
	if store != nil {
		var err error
		runDir, err = store.CreateRun(storage.RunMetadata{
			Preset:     cfg.Preset,
			Timestamp:  time.Now(),
			GridNX:     cfg.Grid.NX,
			GridNY:     cfg.Grid.NY,
			LengthX:    cfg.Grid.LengthX,
			LengthY:    cfg.Grid.LengthY,
			DeltaT:     cfg.Time.Dt,
			Iterations: cfg.Time.Iterations,
			ImagTime:   cfg.Time.ImagTime,
			Kernel:     cfg.Kernel,
			ProcsX:     cfg.Procs.PX,
			ProcsY:     cfg.Procs.PY,
			Components: components,
		})
		if err != nil {
			return nil, err
		}
		hist, err = storage.OpenHistory(filepath.Join(runDir, "history.db"))
		if err != nil {
			return nil, err
		}
		defer hist.Close()
	}

	topo := topology.New(cfg.Procs.PX, cfg.Procs.PY, cfg.Grid.PeriodicX, cfg.Grid.Dim == 2 && cfg.Grid.PeriodicY)
	result := &Result{RunDir: runDir}
	started := time.Now()

	err := topo.Run(func(c *topology.Comm) error {
		l, err := BuildLattice(cfg, c.Grid())
		if err != nil {
			return err
		}
		st, err := BuildInitialState(l, cfg.InitState)
		if err != nil {
			return err
		}
		h, h2, err := BuildHamiltonians(l, cfg)
		if err != nil {
			return err
		}

		var sv *solver.Solver
		if h2 != nil {
			stB, err := BuildInitialState(l, cfg.SecondComponent.InitState)
			if err != nil {
				return err
			}
			sv, err = solver.NewTwoComponent(l, st, stB, h2, cfg.Time.Dt, cfg.Kernel, c)
			if err != nil {
				return err
			}
		} else {
			sv, err = solver.New(l, st, h, cfg.Time.Dt, cfg.Kernel, c)
			if err != nil {
				return err
			}
		}

		batch := cfg.Time.SnapshotEvery
		if batch <= 0 || batch > cfg.Time.Iterations {
			batch = cfg.Time.Iterations
		}

		snapshot := func(iter int) error {
			for _, tag := range cfg.Output.Tags {
				var field []float64
				switch tag {
				case "phase":
					field = st.PhaseField()
				default:
					field = st.DensityField()
				}
				if err := storage.WriteSnapshot(c, l, field, runDir, tag, iter, cfg.Output.Format); err != nil && c.Rank() == 0 {
					return err
				}
			}
			return nil
		}

		report := func(iter int) Progress {
			return Progress{
				Iter:      iter,
				Time:      sv.EvolutionTime(),
				Norm2:     sv.GetSquaredNorm(3),
				Total:     sv.GetTotalEnergy(),
				Kinetic:   sv.GetKineticEnergy(3),
				Potential: sv.GetPotentialEnergy(3),
			}
		}

		if err := snapshot(0); err != nil {
			return err
		}
		for done := 0; done < cfg.Time.Iterations; {
			n := batch
			if done+n > cfg.Time.Iterations {
				n = cfg.Time.Iterations - done
			}
			if err := sv.Evolve(n, cfg.Time.ImagTime); err != nil {
				return err
			}
			done += n

			p := report(done)
			if err := snapshot(done); err != nil {
				return err
			}
			if c.Rank() == 0 {
				sample := storage.Sample{
					Iter: p.Iter, Time: p.Time, Norm2: p.Norm2,
					Total: p.Total, Kinetic: p.Kinetic, Potential: p.Potential,
				}
				result.Samples = append(result.Samples, sample)
				result.Final = p
				if hist != nil {
					if err := hist.Record(sample); err != nil {
						return err
					}
				}
				if observe != nil {
					observe(p)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(started)
	return result, nil
}
