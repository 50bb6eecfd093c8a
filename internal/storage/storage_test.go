package storage

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/skern/trotter/internal/lattice"
	"github.com/skern/trotter/internal/topology"
)

func TestSnapshotRoundTrip(t *testing.T) {
	l, err := lattice.New2D(8, 6, 4, 3, false, false, 0, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	comm := topology.New(1, 1, false, false).Comm(0)

	field := make([]float64, 8*6)
	for i := range field {
		field[i] = math.Sqrt2 * float64(i+1) / 7
	}

	dir := t.TempDir()
	for _, format := range []string{FormatASCII, FormatBinary} {
		if err := WriteSnapshot(comm, l, field, dir, "density", 42, format); err != nil {
			t.Fatal(err)
		}
		got, err := ReadSnapshot(filepath.Join(dir, "density_42"), len(field), format)
		if err != nil {
			t.Fatal(err)
		}
		for i := range field {
			if got[i] != field[i] {
				t.Fatalf("%s: value %d = %v, want %v", format, i, got[i], field[i])
			}
		}
	}
}

func TestAssembleCartesianOrder(t *testing.T) {
	// Two ranks side by side: the global field must interleave the
	// tiles column-block by column-block.
	const nx, ny = 16, 2
	topo := topology.New(2, 1, false, false)
	var globals [2][]float64
	err := topo.Run(func(c *topology.Comm) error {
		l, err := lattice.New2D(nx, ny, 16, 2, false, false, 0, c.Grid())
		if err != nil {
			return err
		}
		tile := make([]float64, l.InnerWidth()*l.InnerHeight())
		for j := 0; j < l.InnerHeight(); j++ {
			for i := 0; i < l.InnerWidth(); i++ {
				gx := l.InnerStartX + i
				gy := l.InnerStartY + j
				tile[j*l.InnerWidth()+i] = float64(gy*nx + gx)
			}
		}
		globals[c.Rank()] = Assemble(c, l, tile)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for r, global := range globals {
		for i, v := range global {
			if v != float64(i) {
				t.Fatalf("rank %d: global[%d] = %v", r, i, v)
			}
		}
	}
}

func TestStoreCreateAndList(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "runs"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	dir, err := store.CreateRun(RunMetadata{
		ID: "test_1", Preset: "free-particle", Timestamp: time.Now(),
		GridNX: 64, GridNY: 1, DeltaT: 1e-3, Iterations: 100,
		Kernel: "cpu", ProcsX: 1, ProcsY: 1, Components: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != "test_1" {
		t.Errorf("run dir = %s", dir)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Preset != "free-particle" {
		t.Errorf("listed runs: %+v", runs)
	}

	meta, err := store.Load("test_1")
	if err != nil {
		t.Fatal(err)
	}
	if meta.GridNX != 64 {
		t.Errorf("loaded grid nx = %d", meta.GridNX)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	hist, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer hist.Close()

	for i := 0; i < 3; i++ {
		err := hist.Record(Sample{
			Iter: (i + 1) * 100, Time: float64(i+1) * 0.1,
			Norm2: 1, Total: 1.5 - 0.1*float64(i), Kinetic: 0.5, Potential: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	samples, err := hist.Samples()
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples", len(samples))
	}
	if samples[0].Iter != 100 || samples[2].Iter != 300 {
		t.Errorf("samples out of order: %+v", samples)
	}
	if math.Abs(samples[1].Total-1.4) > 1e-15 {
		t.Errorf("sample value %g", samples[1].Total)
	}
}
