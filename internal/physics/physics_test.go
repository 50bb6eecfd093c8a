package physics

import (
	"math"
	"testing"

	"github.com/skern/trotter/internal/lattice"
)

func TestHarmonicPotentialCentred(t *testing.T) {
	l, err := lattice.New2D(64, 64, 16, 16, false, false, 0, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	p := &Harmonic{Lat: l, OmegaX: 1, OmegaY: 2}

	// Symmetric about the trap centre.
	if v0, v1 := p.Value(10, 32), p.Value(53, 32); math.Abs(v0-v1) > 1e-12 {
		t.Errorf("x symmetry broken: %g vs %g", v0, v1)
	}
	x := l.X(10)
	y := l.Y(20)
	want := 0.5*x*x + 2*y*y
	if v := p.Value(10, 20); math.Abs(v-want) > 1e-12 {
		t.Errorf("V = %g, want %g", v, want)
	}
	if p.Update(3.0) {
		t.Error("static potential reported a change")
	}
}

func TestTimeDependentUpdate(t *testing.T) {
	l, err := lattice.New1D(32, 10, false, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	p := &TimeDependent{Lat: l, F: func(x, y, tt float64) float64 { return tt * x }}

	if p.Update(0) {
		t.Error("unchanged clock reported a change")
	}
	if !p.Update(0.5) {
		t.Error("moved clock reported no change")
	}
	x := l.X(5)
	if v := p.Value(5, 0); math.Abs(v-0.5*x) > 1e-12 {
		t.Errorf("V = %g, want %g", v, 0.5*x)
	}
}

func TestHamiltonianValidation(t *testing.T) {
	h := &Hamiltonian{Mass: 1, Potential: Zero{}}
	if err := h.Validate(); err != nil {
		t.Errorf("valid hamiltonian rejected: %v", err)
	}
	h.Mass = 0
	if err := h.Validate(); err == nil {
		t.Error("zero mass accepted")
	}

	h2 := &Hamiltonian2Component{
		Hamiltonian: Hamiltonian{Mass: 1, Potential: Zero{}},
		MassB:       -2,
		PotentialB:  Zero{},
	}
	if err := h2.Validate(); err == nil {
		t.Error("negative second mass accepted")
	}
	h2.MassB = 1
	h2.OmegaR, h2.OmegaI = 3, 4
	if err := h2.Validate(); err != nil {
		t.Errorf("valid two-component hamiltonian rejected: %v", err)
	}
	if math.Abs(h2.OmegaAbs()-5) > 1e-15 {
		t.Errorf("|ω| = %g, want 5", h2.OmegaAbs())
	}
}
