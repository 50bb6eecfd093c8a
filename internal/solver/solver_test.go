package solver

import (
	"math"
	"testing"

	"github.com/skern/trotter/internal/lattice"
	"github.com/skern/trotter/internal/physics"
	"github.com/skern/trotter/internal/state"
)

func TestFreeParticlePlaneWave(t *testing.T) {
	// Periodic free particle: ψ0 = exp(ikx) with k = 2π/L picks up the
	// phase exp(−i·k²/(2m)·T) and nothing else.
	const (
		n     = 256
		iters = 1000
		dt    = 1e-3
	)
	// A wide box keeps the bond angle Δt/(4·m·dx²) small, which is the
	// regime the splitting is meant for.
	length := 100.0
	l, err := lattice.New1D(n, length, true, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	st := state.NewPlaneWave(l, 1, 0, 1)
	ref := st.Clone()

	h := &physics.Hamiltonian{Mass: 1, Potential: physics.Zero{}}
	s, err := New(l, st, h, dt, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Evolve(iters, false); err != nil {
		t.Fatal(err)
	}

	k := 2 * math.Pi / length
	phase := -k * k / 2 * float64(iters) * dt
	c, sn := math.Cos(phase), math.Sin(phase)
	worst := 0.0
	for i := range st.PReal {
		wantRe := c*ref.PReal[i] - sn*ref.PImag[i]
		wantIm := c*ref.PImag[i] + sn*ref.PReal[i]
		diff := math.Hypot(st.PReal[i]-wantRe, st.PImag[i]-wantIm)
		if diff > worst {
			worst = diff
		}
	}
	if worst > 1e-4 {
		t.Errorf("plane-wave phase error %g, want < 1e-4", worst)
	}
}

func TestPlaneWaveKineticEnergy(t *testing.T) {
	l, err := lattice.New1D(256, 2*math.Pi, true, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	st := state.NewPlaneWave(l, 2, 0, 1)
	h := &physics.Hamiltonian{Mass: 1, Potential: physics.Zero{}}
	s, err := New(l, st, h, 1e-3, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}

	want := 2.0 // k²/2m with k = 2
	if got := s.GetKineticEnergy(1); math.Abs(got-want) > 1e-3 {
		t.Errorf("kinetic energy = %g, want %g", got, want)
	}
	if got := s.GetPotentialEnergy(1); math.Abs(got) > 1e-12 {
		t.Errorf("potential energy = %g, want 0", got)
	}
	if got := s.GetSquaredNorm(1); math.Abs(got-1) > 1e-12 {
		t.Errorf("squared norm = %g, want 1", got)
	}
}

func TestHarmonicOscillatorStationaryEnergy(t *testing.T) {
	// Ground state of the 2-D isotropic trap displaced by x0 = 1
	// (E = 1.5): the energy is stationary and ⟨x⟩ follows the classical
	// oscillation. The grid is fine enough (dx = 0.05) that the
	// fourth-order energy stencil and the pair-rotation kinetic step
	// agree to well within the tolerance as the packet gains momentum.
	l, err := lattice.New2D(300, 300, 15, 15, false, false, 0, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	st := state.NewGaussian(l, 1, 1, 0, 1)
	h := &physics.Hamiltonian{
		Mass:      1,
		Potential: &physics.Harmonic{Lat: l, OmegaX: 1, OmegaY: 1},
	}
	s, err := New(l, st, h, 1e-3, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}

	e0 := s.GetTotalEnergy()
	// Quarter period: the displaced packet crosses the origin.
	quarter := int(math.Round(math.Pi / 2 / 1e-3))
	if err := s.Evolve(quarter, false); err != nil {
		t.Fatal(err)
	}
	e1 := s.GetTotalEnergy()

	if math.Abs(e1-e0) > 1e-3*math.Abs(e0) {
		t.Errorf("energy not stationary: %g -> %g", e0, e1)
	}
	if x := st.MeanX(s.Comm); math.Abs(x) > 0.02 {
		t.Errorf("⟨x⟩ = %g after a quarter period, want ~0", x)
	}
}

func TestRotationCentreOfMass(t *testing.T) {
	// Free packet in a rotating frame: the angular term commutes with
	// the kinetic one, the mean momentum stays zero, and the centre of
	// mass turns rigidly at Ω while the packet spreads symmetrically.
	const (
		omega = 0.5
		dt    = 2e-3
		iters = 786
	)
	l, err := lattice.New2D(128, 128, 16, 16, false, false, omega, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	st := state.NewGaussian(l, 1, 2, 0, 1)
	h := &physics.Hamiltonian{Mass: 1, AngularVelocity: omega, Potential: physics.Zero{}}
	s, err := New(l, st, h, dt, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}

	r0 := math.Hypot(st.MeanX(s.Comm), st.MeanY(s.Comm))
	phi0 := math.Atan2(st.MeanY(s.Comm), st.MeanX(s.Comm))

	if err := s.Evolve(iters, false); err != nil {
		t.Fatal(err)
	}

	x, y := st.MeanX(s.Comm), st.MeanY(s.Comm)
	want := omega * float64(iters) * dt
	if got := math.Atan2(y, x) - phi0; math.Abs(got-want) > 0.02*want {
		t.Errorf("centre of mass advanced by %g rad, want %g within 2%%", got, want)
	}
	if r := math.Hypot(x, y); math.Abs(r-r0) > 0.02*r0 {
		t.Errorf("centre-of-mass radius drifted: %g -> %g", r0, r)
	}
}

func TestImagTimeGroundState(t *testing.T) {
	if testing.Short() {
		t.Skip("imaginary-time quench is slow")
	}
	// Quench from noise into the 2-D harmonic ground state: energy
	// decreases monotonically towards E0 = 1.
	l, err := lattice.New2D(64, 64, 12, 12, false, false, 0, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	st := state.NewUniformNoise(l, 42, 1)
	h := &physics.Hamiltonian{
		Mass:      1,
		Potential: &physics.Harmonic{Lat: l, OmegaX: 1, OmegaY: 1},
	}
	s, err := New(l, st, h, 2e-3, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}

	prev := math.Inf(1)
	for batch := 0; batch < 10; batch++ {
		if err := s.Evolve(500, true); err != nil {
			t.Fatal(err)
		}
		e := s.GetTotalEnergy()
		if e > prev+1e-9 {
			t.Fatalf("batch %d: energy grew %g -> %g", batch, prev, e)
		}
		prev = e
	}
	if math.Abs(prev-1) > 1e-3 {
		t.Errorf("ground-state energy = %g, want 1", prev)
	}
	if n := s.GetSquaredNorm(1); math.Abs(n-1) > 1e-10 {
		t.Errorf("renormalised norm = %g, want 1", n)
	}
}

func TestPotentialChangeLatency(t *testing.T) {
	// A potential whose Update first reports a change at t* must take
	// effect at exactly that iteration: switching it by hand at the
	// same boundary produces the identical state.
	const n = 64
	l, err := lattice.New1D(n, 10, true, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	const dt = 1e-3
	v0 := 0.7
	step := func(x, y, tt float64) float64 {
		if tt >= 6*dt {
			return v0
		}
		return 0
	}

	a := state.NewGaussian(l, 1, 0, 0, 1)
	ha := &physics.Hamiltonian{Mass: 1, Potential: &physics.TimeDependent{Lat: l, F: step}}
	sa, err := New(l, a, ha, dt, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := sa.Evolve(10, false); err != nil {
		t.Fatal(err)
	}

	b := state.NewGaussian(l, 1, 0, 0, 1)
	hb := &physics.Hamiltonian{Mass: 1, Potential: physics.Zero{}}
	sb, err := New(l, b, hb, dt, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := sb.Evolve(6, false); err != nil {
		t.Fatal(err)
	}
	hb.Potential = &physics.Func{Lat: l, F: func(x, y float64) float64 { return v0 }}
	sb.UpdateParameters()
	if err := sb.Evolve(4, false); err != nil {
		t.Fatal(err)
	}

	for i := range a.PReal {
		if math.Abs(a.PReal[i]-b.PReal[i]) > 1e-12 || math.Abs(a.PImag[i]-b.PImag[i]) > 1e-12 {
			t.Fatalf("states diverge at %d: (%g,%g) vs (%g,%g)",
				i, a.PReal[i], a.PImag[i], b.PReal[i], b.PImag[i])
		}
	}
}

func TestRabiEnergySelectors(t *testing.T) {
	l, err := lattice.New1D(32, 10, true, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	a := state.NewGaussian(l, 1, 0, 0, 1)
	b := state.NewGaussian(l, 1, 0, 0, 1)
	h := &physics.Hamiltonian2Component{
		Hamiltonian: physics.Hamiltonian{Mass: 1, Potential: physics.Zero{}},
		MassB:       1,
		PotentialB:  physics.Zero{},
		OmegaR:      1,
	}
	s, err := NewTwoComponent(l, a, b, h, 1e-3, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}

	if n := s.GetSquaredNorm(3); math.Abs(n-2) > 1e-10 {
		t.Errorf("total norm = %g, want 2", n)
	}
	// ψa = ψb: E_rabi = Re ω ∫ψa*ψb / (norm_a·norm_b) = 1.
	if e := s.GetRabiEnergy(); math.Abs(e-1) > 1e-10 {
		t.Errorf("rabi energy = %g, want 1", e)
	}
	if got := s.GetSquaredNorm(7); got != 0 {
		t.Errorf("bad selector returned %g, want 0", got)
	}
}

func TestSingleComponentSelectors(t *testing.T) {
	l, err := lattice.New1D(32, 10, true, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	st := state.NewGaussian(l, 1, 0, 0, 1)
	h := &physics.Hamiltonian{Mass: 1, Potential: physics.Zero{}}
	s, err := New(l, st, h, 1e-3, "cpu", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.GetSquaredNorm(2); got != 0 {
		t.Errorf("second-component norm of single-component system = %g, want 0", got)
	}
	if got := s.GetInterSpeciesEnergy(); got != 0 {
		t.Errorf("inter-species energy of single-component system = %g, want 0", got)
	}
}

func TestValidationErrors(t *testing.T) {
	l, err := lattice.New1D(32, 10, true, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	st := state.NewGaussian(l, 1, 0, 0, 1)

	if _, err := New(l, st, &physics.Hamiltonian{Mass: -1, Potential: physics.Zero{}}, 1e-3, "cpu", nil); err == nil {
		t.Error("negative mass accepted")
	}
	if _, err := New(l, st, &physics.Hamiltonian{Mass: 1, Potential: physics.Zero{}}, 0, "cpu", nil); err == nil {
		t.Error("zero timestep accepted")
	}
	s, err := New(l, st, &physics.Hamiltonian{Mass: 1, Potential: physics.Zero{}}, 1e-3, "hologram", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Evolve(1, false); err == nil {
		t.Error("unknown kernel accepted")
	}
}
