package state

import (
	"math"
	"strings"
	"testing"

	"github.com/skern/trotter/internal/lattice"
)

func lat1D(t *testing.T, n int, length float64, periodic bool) *lattice.Lattice {
	t.Helper()
	l, err := lattice.New1D(n, length, periodic, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestGaussianNorm(t *testing.T) {
	l, err := lattice.New2D(256, 256, 20, 20, false, false, 0, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	s := NewGaussian(l, 1, 0, 0, 1)
	if n := s.SquaredNorm(nil); math.Abs(n-1) > 1e-6 {
		t.Errorf("gaussian squared norm = %g, want 1", n)
	}
}

func TestPlaneWaveUniformDensity(t *testing.T) {
	l := lat1D(t, 128, 2*math.Pi, true)
	s := NewPlaneWave(l, 1, 0, 1)
	if n := s.SquaredNorm(nil); math.Abs(n-1) > 1e-12 {
		t.Errorf("plane wave squared norm = %g, want 1", n)
	}
	d := s.DensityField()
	for i, v := range d {
		if math.Abs(v-d[0]) > 1e-13 {
			t.Fatalf("density not uniform at %d: %g vs %g", i, v, d[0])
		}
	}
}

func TestPlaneWaveMomentum(t *testing.T) {
	l := lat1D(t, 256, 2*math.Pi, true)
	s := NewPlaneWave(l, 2, 0, 1)
	k := 2.0 // 2π·2/L with L = 2π
	if p := s.MeanPx(nil); math.Abs(p-k) > 1e-3 {
		t.Errorf("⟨p⟩ = %g, want %g", p, k)
	}
	if p2 := s.MeanPxPx(nil); math.Abs(p2-k*k) > 1e-2 {
		t.Errorf("⟨p²⟩ = %g, want %g", p2, k*k)
	}
}

func TestGaussianMoments(t *testing.T) {
	l, err := lattice.New2D(200, 200, 24, 24, false, false, 0, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	s := NewGaussian(l, 1, 1.5, -0.5, 1)
	if x := s.MeanX(nil); math.Abs(x-1.5) > 1e-8 {
		t.Errorf("⟨x⟩ = %g, want 1.5", x)
	}
	if y := s.MeanY(nil); math.Abs(y+0.5) > 1e-8 {
		t.Errorf("⟨y⟩ = %g, want -0.5", y)
	}
	// Var(x) = 1/(2ω) for the Gaussian ground state.
	varX := s.MeanXX(nil) - s.MeanX(nil)*s.MeanX(nil)
	if math.Abs(varX-0.5) > 1e-6 {
		t.Errorf("Var(x) = %g, want 0.5", varX)
	}
}

func TestPhaseField(t *testing.T) {
	l := lat1D(t, 64, 2*math.Pi, true)
	s := NewPlaneWave(l, 1, 0, 1)
	ph := s.PhaseField()
	off := l.InnerStartX - l.StartX
	for i := 0; i < len(ph); i++ {
		want := math.Atan2(s.PImag[off+i], s.PReal[off+i])
		if ph[i] != want {
			t.Fatalf("phase mismatch at %d", i)
		}
	}
}

func TestScaleAndInvalidate(t *testing.T) {
	l := lat1D(t, 64, 1, false)
	s := NewSinusoid(l, 1, 0, 1)
	n0 := s.SquaredNorm(nil)
	if !s.ExpectedValuesUpdated {
		// SquaredNorm does not populate the moment cache.
		s.MeanX(nil)
	}
	s.Scale(2)
	if s.ExpectedValuesUpdated {
		t.Error("scale should invalidate caches")
	}
	if n := s.SquaredNorm(nil); math.Abs(n-4*n0) > 1e-12 {
		t.Errorf("scaled norm = %g, want %g", n, 4*n0)
	}
}

func TestStateFileRoundTrip(t *testing.T) {
	l := lat1D(t, 64, 2*math.Pi, true)
	s := NewPlaneWave(l, 3, 0, 1)

	var buf strings.Builder
	if err := s.Write(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := Read(l, strings.NewReader(buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	for i := range s.PReal {
		if got.PReal[i] != s.PReal[i] || got.PImag[i] != s.PImag[i] {
			t.Fatalf("cell %d: (%g,%g) vs (%g,%g)", i, got.PReal[i], got.PImag[i], s.PReal[i], s.PImag[i])
		}
	}
}

func TestUniformNoiseDeterministic(t *testing.T) {
	full, err := lattice.New2D(32, 32, 8, 8, true, true, 0, lattice.Single)
	if err != nil {
		t.Fatal(err)
	}
	a := NewUniformNoise(full, 7, 1)
	b := NewUniformNoise(full, 7, 1)
	for i := range a.PReal {
		if a.PReal[i] != b.PReal[i] {
			t.Fatal("noise state not deterministic")
		}
	}
	if !a.Valid() {
		t.Error("noise state contains non-finite values")
	}
}
