package physics

import (
	"github.com/skern/trotter/internal/lattice"
)

// Potential is the external potential sampled at global grid indices.
// Update advances the potential's own clock and reports whether the
// discretised values diverged from what a caller may have cached; a
// stale false is safe, a missed true is not.
type Potential interface {
	Value(i, j int) float64
	Update(t float64) bool
}

// Func adapts a time-independent V(x,y) to the grid.
type Func struct {
	Lat *lattice.Lattice
	F   func(x, y float64) float64
}

func (p *Func) Value(i, j int) float64 {
	return p.F(p.Lat.X(p.Lat.WrapX(i)), p.Lat.Y(p.Lat.WrapY(j)))
}

func (p *Func) Update(float64) bool { return false }

// Zero is the free-particle potential.
type Zero struct{}

func (Zero) Value(int, int) float64 { return 0 }
func (Zero) Update(float64) bool    { return false }

// Harmonic is the anisotropic harmonic trap
// V = (ωx²(x−x0)² + ωy²(y−y0)²)/2.
type Harmonic struct {
	Lat          *lattice.Lattice
	OmegaX, OmegaY float64
	X0, Y0        float64
}

func (p *Harmonic) Value(i, j int) float64 {
	x := p.Lat.X(p.Lat.WrapX(i)) - p.X0
	v := 0.5 * p.OmegaX * p.OmegaX * x * x
	if p.Lat.Dim == 2 {
		y := p.Lat.Y(p.Lat.WrapY(j)) - p.Y0
		v += 0.5 * p.OmegaY * p.OmegaY * y * y
	}
	return v
}

func (p *Harmonic) Update(float64) bool { return false }

// TimeDependent wraps V(x,y,t). Every Update with a new time reports a
// change, so the exponentiated-potential cache is rebuilt exactly when
// the clock moves.
type TimeDependent struct {
	Lat *lattice.Lattice
	F   func(x, y, t float64) float64

	now float64
}

func (p *TimeDependent) Value(i, j int) float64 {
	return p.F(p.Lat.X(p.Lat.WrapX(i)), p.Lat.Y(p.Lat.WrapY(j)), p.now)
}

func (p *TimeDependent) Update(t float64) bool {
	if t == p.now {
		return false
	}
	p.now = t
	return true
}
