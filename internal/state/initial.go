package state

import (
	"math"

	"github.com/skern/trotter/internal/lattice"
)

// Library initial states. Each returns a state whose squared norm over
// the global grid approximates the requested value (the noise state
// matches it exactly); an explicit Scale can tighten it.

// NewGaussian builds exp(−ω((x−x0)² + (y−y0)²)/2) scaled to norm².
func NewGaussian(l *lattice.Lattice, omega, x0, y0, norm2 float64) *State {
	var amp float64
	if l.Dim == 1 {
		amp = math.Sqrt(norm2 * math.Sqrt(omega/math.Pi))
	} else {
		amp = math.Sqrt(norm2 * omega / math.Pi)
	}
	return New(l, func(x, y float64) float64 {
		dx, dy := x-x0, y-y0
		return amp * math.Exp(-omega*(dx*dx+dy*dy)/2)
	}, nil)
}

// NewSinusoid builds sin(π nx (x/Lx + 1/2))·sin(π ny (y/Ly + 1/2)),
// which vanishes on the domain edges and so respects Dirichlet walls.
func NewSinusoid(l *lattice.Lattice, nx, ny int, norm2 float64) *State {
	ampX := math.Sqrt(2 / l.LengthX)
	ampY := 1.0
	if l.Dim == 2 {
		ampY = math.Sqrt(2 / l.LengthY)
	}
	amp := math.Sqrt(norm2) * ampX * ampY
	return New(l, func(x, y float64) float64 {
		v := amp * math.Sin(math.Pi*float64(nx)*(x/l.LengthX+0.5))
		if l.Dim == 2 {
			v *= math.Sin(math.Pi * float64(ny) * (y/l.LengthY + 0.5))
		}
		return v
	}, nil)
}

// NewPlaneWave builds exp(i(kx·x + ky·y)) with wavenumbers quantised to
// the periodic box, kx = 2π nx / Lx. Only meaningful on periodic axes.
func NewPlaneWave(l *lattice.Lattice, nx, ny int, norm2 float64) *State {
	kx := 2 * math.Pi * float64(nx) / l.LengthX
	ky := 0.0
	area := l.LengthX
	if l.Dim == 2 {
		ky = 2 * math.Pi * float64(ny) / l.LengthY
		area *= l.LengthY
	}
	amp := math.Sqrt(norm2 / area)
	re := func(x, y float64) float64 { return amp * math.Cos(kx*x+ky*y) }
	im := func(x, y float64) float64 { return amp * math.Sin(kx*x+ky*y) }
	return New(l, re, im)
}

// NewUniformNoise fills the tile with deterministic pseudo-random
// amplitudes, the usual seed for an imaginary-time quench. The values
// depend only on the global cell index, so any decomposition produces
// the same field, and the amplitude is set from the sum over the whole
// global grid so the squared norm equals norm2.
func NewUniformNoise(l *lattice.Lattice, seed int64, norm2 float64) *State {
	sum := 0.0
	for gy := 0; gy < l.GlobalNY; gy++ {
		for gx := 0; gx < l.GlobalNX; gx++ {
			u := hashUnit(seed, gx, gy)
			sum += u * u
		}
	}
	amp := math.Sqrt(norm2 / (sum * l.DeltaV()))
	s := Zero(l)
	for j := 0; j < l.DimY; j++ {
		gy := l.WrapY(l.StartY + j)
		for i := 0; i < l.DimX; i++ {
			gx := l.WrapX(l.StartX + i)
			s.PReal[j*l.DimX+i] = amp * hashUnit(seed, gx, gy)
		}
	}
	return s
}

// hashUnit maps (seed, i, j) to a deterministic value in (0, 1].
func hashUnit(seed int64, i, j int) float64 {
	h := uint64(seed)*0x9e3779b97f4a7c15 + uint64(i)*0xbf58476d1ce4e5b9 + uint64(j)*0x94d049bb133111eb
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	return float64(h%1000000+1) / 1000000
}
