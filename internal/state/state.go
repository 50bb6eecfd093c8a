package state

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/skern/trotter/internal/lattice"
)

// Reducer sums a per-rank scalar across the process grid. The zero
// value (nil) reduces locally, which is correct for single-rank runs.
type Reducer interface {
	SumAll(v float64) float64
}

// Fourth-order first-derivative stencil, in units of 1/dx.
var deriv1 = [5]float64{1.0 / 12, -2.0 / 3, 0, 2.0 / 3, -1.0 / 12}

// Fourth-order second-derivative stencil, in units of 1/dx².
var deriv2 = [5]float64{-1.0 / 12, 4.0 / 3, -5.0 / 2, 4.0 / 3, -1.0 / 12}

// State holds one complex scalar field on the local tile, halo cells
// included. Only the inner sub-box is authoritative; halo cells are
// replicas refreshed by the exchange.
type State struct {
	Lat   *lattice.Lattice
	PReal []float64
	PImag []float64

	// ExpectedValuesUpdated marks the moment caches as fresh. Evolution
	// clears it.
	ExpectedValuesUpdated bool

	meanX, meanXX, meanY, meanYY     float64
	meanPx, meanPxPx, meanPy, meanPyPy float64
	norm2                            float64
}

// InitFunc evaluates one part of the initial wavefunction at a physical
// coordinate.
type InitFunc func(x, y float64) float64

// New builds a state from real and imaginary part functions, evaluated
// at every tile cell through the periodic wrap.
func New(l *lattice.Lattice, re, im InitFunc) *State {
	s := Zero(l)
	for j := 0; j < l.DimY; j++ {
		gy := l.WrapY(l.StartY + j)
		y := l.Y(gy)
		for i := 0; i < l.DimX; i++ {
			gx := l.WrapX(l.StartX + i)
			x := l.X(gx)
			s.PReal[j*l.DimX+i] = re(x, y)
			if im != nil {
				s.PImag[j*l.DimX+i] = im(x, y)
			}
		}
	}
	return s
}

// Zero allocates an empty state on the tile.
func Zero(l *lattice.Lattice) *State {
	n := l.DimX * l.DimY
	return &State{Lat: l, PReal: make([]float64, n), PImag: make([]float64, n)}
}

// Clone copies the full tile.
func (s *State) Clone() *State {
	c := Zero(s.Lat)
	copy(c.PReal, s.PReal)
	copy(c.PImag, s.PImag)
	return c
}

// Invalidate marks every cached expectation value stale.
func (s *State) Invalidate() { s.ExpectedValuesUpdated = false }

func reduce(r Reducer, v float64) float64 {
	if r == nil {
		return v
	}
	return r.SumAll(v)
}

// SquaredNorm returns ∑|ψ|²·dV over the inner box, reduced across the
// process grid.
func (s *State) SquaredNorm(r Reducer) float64 {
	l := s.Lat
	sum := 0.0
	for j := l.InnerStartY - l.StartY; j < l.InnerEndY-l.StartY; j++ {
		row := j * l.DimX
		for i := l.InnerStartX - l.StartX; i < l.InnerEndX-l.StartX; i++ {
			re, im := s.PReal[row+i], s.PImag[row+i]
			sum += re*re + im*im
		}
	}
	return reduce(r, sum) * l.DeltaV()
}

// DensityField extracts |ψ|² on the inner box, row-major.
func (s *State) DensityField() []float64 {
	l := s.Lat
	w, h := l.InnerWidth(), l.InnerHeight()
	out := make([]float64, w*h)
	for j := 0; j < h; j++ {
		row := (j + l.InnerStartY - l.StartY) * l.DimX
		off := l.InnerStartX - l.StartX
		for i := 0; i < w; i++ {
			re, im := s.PReal[row+off+i], s.PImag[row+off+i]
			out[j*w+i] = re*re + im*im
		}
	}
	return out
}

// PhaseField extracts atan2(Im ψ, Re ψ) on the inner box, row-major.
func (s *State) PhaseField() []float64 {
	l := s.Lat
	w, h := l.InnerWidth(), l.InnerHeight()
	out := make([]float64, w*h)
	for j := 0; j < h; j++ {
		row := (j + l.InnerStartY - l.StartY) * l.DimX
		off := l.InnerStartX - l.StartX
		for i := 0; i < w; i++ {
			out[j*w+i] = math.Atan2(s.PImag[row+off+i], s.PReal[row+off+i])
		}
	}
	return out
}

// stencilBounds returns the local-index range of inner cells whose
// 2-wide stencil along an axis stays inside tile data: cells closer
// than two points to an edge without halo are skipped.
func stencilBounds(innerLo, innerHi, haloLo, haloHi int) (lo, hi int) {
	lo, hi = innerLo, innerHi
	if haloLo == 0 {
		lo += 2
	}
	if haloHi == 0 {
		hi -= 2
	}
	return lo, hi
}

func (s *State) updateMoments(r Reducer) {
	if s.ExpectedValuesUpdated {
		return
	}
	l := s.Lat

	var sumN, sumX, sumXX, sumY, sumYY float64
	var sumPx, sumPxPx, sumPy, sumPyPy float64

	isx, iex := l.InnerStartX-l.StartX, l.InnerEndX-l.StartX
	isy, iey := l.InnerStartY-l.StartY, l.InnerEndY-l.StartY
	hl, hr, hd, hu := l.HaloPresent()
	sxLo, sxHi := stencilBounds(isx, iex, hl, hr)
	syLo, syHi := stencilBounds(isy, iey, hd, hu)
	if l.Dim == 1 {
		syLo, syHi = isy, iey
	}

	for j := isy; j < iey; j++ {
		gy := l.StartY + j
		y := l.Y(l.WrapY(gy))
		row := j * l.DimX
		for i := isx; i < iex; i++ {
			gx := l.StartX + i
			x := l.X(l.WrapX(gx))
			re, im := s.PReal[row+i], s.PImag[row+i]
			d := re*re + im*im
			sumN += d
			sumX += x * d
			sumXX += x * x * d
			sumY += y * d
			sumYY += y * y * d

			if i >= sxLo && i < sxHi {
				var dRe, dIm, ddRe, ddIm float64
				for k := -2; k <= 2; k++ {
					dRe += deriv1[k+2] * s.PReal[row+i+k]
					dIm += deriv1[k+2] * s.PImag[row+i+k]
					ddRe += deriv2[k+2] * s.PReal[row+i+k]
					ddIm += deriv2[k+2] * s.PImag[row+i+k]
				}
				dRe /= l.DeltaX
				dIm /= l.DeltaX
				ddRe /= l.DeltaX * l.DeltaX
				ddIm /= l.DeltaX * l.DeltaX
				// ⟨p⟩ = Im(ψ* ∂ψ), ⟨p²⟩ = -Re(ψ* ∂²ψ).
				sumPx += re*dIm - im*dRe
				sumPxPx -= re*ddRe + im*ddIm
			}
			if l.Dim == 2 && j >= syLo && j < syHi {
				var dRe, dIm, ddRe, ddIm float64
				for k := -2; k <= 2; k++ {
					dRe += deriv1[k+2] * s.PReal[row+k*l.DimX+i]
					dIm += deriv1[k+2] * s.PImag[row+k*l.DimX+i]
					ddRe += deriv2[k+2] * s.PReal[row+k*l.DimX+i]
					ddIm += deriv2[k+2] * s.PImag[row+k*l.DimX+i]
				}
				dRe /= l.DeltaY
				dIm /= l.DeltaY
				ddRe /= l.DeltaY * l.DeltaY
				ddIm /= l.DeltaY * l.DeltaY
				sumPy += re*dIm - im*dRe
				sumPyPy -= re*ddRe + im*ddIm
			}
		}
	}

	sums := []float64{sumN, sumX, sumXX, sumY, sumYY, sumPx, sumPxPx, sumPy, sumPyPy}
	if r != nil {
		for i, v := range sums {
			sums[i] = r.SumAll(v)
		}
	}
	norm := sums[0]
	if norm == 0 {
		norm = 1
	}
	inv := 1 / norm
	s.norm2 = sums[0] * l.DeltaV()
	s.meanX, s.meanXX = sums[1]*inv, sums[2]*inv
	s.meanY, s.meanYY = sums[3]*inv, sums[4]*inv
	s.meanPx, s.meanPxPx = sums[5]*inv, sums[6]*inv
	s.meanPy, s.meanPyPy = sums[7]*inv, sums[8]*inv
	s.ExpectedValuesUpdated = true
}

// MeanX returns ⟨x⟩. The remaining moment accessors follow the same
// caching rule: computed once after each evolution, reduced across the
// grid through r.
func (s *State) MeanX(r Reducer) float64  { s.updateMoments(r); return s.meanX }
func (s *State) MeanXX(r Reducer) float64 { s.updateMoments(r); return s.meanXX }
func (s *State) MeanY(r Reducer) float64  { s.updateMoments(r); return s.meanY }
func (s *State) MeanYY(r Reducer) float64 { s.updateMoments(r); return s.meanYY }
func (s *State) MeanPx(r Reducer) float64 { s.updateMoments(r); return s.meanPx }
func (s *State) MeanPxPx(r Reducer) float64 { s.updateMoments(r); return s.meanPxPx }
func (s *State) MeanPy(r Reducer) float64 { s.updateMoments(r); return s.meanPy }
func (s *State) MeanPyPy(r Reducer) float64 { s.updateMoments(r); return s.meanPyPy }

// Scale multiplies the whole tile by a real factor.
func (s *State) Scale(f float64) {
	floats.Scale(f, s.PReal)
	floats.Scale(f, s.PImag)
	s.Invalidate()
}

// Valid reports whether the tile is free of NaNs and infinities.
func (s *State) Valid() bool {
	for i := range s.PReal {
		if math.IsNaN(s.PReal[i]) || math.IsInf(s.PReal[i], 0) ||
			math.IsNaN(s.PImag[i]) || math.IsInf(s.PImag[i], 0) {
			return false
		}
	}
	return true
}
