package solver

import (
	"fmt"
	"os"
)

// Fourth-order Laplacian stencil in units of 1/dx².
var lap4 = [5]float64{-1.0 / 12, 4.0 / 3, -5.0 / 2, 4.0 / 3, -1.0 / 12}

type energySet struct {
	norm2   [2]float64
	kinetic [2]float64
	potential [2]float64
	intra   [2]float64
	inter   float64
	rabi    float64

	total        float64
	totKinetic   float64
	totPotential float64
	totIntra     float64
}

// calculateEnergies evaluates every energy functional and norm on the
// inner box and reduces them across the grid in one sweep.
func (s *Solver) calculateEnergies() {
	l := s.Lat
	m, mb := s.masses()

	var g, gb, gab, wr, wi float64
	if s.twoComponent() {
		g, gb, gab = s.H2.Coupling, s.H2.CouplingB, s.H2.CouplingAB
		wr, wi = s.H2.OmegaR, s.H2.OmegaI
	} else {
		g = s.H.Coupling
	}

	isx, iex := l.InnerStartX-l.StartX, l.InnerEndX-l.StartX
	isy, iey := l.InnerStartY-l.StartY, l.InnerEndY-l.StartY
	hl, hr, hd, hu := l.HaloPresent()
	sxLo, sxHi := isx, iex
	if hl == 0 {
		sxLo += 2
	}
	if hr == 0 {
		sxHi -= 2
	}
	syLo, syHi := isy, iey
	if l.Dim == 2 {
		if hd == 0 {
			syLo += 2
		}
		if hu == 0 {
			syHi -= 2
		}
	}

	potA := s.potential(0)
	var sums [10]float64 // n0 k0 p0 i0 n1 k1 p1 i1 inter rabi

	nc := 1
	if s.twoComponent() {
		nc = 2
	}
	for c := 0; c < nc; c++ {
		st := s.State
		pot := potA
		mass := m
		coupling := g
		if c == 1 {
			st, pot, mass, coupling = s.StateB, s.potential(1), mb, gb
		}
		invDx2 := 1 / (l.DeltaX * l.DeltaX)
		invDy2 := 0.0
		if l.Dim == 2 {
			invDy2 = 1 / (l.DeltaY * l.DeltaY)
		}
		base := 4 * c
		for j := isy; j < iey; j++ {
			gj := l.StartY + j
			row := j * l.DimX
			for i := isx; i < iex; i++ {
				gi := l.StartX + i
				re, im := st.PReal[row+i], st.PImag[row+i]
				d := re*re + im*im
				sums[base] += d
				sums[base+2] += d * pot.Value(l.WrapX(gi), l.WrapY(gj))
				sums[base+3] += 0.5 * coupling * d * d

				inX := i >= sxLo && i < sxHi
				inY := l.Dim == 1 || (j >= syLo && j < syHi)
				if inX && inY {
					var ddRe, ddIm float64
					for k := -2; k <= 2; k++ {
						ddRe += lap4[k+2] * st.PReal[row+i+k]
						ddIm += lap4[k+2] * st.PImag[row+i+k]
					}
					ddRe *= invDx2
					ddIm *= invDx2
					if l.Dim == 2 {
						var yRe, yIm float64
						for k := -2; k <= 2; k++ {
							yRe += lap4[k+2] * st.PReal[row+k*l.DimX+i]
							yIm += lap4[k+2] * st.PImag[row+k*l.DimX+i]
						}
						ddRe += yRe * invDy2
						ddIm += yIm * invDy2
					}
					// Re ψ*·(−1/2m)·Δψ
					sums[base+1] += (-1 / (2 * mass)) * (re*ddRe + im*ddIm)
				}
			}
		}
	}

	if s.twoComponent() {
		a, b := s.State, s.StateB
		for j := isy; j < iey; j++ {
			row := j * l.DimX
			for i := isx; i < iex; i++ {
				ar, ai := a.PReal[row+i], a.PImag[row+i]
				br, bi := b.PReal[row+i], b.PImag[row+i]
				da := ar*ar + ai*ai
				db := br*br + bi*bi
				sums[8] += gab * da * db
				// Re(ω·ψa*·ψb)
				zr := ar*br + ai*bi
				zi := ar*bi - ai*br
				sums[9] += wr*zr - wi*zi
			}
		}
	}

	for i := range sums {
		sums[i] = s.Comm.SumAll(sums[i])
	}

	dv := l.DeltaV()
	e := energySet{}
	e.norm2[0] = sums[0] * dv
	e.kinetic[0], e.potential[0], e.intra[0] = sums[1]*dv, sums[2]*dv, sums[3]*dv
	e.norm2[1] = sums[4] * dv
	e.kinetic[1], e.potential[1], e.intra[1] = sums[5]*dv, sums[6]*dv, sums[7]*dv
	e.inter = sums[8] * dv
	e.rabi = sums[9] * dv

	div := e.norm2
	if s.UseInitialNorm {
		div = s.norm2Target
	}
	for c := 0; c < nc; c++ {
		if div[c] != 0 {
			e.kinetic[c] /= div[c]
			e.potential[c] /= div[c]
			e.intra[c] /= div[c]
		}
	}
	e.totKinetic = e.kinetic[0]
	e.totPotential = e.potential[0]
	e.totIntra = e.intra[0]
	e.total = e.kinetic[0] + e.potential[0] + e.intra[0]
	if s.twoComponent() {
		if p := div[0] * div[1]; p != 0 {
			e.inter /= p
			e.rabi /= p
		}
		e.totKinetic += e.kinetic[1]
		e.totPotential += e.potential[1]
		e.totIntra += e.intra[1]
		e.total += e.kinetic[1] + e.potential[1] + e.intra[1] + e.inter + e.rabi
	}

	s.energies = e
	s.energiesUpdated = true
}

func (s *Solver) ensureEnergies() {
	if !s.energiesUpdated {
		s.calculateEnergies()
	}
}

// selector resolves the 1/2/3 component convention: 1 and 2 address a
// component, 3 the total. Out-of-range selectors report and yield 0.
func (s *Solver) selector(which int, a, b, total float64) float64 {
	switch which {
	case 3:
		return total
	case 1:
		return a
	case 2:
		if !s.twoComponent() {
			fmt.Fprintln(os.Stderr, "solver: the system has only one component")
			return 0
		}
		return b
	default:
		fmt.Fprintln(os.Stderr, "solver: component selector may be 1, 2 or 3")
		return 0
	}
}

// GetTotalEnergy returns the full energy functional of the system.
func (s *Solver) GetTotalEnergy() float64 {
	s.ensureEnergies()
	return s.energies.total
}

// GetSquaredNorm returns ‖ψ‖² of component which; 3 sums over
// components.
func (s *Solver) GetSquaredNorm(which int) float64 {
	s.ensureEnergies()
	e := &s.energies
	total := e.norm2[0]
	if s.twoComponent() {
		total += e.norm2[1]
	}
	return s.selector(which, e.norm2[0], e.norm2[1], total)
}

func (s *Solver) GetKineticEnergy(which int) float64 {
	s.ensureEnergies()
	return s.selector(which, s.energies.kinetic[0], s.energies.kinetic[1], s.energies.totKinetic)
}

func (s *Solver) GetPotentialEnergy(which int) float64 {
	s.ensureEnergies()
	return s.selector(which, s.energies.potential[0], s.energies.potential[1], s.energies.totPotential)
}

func (s *Solver) GetIntraSpeciesEnergy(which int) float64 {
	s.ensureEnergies()
	return s.selector(which, s.energies.intra[0], s.energies.intra[1], s.energies.totIntra)
}

// GetInterSpeciesEnergy returns the g_ab cross term; zero for a
// single component.
func (s *Solver) GetInterSpeciesEnergy() float64 {
	if !s.twoComponent() {
		fmt.Fprintln(os.Stderr, "solver: the system has only one component")
		return 0
	}
	s.ensureEnergies()
	return s.energies.inter
}

func (s *Solver) GetRabiEnergy() float64 {
	if !s.twoComponent() {
		fmt.Fprintln(os.Stderr, "solver: the system has only one component")
		return 0
	}
	s.ensureEnergies()
	return s.energies.rabi
}
