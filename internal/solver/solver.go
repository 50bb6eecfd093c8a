// Package solver orchestrates Trotter–Suzuki time evolution: it owns
// the kinetic constants and exponentiated-potential caches, drives the
// kernel through the halo-overlapped sub-step sequence, and reduces
// observables across the process grid.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/skern/trotter/internal/compute"
	"github.com/skern/trotter/internal/lattice"
	"github.com/skern/trotter/internal/physics"
	"github.com/skern/trotter/internal/state"
	"github.com/skern/trotter/internal/topology"
)

var (
	ErrBadTimestep = errors.New("solver: time step must be positive")
	ErrDiverged    = errors.New("solver: state contains NaN or Inf")
)

// Solver advances one- or two-component states. It exclusively owns
// its kernel and caches and borrows lattice, states, Hamiltonian and
// communicator for its lifetime.
type Solver struct {
	Lat   *lattice.Lattice
	Comm  *topology.Comm
	State *state.State
	StateB *state.State

	// Exactly one of H and H2 is set.
	H  *physics.Hamiltonian
	H2 *physics.Hamiltonian2Component

	DeltaT     float64
	KernelType string

	// UseInitialNorm divides energies by the squared norm captured at
	// kernel initialisation instead of the current one. Off by
	// default; the current norm is the faithful normalisation.
	UseInitialNorm bool

	kernel   compute.Kernel
	imagTime bool
	paramsChanged bool

	expPotR, expPotI [2][]float64
	norm2Target      [2]float64

	currentTime float64

	energies energySet
	energiesUpdated bool
}

// New builds a single-component solver.
func New(l *lattice.Lattice, st *state.State, h *physics.Hamiltonian, deltaT float64, kernelType string, comm *topology.Comm) (*Solver, error) {
	s := &Solver{Lat: l, Comm: comm, State: st, H: h, DeltaT: deltaT, KernelType: kernelType}
	if err := s.validate(h.Validate()); err != nil {
		return nil, err
	}
	return s, nil
}

// NewTwoComponent builds a coupled two-component solver.
func NewTwoComponent(l *lattice.Lattice, a, b *state.State, h *physics.Hamiltonian2Component, deltaT float64, kernelType string, comm *topology.Comm) (*Solver, error) {
	s := &Solver{Lat: l, Comm: comm, State: a, StateB: b, H2: h, DeltaT: deltaT, KernelType: kernelType}
	if err := s.validate(h.Validate()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Solver) validate(herr error) error {
	if herr != nil {
		return herr
	}
	if s.DeltaT <= 0 {
		return fmt.Errorf("%w: %g", ErrBadTimestep, s.DeltaT)
	}
	if s.Comm == nil {
		topo := topology.New(1, 1, s.Lat.PeriodicX, s.Lat.PeriodicY)
		s.Comm = topo.Comm(0)
	}
	if s.Comm.Grid() != s.Lat.Grid {
		return fmt.Errorf("solver: communicator grid %+v does not match lattice grid %+v", s.Comm.Grid(), s.Lat.Grid)
	}
	return nil
}

func (s *Solver) twoComponent() bool { return s.H2 != nil }

// EvolutionTime is the accumulated physical time.
func (s *Solver) EvolutionTime() float64 { return s.currentTime }

// UpdateParameters invalidates the kernel caches; the next Evolve
// rebuilds the kinetic constants and exponentiated potentials.
func (s *Solver) UpdateParameters() { s.paramsChanged = true }

func (s *Solver) masses() (float64, float64) {
	if s.twoComponent() {
		return s.H2.Mass, s.H2.MassB
	}
	return s.H.Mass, 0
}

func (s *Solver) potential(which int) physics.Potential {
	if which == 1 {
		return s.H2.PotentialB
	}
	if s.twoComponent() {
		return s.H2.Potential
	}
	return s.H.Potential
}

// initializeExpPotential rebuilds the exponentiated-potential cache of
// one component over the whole tile. The bond sweeps carry only the
// hopping part of the kinetic operator, so its diagonal is folded in
// here; that keeps real-time evolution free of a spurious global phase
// and makes the imaginary-time flow contractive.
func (s *Solver) initializeExpPotential(which int) {
	l := s.Lat
	m, mb := s.masses()
	if which == 1 {
		m = mb
	}
	diag := 1 / (m * l.DeltaX * l.DeltaX)
	if l.Dim == 2 {
		diag += 1 / (m * l.DeltaY * l.DeltaY)
	}
	pot := s.potential(which)

	n := l.DimX * l.DimY
	if s.expPotR[which] == nil {
		s.expPotR[which] = make([]float64, n)
		s.expPotI[which] = make([]float64, n)
	}
	for j := 0; j < l.DimY; j++ {
		gj := l.WrapY(l.StartY + j)
		for i := 0; i < l.DimX; i++ {
			gi := l.WrapX(l.StartX + i)
			v := pot.Value(gi, gj) + diag
			idx := j*l.DimX + i
			if s.imagTime {
				s.expPotR[which][idx] = math.Exp(-s.DeltaT * v)
				s.expPotI[which][idx] = 0
			} else {
				s.expPotR[which][idx] = math.Cos(s.DeltaT * v)
				s.expPotI[which][idx] = -math.Sin(s.DeltaT * v)
			}
		}
	}
}

func (s *Solver) initKernel() error {
	l := s.Lat
	m, mb := s.masses()
	p := compute.Params{
		Lat: l, Comm: s.Comm,
		DeltaT:   s.DeltaT,
		ImagTime: s.imagTime,
	}
	p.ThetaX[0] = s.DeltaT / (4 * m * l.DeltaX * l.DeltaX)
	if l.Dim == 2 {
		p.ThetaY[0] = s.DeltaT / (4 * m * l.DeltaY * l.DeltaY)
	}
	if s.twoComponent() {
		p.TwoComponent = true
		p.ThetaX[1] = s.DeltaT / (4 * mb * l.DeltaX * l.DeltaX)
		if l.Dim == 2 {
			p.ThetaY[1] = s.DeltaT / (4 * mb * l.DeltaY * l.DeltaY)
		}
		p.Coupling = [2]float64{s.H2.Coupling, s.H2.CouplingB}
		p.CouplingAB = s.H2.CouplingAB
		p.OmegaR, p.OmegaI = s.H2.OmegaR, s.H2.OmegaI
		p.AngularVelocity = s.H2.AngularVelocity
		p.RotX, p.RotY = s.H2.X0, s.H2.Y0
	} else {
		p.Coupling = [2]float64{s.H.Coupling, 0}
		p.AngularVelocity = s.H.AngularVelocity
		p.RotX, p.RotY = s.H.X0, s.H.Y0
	}
	p.ExpPotR = s.expPotR
	p.ExpPotI = s.expPotI
	p.Norm2 = s.norm2Target

	k, err := compute.New(s.KernelType, p, s.State, s.StateB)
	if err != nil {
		return err
	}
	s.kernel = k
	return nil
}

// Evolve advances the system by iterations steps of DeltaT, in real or
// imaginary time. Regime flips and parameter changes rebuild the
// caches and kernel first.
func (s *Solver) Evolve(iterations int, imagTime bool) error {
	if imagTime != s.imagTime || s.kernel == nil || s.paramsChanged {
		s.imagTime = imagTime
		s.initializeExpPotential(0)
		s.norm2Target[0] = s.State.SquaredNorm(s.Comm)
		if s.twoComponent() {
			s.initializeExpPotential(1)
			s.norm2Target[1] = s.StateB.SquaredNorm(s.Comm)
		}
		if err := s.initKernel(); err != nil {
			return err
		}
		s.paramsChanged = false
	}

	if s.twoComponent() {
		s.kernel.RabiCoupling(0.5, s.DeltaT)
	}
	for i := 0; i < iterations; i++ {
		if i > 0 && s.potential(0).Update(s.currentTime) {
			s.initializeExpPotential(0)
			s.kernel.UpdatePotential(0, s.expPotR[0], s.expPotI[0])
		}
		if s.twoComponent() && i > 0 && s.potential(1).Update(s.currentTime) {
			s.initializeExpPotential(1)
			s.kernel.UpdatePotential(1, s.expPotR[1], s.expPotI[1])
		}

		s.step()
		if s.twoComponent() {
			s.step() // second component

			fraction := 1.0
			if i == iterations-1 {
				fraction = 0.5
			}
			s.kernel.RabiCoupling(fraction, s.DeltaT)
			if s.imagTime {
				s.kernel.Normalization()
			}
		} else if s.imagTime {
			s.kernel.Normalization()
		}
		s.currentTime += s.DeltaT
	}

	s.kernel.GetSample(s.State, s.StateB)
	s.energiesUpdated = false
	if !s.State.Valid() || (s.StateB != nil && !s.StateB.Valid()) {
		return ErrDiverged
	}
	return nil
}

// step runs the four-phase sub-step sequence for the kernel's active
// component, overlapping interior compute with the band exchange.
func (s *Solver) step() {
	s.kernel.RunKernelOnHalo()
	s.kernel.StartHaloExchange()
	s.kernel.RunKernel()
	s.kernel.WaitForCompletion()
}
