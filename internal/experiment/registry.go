package experiment

import (
	"fmt"

	"github.com/skern/trotter/internal/config"
	"github.com/skern/trotter/internal/lattice"
	"github.com/skern/trotter/internal/physics"
	"github.com/skern/trotter/internal/state"
)

// BuildLattice realises the configured grid for one rank.
func BuildLattice(cfg *config.Config, grid lattice.ProcGrid) (*lattice.Lattice, error) {
	g := cfg.Grid
	if g.Dim == 1 {
		return lattice.New1D(g.NX, g.LengthX, g.PeriodicX, grid)
	}
	return lattice.New2D(g.NX, g.NY, g.LengthX, g.LengthY, g.PeriodicX, g.PeriodicY,
		cfg.Physics.AngularVelocity, grid)
}

// BuildPotential resolves a potential block.
func BuildPotential(l *lattice.Lattice, pc config.PotentialConfig) (physics.Potential, error) {
	switch pc.Type {
	case "", "none":
		return physics.Zero{}, nil
	case "harmonic":
		return &physics.Harmonic{Lat: l, OmegaX: pc.OmegaX, OmegaY: pc.OmegaY, X0: pc.X0, Y0: pc.Y0}, nil
	default:
		return nil, fmt.Errorf("experiment: unknown potential %q", pc.Type)
	}
}

// BuildInitialState resolves an initial-state block.
func BuildInitialState(l *lattice.Lattice, ic config.InitStateConfig) (*state.State, error) {
	switch ic.Type {
	case "gaussian":
		omega := ic.Omega
		if omega == 0 {
			omega = 1
		}
		return state.NewGaussian(l, omega, ic.X0, ic.Y0, ic.Norm), nil
	case "sinusoid":
		nx, ny := ic.NX, ic.NY
		if nx == 0 {
			nx = 1
		}
		if ny == 0 {
			ny = 1
		}
		return state.NewSinusoid(l, nx, ny, ic.Norm), nil
	case "planewave":
		return state.NewPlaneWave(l, ic.NX, ic.NY, ic.Norm), nil
	case "noise":
		return state.NewUniformNoise(l, ic.Seed, ic.Norm), nil
	case "file":
		return state.Load(l, ic.Path)
	default:
		return nil, fmt.Errorf("experiment: unknown initial state %q", ic.Type)
	}
}

// BuildHamiltonians resolves the single- or two-component Hamiltonian;
// exactly one return value is non-nil.
func BuildHamiltonians(l *lattice.Lattice, cfg *config.Config) (*physics.Hamiltonian, *physics.Hamiltonian2Component, error) {
	pot, err := BuildPotential(l, cfg.Potential)
	if err != nil {
		return nil, nil, err
	}
	base := physics.Hamiltonian{
		Mass:            cfg.Physics.Mass,
		Coupling:        cfg.Physics.Coupling,
		AngularVelocity: cfg.Physics.AngularVelocity,
		X0:              cfg.Physics.X0,
		Y0:              cfg.Physics.Y0,
		Potential:       pot,
	}
	sc := cfg.SecondComponent
	if sc == nil {
		return &base, nil, nil
	}
	potB, err := BuildPotential(l, sc.Potential)
	if err != nil {
		return nil, nil, err
	}
	return nil, &physics.Hamiltonian2Component{
		Hamiltonian: base,
		MassB:       sc.Mass,
		CouplingB:   sc.Coupling,
		CouplingAB:  sc.CouplingAB,
		PotentialB:  potB,
		OmegaR:      sc.OmegaR,
		OmegaI:      sc.OmegaI,
	}, nil
}
