package physics

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNonPositiveMass = errors.New("physics: mass must be positive")
	ErrBadCoupling     = errors.New("physics: coupling must be finite")
)

// Hamiltonian carries the single-component parameters: mass, contact
// coupling g, the rotational term Ω about (X0, Y0), and the external
// potential.
type Hamiltonian struct {
	Mass            float64
	Coupling        float64
	AngularVelocity float64
	X0, Y0          float64
	Potential       Potential
}

func (h *Hamiltonian) Validate() error {
	if h.Mass <= 0 {
		return fmt.Errorf("%w: %g", ErrNonPositiveMass, h.Mass)
	}
	if math.IsNaN(h.Coupling) || math.IsInf(h.Coupling, 0) {
		return fmt.Errorf("%w: %g", ErrBadCoupling, h.Coupling)
	}
	return nil
}

// Hamiltonian2Component extends Hamiltonian with the second species and
// the couplings between them; Omega is the complex Rabi amplitude.
type Hamiltonian2Component struct {
	Hamiltonian

	MassB      float64
	CouplingB  float64
	CouplingAB float64
	PotentialB Potential
	OmegaR     float64
	OmegaI     float64
}

func (h *Hamiltonian2Component) Validate() error {
	if err := h.Hamiltonian.Validate(); err != nil {
		return err
	}
	if h.MassB <= 0 {
		return fmt.Errorf("%w: %g (second component)", ErrNonPositiveMass, h.MassB)
	}
	for _, g := range []float64{h.CouplingB, h.CouplingAB} {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return fmt.Errorf("%w: %g", ErrBadCoupling, g)
		}
	}
	return nil
}

// OmegaAbs is |ω| of the Rabi amplitude.
func (h *Hamiltonian2Component) OmegaAbs() float64 {
	return math.Hypot(h.OmegaR, h.OmegaI)
}
