package compute

import (
	"errors"
	"fmt"

	"github.com/skern/trotter/internal/lattice"
	"github.com/skern/trotter/internal/state"
	"github.com/skern/trotter/internal/topology"
)

var (
	ErrUnknownKernel    = errors.New("compute: unknown kernel")
	ErrUnsupported      = errors.New("compute: configuration not supported by this kernel")
	ErrKernelUnavailable = errors.New("compute: kernel not available in this build")
)

// Kernel is the contract every back end meets. The solver drives it
// without inspecting which variant it holds. With two components, the
// four-call evolution sequence is issued once per component; the
// kernel cycles its active component on WaitForCompletion.
type Kernel interface {
	Name() string

	RunKernelOnHalo()
	StartHaloExchange()
	RunKernel()
	WaitForCompletion()

	// RabiCoupling applies R(fraction·Δt) pointwise; two-component only.
	RabiCoupling(fraction, deltaT float64)
	// Normalization rescales every component to its target squared norm.
	Normalization()

	// UpdatePotential replaces the exponentiated-potential cache of one
	// component. The kernel borrows the slices.
	UpdatePotential(which int, expR, expI []float64)

	// GetSample copies the tiles back into the caller's states; b is
	// nil for a single component.
	GetSample(a, b *state.State)
}

// Params bundles everything a kernel needs at initialisation. The
// solver owns the exponentiated-potential slices; the kernel borrows
// them. ThetaX/ThetaY are the kinetic bond angles Δt/(4·m·dx²) per
// component; the kernel turns them into cos/sin (cosh/sinh under
// imaginary time) bond coefficients.
type Params struct {
	Lat  *lattice.Lattice
	Comm *topology.Comm

	DeltaT   float64
	ImagTime bool

	ThetaX [2]float64
	ThetaY [2]float64

	ExpPotR [2][]float64
	ExpPotI [2][]float64

	// Contact couplings for the density-dependent factor.
	Coupling   [2]float64
	CouplingAB float64

	// Target squared norms for renormalisation.
	Norm2 [2]float64

	// Rotating frame.
	AngularVelocity float64
	RotX, RotY      float64

	// Rabi amplitude.
	OmegaR, OmegaI float64

	TwoComponent bool
}

// New builds the kernel named by kernelType ("cpu" or "gpu") around an
// initial state (b nil for a single component).
func New(kernelType string, p Params, a, b *state.State) (Kernel, error) {
	switch kernelType {
	case "cpu", "":
		return newCPUKernel(p, a, b)
	case "gpu":
		return newGPUKernel(p, a, b)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, kernelType)
	}
}
