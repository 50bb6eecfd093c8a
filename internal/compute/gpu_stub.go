//go:build !cuda

package compute

import (
	"fmt"

	"github.com/skern/trotter/internal/state"
)

// newGPUKernel is the stub used on builds without CUDA support. It
// still performs the configuration checks the real back end enforces,
// so misconfigurations surface identically everywhere.
func newGPUKernel(p Params, a, b *state.State) (Kernel, error) {
	if p.AngularVelocity != 0 {
		return nil, fmt.Errorf("%w: gpu kernel with nonzero angular velocity", ErrUnsupported)
	}
	if p.TwoComponent {
		return nil, fmt.Errorf("%w: gpu kernel with two components", ErrUnsupported)
	}
	return nil, fmt.Errorf("%w: gpu", ErrKernelUnavailable)
}
