package lattice

import "errors"

// Construction errors. All of them are configuration mistakes and fatal
// to the run.
var (
	ErrNonPositiveDim = errors.New("grid dimension must be positive")
	ErrZeroSpacing    = errors.New("domain length must be positive")
	ErrBadProcGrid    = errors.New("invalid process grid")
	ErrTooManyRanks   = errors.New("process grid finer than the lattice")
)
