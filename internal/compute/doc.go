// Package compute provides the evolution kernels that advance a
// wavefunction tile by one Trotter–Suzuki step.
//
// A kernel owns double-buffered copies of the tile and realises one
// iteration as a fused sequence of red/black pair rotations and a
// pointwise potential factor, overlapping interior work with the halo
// exchange:
//
//	k.RunKernelOnHalo()    // cells whose values neighbours will need
//	k.StartHaloExchange()  // post bands, non-blocking
//	k.RunKernel()          // interior, overlaps communication
//	k.WaitForCompletion()  // join, install received halos
//
// The CPU kernel handles 1-D and 2-D tiles, one or two components,
// real and imaginary time, rotating frames and Rabi coupling. The GPU
// kernel is a build-tagged stub on ordinary builds and refuses the
// configurations it cannot run.
package compute
