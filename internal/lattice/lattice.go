// Package lattice describes the rectangular grid, its decomposition
// over a 2-D Cartesian process grid, and the tile each rank owns.
package lattice

import "fmt"

// Default halo width. A full Trotter step advances the pair sweeps four
// cells into the halo per axis. A rotating frame widens the halo to
// eight cells; the CPU kernel folds the shear into its bond
// coefficients, so its step still reads four of them.
const (
	HaloWidth           = 4
	RotationalHaloWidth = 8
)

// ProcGrid places one rank inside a 2-D Cartesian process grid.
type ProcGrid struct {
	PX, PY int
	CX, CY int
}

// Single is the trivial one-rank grid.
var Single = ProcGrid{PX: 1, PY: 1}

func (g ProcGrid) Ranks() int { return g.PX * g.PY }

func (g ProcGrid) Rank() int { return g.CY*g.PX + g.CX }

// Lattice describes the global rectangular grid and the tile of it owned
// by one rank. It is immutable after construction.
type Lattice struct {
	Dim int // 1 or 2

	GlobalNX, GlobalNY int
	LengthX, LengthY   float64
	DeltaX, DeltaY     float64
	PeriodicX, PeriodicY bool

	// Nominal halo width per axis. The realised width on a given edge is
	// zero when no neighbour exists there.
	HaloX, HaloY int

	Grid ProcGrid

	// Local box in global index space, halo included, and the inner
	// sub-box that excludes it. DimX/DimY are the tile extents.
	StartX, EndX, InnerStartX, InnerEndX int
	StartY, EndY, InnerStartY, InnerEndY int
	DimX, DimY                           int
}

// New1D builds the lattice for a 1-D grid of nx points spanning length.
func New1D(nx int, length float64, periodic bool, grid ProcGrid) (*Lattice, error) {
	return build(1, nx, 1, length, 1, periodic, false, 0, grid)
}

// New2D builds the lattice for a 2-D grid. A nonzero angular velocity
// widens the halo, since the rotational shear couples the axes.
func New2D(nx, ny int, lengthX, lengthY float64, periodicX, periodicY bool, angularVelocity float64, grid ProcGrid) (*Lattice, error) {
	return build(2, nx, ny, lengthX, lengthY, periodicX, periodicY, angularVelocity, grid)
}

func build(dim, nx, ny int, lx, ly float64, px, py bool, omega float64, grid ProcGrid) (*Lattice, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("lattice: %w: %dx%d", ErrNonPositiveDim, nx, ny)
	}
	if lx <= 0 || ly <= 0 {
		return nil, fmt.Errorf("lattice: %w: %gx%g", ErrZeroSpacing, lx, ly)
	}
	if grid.PX <= 0 || grid.PY <= 0 || grid.CX < 0 || grid.CX >= grid.PX || grid.CY < 0 || grid.CY >= grid.PY {
		return nil, fmt.Errorf("lattice: %w: coords (%d,%d) in %dx%d", ErrBadProcGrid, grid.CX, grid.CY, grid.PX, grid.PY)
	}
	if grid.PX > nx || grid.PY > ny {
		return nil, fmt.Errorf("lattice: %w: %dx%d ranks over %dx%d points", ErrTooManyRanks, grid.PX, grid.PY, nx, ny)
	}
	if dim == 1 && grid.PY != 1 {
		return nil, fmt.Errorf("lattice: %w: 1-D grid with PY=%d", ErrBadProcGrid, grid.PY)
	}

	halo := HaloWidth
	if omega != 0 {
		halo = RotationalHaloWidth
	}

	l := &Lattice{
		Dim:      dim,
		GlobalNX: nx, GlobalNY: ny,
		LengthX: lx, LengthY: ly,
		DeltaX: lx / float64(nx), DeltaY: ly / float64(ny),
		PeriodicX: px, PeriodicY: py,
		HaloX: halo, HaloY: halo,
		Grid: grid,
	}
	if dim == 1 {
		l.LengthY, l.DeltaY, l.PeriodicY, l.HaloY = 1, 1, false, 0
	}

	l.InnerStartX, l.InnerEndX = Chunk(nx, grid.PX, grid.CX)
	l.StartX = l.InnerStartX - edgeHalo(l.HaloX, px, grid.CX > 0)
	l.EndX = l.InnerEndX + edgeHalo(l.HaloX, px, grid.CX < grid.PX-1)

	l.InnerStartY, l.InnerEndY = Chunk(ny, grid.PY, grid.CY)
	l.StartY = l.InnerStartY - edgeHalo(l.HaloY, py, grid.CY > 0)
	l.EndY = l.InnerEndY + edgeHalo(l.HaloY, py, grid.CY < grid.PY-1)

	l.DimX = l.EndX - l.StartX
	l.DimY = l.EndY - l.StartY

	if l.InnerEndX-l.InnerStartX < l.haloLeftX()+l.haloRightX() || l.InnerEndY-l.InnerStartY < l.haloLowY()+l.haloHighY() {
		return nil, fmt.Errorf("lattice: %w: tile %dx%d too small for halo %d", ErrTooManyRanks,
			l.InnerEndX-l.InnerStartX, l.InnerEndY-l.InnerStartY, halo)
	}
	return l, nil
}

// Chunk splits n points into p contiguous chunks, remainder to the first
// chunks, and returns the half-open range owned by chunk c.
func Chunk(n, p, c int) (start, end int) {
	size := n / p
	rem := n % p
	start = c*size + min(c, rem)
	end = start + size
	if c < rem {
		end++
	}
	return start, end
}

func edgeHalo(h int, periodic, hasRankNeighbour bool) int {
	if periodic || hasRankNeighbour {
		return h
	}
	return 0
}

func (l *Lattice) haloLeftX() int  { return l.InnerStartX - l.StartX }
func (l *Lattice) haloRightX() int { return l.EndX - l.InnerEndX }
func (l *Lattice) haloLowY() int   { return l.InnerStartY - l.StartY }
func (l *Lattice) haloHighY() int  { return l.EndY - l.InnerEndY }

// HaloPresent reports the realised halo widths on the four tile edges,
// in the order left, right, low, high.
func (l *Lattice) HaloPresent() (left, right, low, high int) {
	return l.haloLeftX(), l.haloRightX(), l.haloLowY(), l.haloHighY()
}

// InnerWidth and InnerHeight are the authoritative tile extents.
func (l *Lattice) InnerWidth() int  { return l.InnerEndX - l.InnerStartX }
func (l *Lattice) InnerHeight() int { return l.InnerEndY - l.InnerStartY }

// DeltaV is the volume element of one cell.
func (l *Lattice) DeltaV() float64 {
	if l.Dim == 1 {
		return l.DeltaX
	}
	return l.DeltaX * l.DeltaY
}

// X maps a global column index to the physical coordinate of the cell
// centre; the domain is symmetric about the origin.
func (l *Lattice) X(i int) float64 {
	return -l.LengthX/2 + (float64(i)+0.5)*l.DeltaX
}

func (l *Lattice) Y(j int) float64 {
	if l.Dim == 1 {
		return 0
	}
	return -l.LengthY/2 + (float64(j)+0.5)*l.DeltaY
}

// WrapX folds a global column index back into [0, GlobalNX) on a
// periodic axis. Off-axis indices are returned unchanged.
func (l *Lattice) WrapX(i int) int {
	if !l.PeriodicX {
		return i
	}
	i %= l.GlobalNX
	if i < 0 {
		i += l.GlobalNX
	}
	return i
}

func (l *Lattice) WrapY(j int) int {
	if !l.PeriodicY {
		return j
	}
	j %= l.GlobalNY
	if j < 0 {
		j += l.GlobalNY
	}
	return j
}

// NeighbourRank resolves the rank offset (dx,dy) steps away on the
// process grid, wrapping only on periodic axes. ok is false when no
// neighbour exists in that direction.
func (l *Lattice) NeighbourRank(dx, dy int) (rank int, ok bool) {
	cx := l.Grid.CX + dx
	cy := l.Grid.CY + dy
	if cx < 0 || cx >= l.Grid.PX {
		if !l.PeriodicX {
			return 0, false
		}
		cx = (cx + l.Grid.PX) % l.Grid.PX
	}
	if cy < 0 || cy >= l.Grid.PY {
		if !l.PeriodicY {
			return 0, false
		}
		cy = (cy + l.Grid.PY) % l.Grid.PY
	}
	return ProcGrid{PX: l.Grid.PX, PY: l.Grid.PY, CX: cx, CY: cy}.Rank(), true
}
