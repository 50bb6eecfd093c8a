// Package topology coordinates the ranks of a 2-D Cartesian process
// grid running inside one process. Each rank is a goroutine; halo
// bands travel over per-edge buffered channels and reductions are
// generation-counted all-gathers. Every collective must be entered by
// all ranks in the same order.
package topology

import (
	"sync"

	"github.com/skern/trotter/internal/lattice"
)

// Direction names the eight Cartesian neighbours of a tile.
type Direction int

const (
	West Direction = iota
	East
	South
	North
	SouthWest
	NorthEast
	NorthWest
	SouthEast
	numDirections
)

// Offsets are ordered so that a direction and its opposite differ only
// in the lowest bit.
var offsets = [numDirections][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, 1}, {-1, 1}, {1, -1},
}

// DX and DY are the grid offsets of the direction.
func (d Direction) DX() int { return offsets[d][0] }
func (d Direction) DY() int { return offsets[d][1] }

// Opposite mirrors the direction, so a message sent towards d arrives
// from Opposite(d) at the receiver.
func (d Direction) Opposite() Direction {
	return Direction(int(d) ^ 1)
}

// Directions lists all eight neighbour directions.
func Directions() []Direction {
	ds := make([]Direction, numDirections)
	for i := range ds {
		ds[i] = Direction(i)
	}
	return ds
}

const maxComponents = 2

// Each (edge, component) channel sees one message per iteration, but a
// fast rank may post its next band before the receiver drained the
// previous one; a little slack keeps the posts non-blocking.
const channelDepth = 4

// Topology owns the communicators of a PX×PY grid.
type Topology struct {
	PX, PY               int
	PeriodicX, PeriodicY bool

	comms []*Comm
	coll  *collective
}

// New builds the topology and one communicator per rank.
func New(px, py int, periodicX, periodicY bool) *Topology {
	t := &Topology{
		PX: px, PY: py,
		PeriodicX: periodicX, PeriodicY: periodicY,
		coll: newCollective(px * py),
	}
	t.comms = make([]*Comm, px*py)
	for r := range t.comms {
		c := &Comm{topo: t, rank: r, cx: r % px, cy: r / px}
		for k := range c.inbox {
			c.inbox[k] = make(chan []float64, channelDepth)
		}
		t.comms[r] = c
	}
	return t
}

// Size is the number of ranks.
func (t *Topology) Size() int { return t.PX * t.PY }

// Comm hands out the communicator of one rank.
func (t *Topology) Comm(rank int) *Comm { return t.comms[rank] }

// Run executes fn once per rank, each in its own goroutine, and
// returns the first error.
func (t *Topology) Run(fn func(c *Comm) error) error {
	errs := make([]error, t.Size())
	var wg sync.WaitGroup
	for r := 0; r < t.Size(); r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs[rank] = fn(t.comms[rank])
		}(r)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Comm is one rank's endpoint: point-to-point halo channels plus the
// shared collectives.
type Comm struct {
	topo *Topology
	rank, cx, cy int

	// inbox[d*maxComponents+comp] carries bands arriving from the
	// neighbour in direction d.
	inbox [int(numDirections) * maxComponents]chan []float64
}

func (c *Comm) Rank() int          { return c.rank }
func (c *Comm) Size() int          { return c.topo.Size() }
func (c *Comm) Coords() (int, int) { return c.cx, c.cy }

// Grid is the lattice placement of this rank.
func (c *Comm) Grid() lattice.ProcGrid {
	return lattice.ProcGrid{PX: c.topo.PX, PY: c.topo.PY, CX: c.cx, CY: c.cy}
}

func (c *Comm) neighbour(d Direction) (*Comm, bool) {
	nx, ny := c.cx+d.DX(), c.cy+d.DY()
	if nx < 0 || nx >= c.topo.PX {
		if !c.topo.PeriodicX {
			return nil, false
		}
		nx = (nx + c.topo.PX) % c.topo.PX
	}
	if ny < 0 || ny >= c.topo.PY {
		if !c.topo.PeriodicY {
			return nil, false
		}
		ny = (ny + c.topo.PY) % c.topo.PY
	}
	return c.topo.comms[ny*c.topo.PX+nx], true
}

// HasNeighbour reports whether a rank exists in direction d, counting
// periodic wrap-around.
func (c *Comm) HasNeighbour(d Direction) bool {
	_, ok := c.neighbour(d)
	return ok
}

// Post enqueues a band for the neighbour in direction d without
// blocking. The band buffer is handed over; the caller must not reuse
// it.
func (c *Comm) Post(d Direction, comp int, band []float64) {
	n, ok := c.neighbour(d)
	if !ok {
		return
	}
	n.inbox[int(d.Opposite())*maxComponents+comp] <- band
}

// Recv blocks until the band from the neighbour in direction d
// arrives.
func (c *Comm) Recv(d Direction, comp int) []float64 {
	return <-c.inbox[int(d)*maxComponents+comp]
}

// AllGather exchanges one scalar per rank and returns the values in
// rank order on every rank.
func (c *Comm) AllGather(v float64) []float64 {
	vals := c.coll(v)
	out := make([]float64, len(vals))
	for i, x := range vals {
		out[i] = x.(float64)
	}
	return out
}

// SumAll reduces a scalar over all ranks. Summation runs in rank order
// on every rank, so the result is bitwise identical everywhere.
func (c *Comm) SumAll(v float64) float64 {
	sum := 0.0
	for _, x := range c.AllGather(v) {
		sum += x
	}
	return sum
}

// GatherSlices collects one slice per rank; every rank receives the
// rank-ordered set. Slices are shared, not copied.
func (c *Comm) GatherSlices(data []float64) [][]float64 {
	vals := c.coll(data)
	out := make([][]float64, len(vals))
	for i, x := range vals {
		out[i], _ = x.([]float64)
	}
	return out
}

// Barrier blocks until every rank arrives.
func (c *Comm) Barrier() { c.coll(nil) }

func (c *Comm) coll(v any) []any {
	return c.topo.coll.exchange(c.rank, v)
}
