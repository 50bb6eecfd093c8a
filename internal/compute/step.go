package compute

import (
	"math"
	"sync"
)

// processRegions applies one full Trotter step to the listed inner-box
// regions (local tile coordinates, [x0,x1,y0,y1]), reading the current
// buffers and writing the next ones. Regions are split into row bands
// and fanned out over worker goroutines; each band is computed in a
// scratch window with enough margin that sweep-order garbage never
// reaches the written cells.
func (k *cpuKernel) processRegions(comp int, regions [][4]int) {
	var tasks [][4]int
	for _, r := range regions {
		tasks = append(tasks, splitRows(r, k.workers)...)
	}
	if len(tasks) == 1 {
		k.processBand(comp, tasks[0])
		return
	}
	var wg sync.WaitGroup
	for _, tk := range tasks {
		wg.Add(1)
		go func(band [4]int) {
			defer wg.Done()
			k.processBand(comp, band)
		}(tk)
	}
	wg.Wait()
}

func splitRows(r [4]int, workers int) [][4]int {
	rows := r[3] - r[2]
	n := workers
	if n > rows {
		n = rows
	}
	if n <= 1 {
		return [][4]int{r}
	}
	out := make([][4]int, 0, n)
	for c := 0; c < n; c++ {
		y0 := r[2] + c*rows/n
		y1 := r[2] + (c+1)*rows/n
		if y1 > y0 {
			out = append(out, [4]int{r[0], r[1], y0, y1})
		}
	}
	return out
}

// scratch window of one band: the band grown by the pass depth on each
// side, clipped at the tile boundary.
type window struct {
	x0, x1, y0, y1 int // tile coordinates of the window
	w, h           int
}

func (k *cpuKernel) window(band [4]int) window {
	w := window{
		x0: maxInt(band[0]-passDepth, 0),
		x1: minInt(band[1]+passDepth, k.l.DimX),
		y0: band[2], y1: band[3],
	}
	if k.l.Dim == 2 {
		w.y0 = maxInt(band[2]-passDepth, 0)
		w.y1 = minInt(band[3]+passDepth, k.l.DimY)
	}
	w.w = w.x1 - w.x0
	w.h = w.y1 - w.y0
	return w
}

func (k *cpuKernel) processBand(comp int, band [4]int) {
	w := k.window(band)
	sc := k.pool.get()
	defer k.pool.put(sc)

	src := k.cur[comp]
	dimX := k.l.DimX
	for j := 0; j < w.h; j++ {
		copy(sc.re[j*w.w:(j+1)*w.w], src.re[(w.y0+j)*dimX+w.x0:(w.y0+j)*dimX+w.x1])
		copy(sc.im[j*w.w:(j+1)*w.w], src.im[(w.y0+j)*dimX+w.x0:(w.y0+j)*dimX+w.x1])
	}

	k.fusedStep(comp, sc, w)

	dst := k.nxt[comp]
	for j := band[2]; j < band[3]; j++ {
		srow := (j - w.y0) * w.w
		drow := j * dimX
		copy(dst.re[drow+band[0]:drow+band[1]], sc.re[srow+band[0]-w.x0:srow+band[1]-w.x0])
		copy(dst.im[drow+band[0]:drow+band[1]], sc.im[srow+band[0]-w.x0:srow+band[1]-w.x0])
	}
}

// fusedStep runs the palindromic sub-step sequence of one iteration on
// a scratch window: x half-sweep, y half-sweep, potential, y half-sweep
// reversed, x half-sweep reversed.
func (k *cpuKernel) fusedStep(comp int, sc *scratch, w window) {
	k.sweepX(comp, sc, w, 0)
	k.sweepX(comp, sc, w, 1)
	if k.l.Dim == 2 {
		k.sweepY(comp, sc, w, 0)
		k.sweepY(comp, sc, w, 1)
	}
	k.applyPotential(comp, sc, w)
	if k.l.Dim == 2 {
		k.sweepY(comp, sc, w, 1)
		k.sweepY(comp, sc, w, 0)
	}
	k.sweepX(comp, sc, w, 1)
	k.sweepX(comp, sc, w, 0)
}

// sweepX rotates every bond (i, i+1) whose left cell has the given
// global parity. Pairing is anchored to global indices so the result
// does not depend on the decomposition.
func (k *cpuKernel) sweepX(comp int, sc *scratch, w window, parity int) {
	tab := &k.coefX[comp]
	gx0 := k.l.StartX + w.x0
	first := ((parity-gx0)%2 + 2) % 2
	for j := 0; j < w.h; j++ {
		co := tab.at(w.y0 + j)
		row := j * w.w
		for i := first; i+1 < w.w; i += 2 {
			applyBond(sc, row+i, row+i+1, co)
		}
	}
}

func (k *cpuKernel) sweepY(comp int, sc *scratch, w window, parity int) {
	tab := &k.coefY[comp]
	gy0 := k.l.StartY + w.y0
	first := ((parity-gy0)%2 + 2) % 2
	for j := first; j+1 < w.h; j += 2 {
		row := j * w.w
		for i := 0; i < w.w; i++ {
			co := tab.at(w.x0 + i)
			applyBond(sc, row+i, row+w.w+i, co)
		}
	}
}

func applyBond(sc *scratch, li, ri int, co pairCoef) {
	rl, il := sc.re[li], sc.im[li]
	rr, ir := sc.re[ri], sc.im[ri]
	sc.re[li] = co.a*rl + co.br*rr - co.bi*ir
	sc.im[li] = co.a*il + co.br*ir + co.bi*rr
	sc.re[ri] = co.a*rr + co.cr*rl - co.ci*il
	sc.im[ri] = co.a*ir + co.cr*il + co.ci*rl
}

// applyPotential multiplies every window cell by the cached
// exponentiated potential and by the density-dependent contact factor.
func (k *cpuKernel) applyPotential(comp int, sc *scratch, w window) {
	er := k.p.ExpPotR[comp]
	ei := k.p.ExpPotI[comp]
	g := k.p.Coupling[comp]
	gab := k.p.CouplingAB
	var other buffers
	if k.nc == 2 {
		other = k.cur[1-comp]
	}
	dt := k.p.DeltaT
	dimX := k.l.DimX

	for j := 0; j < w.h; j++ {
		row := j * w.w
		trow := (w.y0 + j) * dimX
		for i := 0; i < w.w; i++ {
			idx := trow + w.x0 + i
			fr, fi := er[idx], ei[idx]

			if g != 0 || (k.nc == 2 && gab != 0) {
				re, im := sc.re[row+i], sc.im[row+i]
				dens := g * (re*re + im*im)
				if k.nc == 2 && gab != 0 {
					or, oi := other.re[idx], other.im[idx]
					dens += gab * (or*or + oi*oi)
				}
				if k.p.ImagTime {
					f := math.Exp(-dt * dens)
					fr *= f
					fi *= f
				} else {
					cg, sg := math.Cos(dt*dens), math.Sin(dt*dens)
					fr, fi = fr*cg+fi*sg, fi*cg-fr*sg
				}
			}

			re, im := sc.re[row+i], sc.im[row+i]
			sc.re[row+i] = fr*re - fi*im
			sc.im[row+i] = fr*im + fi*re
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
