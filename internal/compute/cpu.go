package compute

import (
	"fmt"
	"math"
	"runtime"

	"github.com/skern/trotter/internal/lattice"
	"github.com/skern/trotter/internal/state"
	"github.com/skern/trotter/internal/topology"
)

// passDepth is how many cells of validity one fused step consumes from
// each open tile edge: four pair sweeps per axis, one cell each.
const passDepth = 4

type buffers struct {
	re, im []float64
}

func newBuffers(n int) buffers {
	return buffers{re: make([]float64, n), im: make([]float64, n)}
}

// pairCoef is the 2×2 bond unitary ψl' = a·ψl + B·ψr, ψr' = C·ψl + a·ψr
// with B = (br, bi) and C = (cr, ci).
type pairCoef struct {
	a              float64
	br, bi, cr, ci float64
}

// coeffTable holds the bond coefficients for one component and axis.
// Without rotation the table is uniform; the rotational shear makes it
// vary along the transverse axis.
type coeffTable struct {
	uniform pairCoef
	perLine []pairCoef // indexed by local transverse line, nil if uniform
}

func (t *coeffTable) at(line int) pairCoef {
	if t.perLine == nil {
		return t.uniform
	}
	return t.perLine[line]
}

type cpuKernel struct {
	p    Params
	l    *lattice.Lattice
	comm *topology.Comm
	nc   int

	cur, nxt [2]buffers

	// Inner box in local tile coordinates and realised halo widths.
	isx, iex, isy, iey int
	hl, hr, hd, hu     int

	coefX, coefY [2]coeffTable

	workers int
	pool    *scratchPool

	active   int
	stepping bool
	exchanging bool
}

func newCPUKernel(p Params, a, b *state.State) (*cpuKernel, error) {
	l := p.Lat
	if p.TwoComponent != (b != nil) {
		return nil, fmt.Errorf("%w: component count disagrees with states", ErrUnsupported)
	}
	nc := 1
	if p.TwoComponent {
		nc = 2
	}
	if p.Comm == nil {
		return nil, fmt.Errorf("%w: cpu kernel needs a communicator", ErrUnsupported)
	}

	k := &cpuKernel{
		p: p, l: l, comm: p.Comm, nc: nc,
		isx: l.InnerStartX - l.StartX, iex: l.InnerEndX - l.StartX,
		isy: l.InnerStartY - l.StartY, iey: l.InnerEndY - l.StartY,
		workers: runtime.NumCPU(),
	}
	k.hl, k.hr, k.hd, k.hu = l.HaloPresent()

	n := l.DimX * l.DimY
	for c := 0; c < nc; c++ {
		k.cur[c] = newBuffers(n)
		k.nxt[c] = newBuffers(n)
	}
	copy(k.cur[0].re, a.PReal)
	copy(k.cur[0].im, a.PImag)
	if nc == 2 {
		copy(k.cur[1].re, b.PReal)
		copy(k.cur[1].im, b.PImag)
	}

	k.buildCoefficients()
	k.pool = newScratchPool((l.DimX + 2*passDepth) * (l.DimY + 2*passDepth))
	return k, nil
}

func (k *cpuKernel) Name() string { return "cpu" }

func (k *cpuKernel) buildCoefficients() {
	l, p := k.l, &k.p
	for c := 0; c < k.nc; c++ {
		k.coefX[c] = k.axisTable(p.ThetaX[c], p.ImagTime, true)
		if l.Dim == 2 {
			k.coefY[c] = k.axisTable(p.ThetaY[c], p.ImagTime, false)
		}
	}
}

// axisTable builds bond coefficients for pair sweeps along one axis.
// With a rotating frame the shear adds a transverse-coordinate term to
// the bond generator, so each row (or column) gets its own entry.
func (k *cpuKernel) axisTable(theta float64, imagTime, alongX bool) coeffTable {
	l, p := k.l, &k.p
	if p.AngularVelocity == 0 || l.Dim == 1 {
		return coeffTable{uniform: bondCoef(theta, 0, imagTime)}
	}
	var lines int
	if alongX {
		lines = l.DimY
	} else {
		lines = l.DimX
	}
	tab := coeffTable{perLine: make([]pairCoef, lines)}
	for line := 0; line < lines; line++ {
		var alpha float64
		if alongX {
			y := l.Y(l.WrapY(l.StartY+line)) - p.RotY
			alpha = p.DeltaT * p.AngularVelocity * y / (4 * l.DeltaX)
		} else {
			x := l.X(l.WrapX(l.StartX+line)) - p.RotX
			alpha = -p.DeltaT * p.AngularVelocity * x / (4 * l.DeltaY)
		}
		tab.perLine[line] = bondCoef(theta, alpha, imagTime)
	}
	return tab
}

// bondCoef exponentiates the bond generator θσx + ασy: exp(+i·) in
// real time, exp(+·) under imaginary time.
func bondCoef(theta, alpha float64, imagTime bool) pairCoef {
	r := math.Hypot(theta, alpha)
	if imagTime {
		sh := 1.0
		if r != 0 {
			sh = math.Sinh(r) / r
		}
		return pairCoef{
			a:  math.Cosh(r),
			br: theta * sh, bi: -alpha * sh,
			cr: theta * sh, ci: alpha * sh,
		}
	}
	s := 1.0
	if r != 0 {
		s = math.Sin(r) / r
	}
	return pairCoef{
		a:  math.Cos(r),
		br: alpha * s, bi: theta * s,
		cr: -alpha * s, ci: theta * s,
	}
}

// inner-box regions touched by the halo phase: every inner cell within
// one halo width of an edge that has a neighbour.
func (k *cpuKernel) haloRegions() [][4]int {
	var regs [][4]int
	x0, x1 := k.isx, k.iex
	if k.hl > 0 {
		regs = append(regs, [4]int{k.isx, k.isx + k.hl, k.isy, k.iey})
		x0 = k.isx + k.hl
	}
	if k.hr > 0 {
		regs = append(regs, [4]int{k.iex - k.hr, k.iex, k.isy, k.iey})
		x1 = k.iex - k.hr
	}
	if k.hd > 0 && x1 > x0 {
		regs = append(regs, [4]int{x0, x1, k.isy, k.isy + k.hd})
	}
	if k.hu > 0 && x1 > x0 {
		regs = append(regs, [4]int{x0, x1, k.iey - k.hu, k.iey})
	}
	return regs
}

func (k *cpuKernel) interiorRegion() [4]int {
	x0, x1, y0, y1 := k.isx, k.iex, k.isy, k.iey
	if k.hl > 0 {
		x0 += k.hl
	}
	if k.hr > 0 {
		x1 -= k.hr
	}
	if k.hd > 0 {
		y0 += k.hd
	}
	if k.hu > 0 {
		y1 -= k.hu
	}
	return [4]int{x0, x1, y0, y1}
}

func (k *cpuKernel) RunKernelOnHalo() {
	k.stepping = true
	k.processRegions(k.active, k.haloRegions())
}

func (k *cpuKernel) RunKernel() {
	k.stepping = true
	r := k.interiorRegion()
	if r[1] > r[0] && r[3] > r[2] {
		k.processRegions(k.active, [][4]int{r})
	}
}

func (k *cpuKernel) StartHaloExchange() {
	k.exchanging = true
	src := k.cur[k.active]
	if k.stepping {
		src = k.nxt[k.active]
	}
	k.postBands(k.active, src)
}

func (k *cpuKernel) WaitForCompletion() {
	dst := k.cur[k.active]
	if k.stepping {
		dst = k.nxt[k.active]
	}
	if k.exchanging {
		k.receiveBands(k.active, dst)
	}
	if k.stepping {
		k.cur[k.active], k.nxt[k.active] = k.nxt[k.active], k.cur[k.active]
	}
	k.stepping, k.exchanging = false, false
	if k.nc == 2 {
		k.active = 1 - k.active
	}
}

// Normalization rescales each component to its target squared norm,
// reducing the current norm across the grid first.
func (k *cpuKernel) Normalization() {
	for c := 0; c < k.nc; c++ {
		local := k.innerNorm(c)
		total := k.comm.SumAll(local) * k.l.DeltaV()
		if total <= 0 || k.p.Norm2[c] <= 0 {
			continue
		}
		f := math.Sqrt(k.p.Norm2[c] / total)
		for i := range k.cur[c].re {
			k.cur[c].re[i] *= f
			k.cur[c].im[i] *= f
		}
	}
}

func (k *cpuKernel) innerNorm(c int) float64 {
	sum := 0.0
	for j := k.isy; j < k.iey; j++ {
		row := j * k.l.DimX
		for i := k.isx; i < k.iex; i++ {
			re, im := k.cur[c].re[row+i], k.cur[c].im[row+i]
			sum += re*re + im*im
		}
	}
	return sum
}

// RabiCoupling mixes the two components pointwise by
// exp(−i·(fraction·Δt)·ω·σ/2) with the complex amplitude ω, continued
// to cosh/sinh under imaginary time.
func (k *cpuKernel) RabiCoupling(fraction, deltaT float64) {
	if k.nc != 2 {
		return
	}
	wr, wi := k.p.OmegaR, k.p.OmegaI
	mod := math.Hypot(wr, wi)
	if mod == 0 {
		return
	}
	half := fraction * deltaT * mod / 2
	a, b := k.cur[0], k.cur[1]
	if k.p.ImagTime {
		ch, sh := math.Cosh(half), math.Sinh(half)/mod
		for i := range a.re {
			ar, ai, br, bi := a.re[i], a.im[i], b.re[i], b.im[i]
			a.re[i] = ch*ar - sh*(wr*br-wi*bi)
			a.im[i] = ch*ai - sh*(wr*bi+wi*br)
			b.re[i] = ch*br - sh*(wr*ar+wi*ai)
			b.im[i] = ch*bi - sh*(wr*ai-wi*ar)
		}
		return
	}
	c, s := math.Cos(half), math.Sin(half)/mod
	for i := range a.re {
		ar, ai, br, bi := a.re[i], a.im[i], b.re[i], b.im[i]
		a.re[i] = c*ar + s*(wi*br+wr*bi)
		a.im[i] = c*ai + s*(wi*bi-wr*br)
		b.re[i] = c*br + s*(wr*ai-wi*ar)
		b.im[i] = c*bi - s*(wr*ar+wi*ai)
	}
}

func (k *cpuKernel) UpdatePotential(which int, expR, expI []float64) {
	k.p.ExpPotR[which] = expR
	k.p.ExpPotI[which] = expI
}

func (k *cpuKernel) GetSample(a, b *state.State) {
	copy(a.PReal, k.cur[0].re)
	copy(a.PImag, k.cur[0].im)
	a.Invalidate()
	if b != nil && k.nc == 2 {
		copy(b.PReal, k.cur[1].re)
		copy(b.PImag, k.cur[1].im)
		b.Invalidate()
	}
}
