package compute

import (
	"fmt"

	"github.com/skern/trotter/internal/topology"
)

// bandBox resolves the tile-coordinate box of a halo band. Source
// bands are the outermost inner cells; sink bands are the halo cells
// beyond them.
func (k *cpuKernel) bandBox(d topology.Direction, sink bool) (x0, x1, y0, y1 int) {
	switch d.DX() {
	case -1:
		if sink {
			x0, x1 = k.isx-k.hl, k.isx
		} else {
			x0, x1 = k.isx, k.isx+k.hl
		}
	case 1:
		if sink {
			x0, x1 = k.iex, k.iex+k.hr
		} else {
			x0, x1 = k.iex-k.hr, k.iex
		}
	default:
		x0, x1 = k.isx, k.iex
	}
	switch d.DY() {
	case -1:
		if sink {
			y0, y1 = k.isy-k.hd, k.isy
		} else {
			y0, y1 = k.isy, k.isy+k.hd
		}
	case 1:
		if sink {
			y0, y1 = k.iey, k.iey+k.hu
		} else {
			y0, y1 = k.iey-k.hu, k.iey
		}
	default:
		y0, y1 = k.isy, k.iey
	}
	return
}

// hasTraffic reports whether a band travels in direction d: every axis
// the direction moves along must have halo on that edge.
func (k *cpuKernel) hasTraffic(d topology.Direction) bool {
	switch d.DX() {
	case -1:
		if k.hl == 0 {
			return false
		}
	case 1:
		if k.hr == 0 {
			return false
		}
	}
	switch d.DY() {
	case -1:
		if k.hd == 0 {
			return false
		}
	case 1:
		if k.hu == 0 {
			return false
		}
	}
	return true
}

func (k *cpuKernel) postBands(comp int, src buffers) {
	dimX := k.l.DimX
	for _, d := range topology.Directions() {
		if !k.hasTraffic(d) {
			continue
		}
		x0, x1, y0, y1 := k.bandBox(d, false)
		w, h := x1-x0, y1-y0
		band := make([]float64, 2*w*h)
		for j := 0; j < h; j++ {
			row := (y0 + j) * dimX
			copy(band[j*w:(j+1)*w], src.re[row+x0:row+x1])
			copy(band[w*h+j*w:w*h+(j+1)*w], src.im[row+x0:row+x1])
		}
		k.comm.Post(d, comp, band)
	}
}

func (k *cpuKernel) receiveBands(comp int, dst buffers) {
	dimX := k.l.DimX
	for _, d := range topology.Directions() {
		if !k.hasTraffic(d) {
			continue
		}
		x0, x1, y0, y1 := k.bandBox(d, true)
		w, h := x1-x0, y1-y0
		band := k.comm.Recv(d, comp)
		if len(band) != 2*w*h {
			panic(fmt.Sprintf("compute: halo band from %v has %d values, want %d", d, len(band), 2*w*h))
		}
		for j := 0; j < h; j++ {
			row := (y0 + j) * dimX
			copy(dst.re[row+x0:row+x1], band[j*w:(j+1)*w])
			copy(dst.im[row+x0:row+x1], band[w*h+j*w:w*h+(j+1)*w])
		}
	}
}
