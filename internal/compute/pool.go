package compute

import "sync"

// scratch is the working window of one band computation.
type scratch struct {
	re, im []float64
}

// scratchPool recycles band windows between sub-steps so the workers
// allocate only on first use.
type scratchPool struct {
	pool sync.Pool
}

func newScratchPool(capacity int) *scratchPool {
	return &scratchPool{
		pool: sync.Pool{
			New: func() any {
				return &scratch{
					re: make([]float64, capacity),
					im: make([]float64, capacity),
				}
			},
		},
	}
}

func (p *scratchPool) get() *scratch  { return p.pool.Get().(*scratch) }
func (p *scratchPool) put(s *scratch) { p.pool.Put(s) }
