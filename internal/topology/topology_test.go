package topology

import (
	"math"
	"testing"
)

func TestOpposite(t *testing.T) {
	for _, d := range Directions() {
		o := d.Opposite()
		if o.DX() != -d.DX() || o.DY() != -d.DY() {
			t.Errorf("direction %d: opposite %d has offset (%d,%d)", d, o, o.DX(), o.DY())
		}
	}
}

func TestNeighbourWrap(t *testing.T) {
	topo := New(2, 2, true, false)
	c := topo.Comm(0)
	if n, ok := c.neighbour(West); !ok || n.rank != 1 {
		t.Errorf("periodic west neighbour of rank 0: %v", ok)
	}
	if _, ok := c.neighbour(South); ok {
		t.Error("closed south edge should have no neighbour")
	}
	if n, ok := c.neighbour(East); !ok || n.rank != 1 {
		t.Errorf("east neighbour wrong")
	}
}

func TestSumAllDeterministic(t *testing.T) {
	topo := New(2, 2, true, true)
	got := make([]float64, topo.Size())
	err := topo.Run(func(c *Comm) error {
		v := math.Pow(10, float64(-c.Rank()))
		for iter := 0; iter < 50; iter++ {
			got[c.Rank()] = c.SumAll(v)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for r := 1; r < len(got); r++ {
		if got[r] != got[0] {
			t.Fatalf("rank %d sum %v differs from rank 0 sum %v", r, got[r], got[0])
		}
	}
	want := 1.0 + 0.1 + 0.01 + 0.001
	if got[0] != want {
		t.Errorf("sum = %v, want %v", got[0], want)
	}
}

func TestPostRecvRoundTrip(t *testing.T) {
	topo := New(2, 1, true, false)
	err := topo.Run(func(c *Comm) error {
		for iter := 0; iter < 10; iter++ {
			band := []float64{float64(c.Rank()), float64(iter)}
			c.Post(East, 0, band)
			got := c.Recv(West, 0)
			wantRank := float64((c.Rank() + 1) % 2)
			if got[0] != wantRank || got[1] != float64(iter) {
				t.Errorf("rank %d iter %d: received %v", c.Rank(), iter, got)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGatherSlices(t *testing.T) {
	topo := New(2, 2, false, false)
	err := topo.Run(func(c *Comm) error {
		tiles := c.GatherSlices([]float64{float64(c.Rank())})
		for r, tile := range tiles {
			if len(tile) != 1 || tile[0] != float64(r) {
				t.Errorf("gathered tile %d = %v", r, tile)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
