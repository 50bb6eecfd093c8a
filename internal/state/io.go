package state

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/skern/trotter/internal/lattice"
)

// Write emits the inner box as "re im" pairs, row-major, one cell per
// line. The output of a single-rank run can seed a later one through
// Read.
func (s *State) Write(w io.Writer) error {
	l := s.Lat
	bw := bufio.NewWriter(w)
	for j := l.InnerStartY - l.StartY; j < l.InnerEndY-l.StartY; j++ {
		row := j * l.DimX
		for i := l.InnerStartX - l.StartX; i < l.InnerEndX-l.StartX; i++ {
			_, err := bw.WriteString(strconv.FormatFloat(s.PReal[row+i], 'g', 17, 64) + " " +
				strconv.FormatFloat(s.PImag[row+i], 'g', 17, 64) + "\n")
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Read parses a global field of "re im" pairs and populates the local
// tile, halo included, so the state is immediately evolvable.
func Read(l *lattice.Lattice, r io.Reader) (*State, error) {
	re := make([]float64, l.GlobalNX*l.GlobalNY)
	im := make([]float64, l.GlobalNX*l.GlobalNY)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	sc.Split(bufio.ScanWords)
	next := func() (float64, error) {
		if !sc.Scan() {
			return 0, fmt.Errorf("state: input truncated")
		}
		return strconv.ParseFloat(sc.Text(), 64)
	}
	for i := range re {
		var err error
		if re[i], err = next(); err != nil {
			return nil, err
		}
		if im[i], err = next(); err != nil {
			return nil, err
		}
	}

	s := Zero(l)
	for j := 0; j < l.DimY; j++ {
		gy := l.WrapY(l.StartY + j)
		for i := 0; i < l.DimX; i++ {
			gx := l.WrapX(l.StartX + i)
			s.PReal[j*l.DimX+i] = re[gy*l.GlobalNX+gx]
			s.PImag[j*l.DimX+i] = im[gy*l.GlobalNX+gx]
		}
	}
	return s, nil
}

// Load reads a state file written by Write.
func Load(l *lattice.Lattice, path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(l, f)
}
