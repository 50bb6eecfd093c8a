package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/skern/trotter/internal/lattice"
	"github.com/skern/trotter/internal/topology"
)

// Snapshot formats.
const (
	FormatASCII  = "ascii"
	FormatBinary = "binary"
)

// WriteSnapshot gathers the inner boxes of a scalar field in Cartesian
// order and writes the global grid to "<tag>_<iter>" in dir. Every
// rank must call it; only rank 0 touches the filesystem. field is this
// rank's inner box, row-major.
func WriteSnapshot(comm *topology.Comm, l *lattice.Lattice, field []float64, dir, tag string, iter int, format string) error {
	global := Assemble(comm, l, field)
	if comm.Rank() != 0 {
		return nil
	}
	name := filepath.Join(dir, fmt.Sprintf("%s_%d", tag, iter))
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "storage: snapshot %s", name)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if format == FormatBinary {
		if err := binary.Write(w, binary.LittleEndian, global); err != nil {
			return errors.Wrap(err, "storage: snapshot")
		}
	} else {
		nx := l.GlobalNX
		for i, v := range global {
			sep := " "
			if (i+1)%nx == 0 {
				sep = "\n"
			}
			if _, err := w.WriteString(strconv.FormatFloat(v, 'g', 17, 64) + sep); err != nil {
				return errors.Wrap(err, "storage: snapshot")
			}
		}
	}
	return errors.Wrap(w.Flush(), "storage: snapshot")
}

// Assemble gathers the per-rank inner boxes into the global row-major
// field. All ranks receive the result.
func Assemble(comm *topology.Comm, l *lattice.Lattice, field []float64) []float64 {
	tiles := comm.GatherSlices(field)
	global := make([]float64, l.GlobalNX*l.GlobalNY)
	for r, tile := range tiles {
		cx := r % l.Grid.PX
		cy := r / l.Grid.PX
		x0, x1 := lattice.Chunk(l.GlobalNX, l.Grid.PX, cx)
		y0, y1 := lattice.Chunk(l.GlobalNY, l.Grid.PY, cy)
		w := x1 - x0
		for j := 0; j < y1-y0; j++ {
			copy(global[(y0+j)*l.GlobalNX+x0:(y0+j)*l.GlobalNX+x1], tile[j*w:(j+1)*w])
		}
	}
	return global
}

// ReadSnapshot loads a snapshot of n values written in the given
// format.
func ReadSnapshot(path string, n int, format string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "storage: read %s", path)
	}
	defer f.Close()

	out := make([]float64, n)
	if format == FormatBinary {
		if err := binary.Read(bufio.NewReader(f), binary.LittleEndian, out); err != nil {
			return nil, errors.Wrap(err, "storage: read")
		}
		return out, nil
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	sc.Split(bufio.ScanWords)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, errors.Errorf("storage: %s truncated at value %d", path, i)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "storage: %s value %d", path, i)
		}
		out[i] = v
	}
	return out, nil
}
