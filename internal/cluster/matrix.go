package cluster

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Matrix is an N x N boolean adjacency grid stored row-major. The
// diagonal is never set.
type Matrix struct {
	n     int
	cells []bool
}

// NewMatrix returns an empty n x n matrix.
func NewMatrix(n int) *Matrix {
	if n < 0 {
		n = 0
	}
	return &Matrix{n: n, cells: make([]bool, n*n)}
}

// Len returns N.
func (m *Matrix) Len() int { return m.n }

// Has reports whether i and j are adjacent.
func (m *Matrix) Has(i, j int) bool { return m.cells[i*m.n+j] }

// Set marks i and j adjacent in both directions.
func (m *Matrix) Set(i, j int) {
	if i == j {
		return
	}
	m.cells[i*m.n+j] = true
	m.cells[j*m.n+i] = true
}

// setUpper marks only the (i, j) cell; i < j.
func (m *Matrix) setUpper(i, j int) { m.cells[i*m.n+j] = true }

// mirror copies the upper triangle onto the lower one.
func (m *Matrix) mirror() {
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			if m.cells[i*m.n+j] {
				m.cells[j*m.n+i] = true
			}
		}
	}
}

// Symmetric reports whether Has(i, j) == Has(j, i) for every pair.
func (m *Matrix) Symmetric() bool {
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			if m.cells[i*m.n+j] != m.cells[j*m.n+i] {
				return false
			}
		}
	}
	return true
}

// Edges returns the number of undirected edges.
func (m *Matrix) Edges() int {
	e := 0
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			if m.cells[i*m.n+j] {
				e++
			}
		}
	}
	return e
}

// BuildMatrix tests Same for every pair i < j and mirrors the result.
// Rows are distributed over up to workers goroutines; workers <= 0 uses
// GOMAXPROCS. Each row writes only its own upper-triangle cells.
func BuildMatrix(stats []trajectory.Stats, p Params, workers int) *Matrix {
	n := len(stats)
	m := NewMatrix(n)
	if n < 2 {
		return m
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n-1; i++ {
		g.Go(func() error {
			for j := i + 1; j < n; j++ {
				if Same(stats[i], stats[j], p) {
					m.setUpper(i, j)
				}
			}
			return nil
		})
	}
	_ = g.Wait() // rows never fail

	m.mirror()
	return m
}

// Graph returns the adjacency as a gonum undirected graph. Node IDs are
// segment indices and every index is present, including isolated ones.
func (m *Matrix) Graph() *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < m.n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			if m.cells[i*m.n+j] {
				g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
			}
		}
	}
	return g
}

// WriteDOT writes the similarity graph in Graphviz DOT format.
func (m *Matrix) WriteDOT(w io.Writer, name string) error {
	b, err := dot.Marshal(m.Graph(), name, "", "\t")
	if err != nil {
		return fmt.Errorf("marshal similarity graph: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write similarity graph: %w", err)
	}
	return nil
}
