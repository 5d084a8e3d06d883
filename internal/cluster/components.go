package cluster

import (
	"github.com/banshee-data/handtraj/internal/monitoring"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Assignment maps every segment index to a cluster id. Ids are dense,
// start at 0 and follow discovery order.
type Assignment struct {
	IDs   []int
	Count int
}

// Members returns the segment indices assigned to id, ascending.
func (a Assignment) Members(id int) []int {
	var out []int
	for i, c := range a.IDs {
		if c == id {
			out = append(out, i)
		}
	}
	return out
}

// Sizes returns the number of segments in each cluster, indexed by id.
func (a Assignment) Sizes() []int {
	sizes := make([]int, a.Count)
	for _, c := range a.IDs {
		sizes[c]++
	}
	return sizes
}

// Components labels the connected components of m breadth-first,
// starting each component at the lowest unvisited index.
func Components(m *Matrix) Assignment {
	n := m.Len()
	ids := make([]int, n)
	for i := range ids {
		ids[i] = -1
	}

	// Every node is enqueued at most once, so a ring of n slots never
	// overflows.
	queue := make([]int, n)
	next := 0
	for root := 0; root < n; root++ {
		if ids[root] != -1 {
			continue
		}
		ids[root] = next
		head, size := 0, 0
		queue[(head+size)%n] = root
		size++

		for size > 0 {
			cur := queue[head]
			head = (head + 1) % n
			size--
			for j := 0; j < n; j++ {
				if ids[j] == -1 && m.Has(cur, j) {
					ids[j] = next
					queue[(head+size)%n] = j
					size++
				}
			}
		}
		next++
	}
	return Assignment{IDs: ids, Count: next}
}

// Cluster builds the similarity matrix over segs and labels its
// components.
func Cluster(segs []trajectory.Segment, p Params, workers int) (*Matrix, Assignment) {
	stats := make([]trajectory.Stats, len(segs))
	for i, s := range segs {
		stats[i] = s.Stats
	}
	m := BuildMatrix(stats, p, workers)
	a := Components(m)
	monitoring.Diagf("clustering: segments=%d edges=%d clusters=%d", len(segs), m.Edges(), a.Count)
	return m, a
}
