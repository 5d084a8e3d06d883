package trajectory

import "math"

// FilterSeeds removes candidate seed points that would crowd existing
// trajectories. The frame is divided into square cells of side
// minDistance; a cell holding a live tip, or a candidate accepted earlier
// in the slice, rejects further candidates. Candidates outside b are
// dropped.
func FilterSeeds(candidates, tips []Point, b Bounds, minDistance float64) []Point {
	if len(candidates) == 0 {
		return nil
	}
	if minDistance <= 0 {
		minDistance = 1
	}
	cols := int(math.Ceil(float64(b.Width) / minDistance))
	rows := int(math.Ceil(float64(b.Height) / minDistance))
	if cols <= 0 || rows <= 0 {
		return nil
	}
	occupied := make([]bool, cols*rows)

	cell := func(p Point) int {
		cx := int(p.X / minDistance)
		cy := int(p.Y / minDistance)
		if cx >= cols {
			cx = cols - 1
		}
		if cy >= rows {
			cy = rows - 1
		}
		return cy*cols + cx
	}

	for _, tip := range tips {
		if b.Contains(tip) {
			occupied[cell(tip)] = true
		}
	}

	out := make([]Point, 0, len(candidates))
	for _, c := range candidates {
		if !b.Contains(c) {
			continue
		}
		idx := cell(c)
		if occupied[idx] {
			continue
		}
		occupied[idx] = true
		out = append(out, c)
	}
	return out
}
