package trajectory

import "gonum.org/v1/gonum/stat"

// Displacements returns the per-step differences points[i]-points[i-1]
// for i in 1..len(points)-1.
func Displacements(points []Point) []Point {
	if len(points) < 2 {
		return nil
	}
	d := make([]Point, len(points)-1)
	for i := 1; i < len(points); i++ {
		d[i-1] = points[i].Sub(points[i-1])
	}
	return d
}

// ComputeStats returns the mean and population variance of the X and Y
// components of displacements, independently. An empty input yields zero
// Stats.
func ComputeStats(displacements []Point) Stats {
	if len(displacements) == 0 {
		return Stats{}
	}
	xs := make([]float64, len(displacements))
	ys := make([]float64, len(displacements))
	for i, d := range displacements {
		xs[i] = d.X
		ys[i] = d.Y
	}
	var s Stats
	s.MeanX, s.VarX = stat.PopMeanVariance(xs, nil)
	s.MeanY, s.VarY = stat.PopMeanVariance(ys, nil)
	return s
}

// Classify computes displacement statistics for a completed point
// sequence. It reports false when the sequence does not hold exactly
// trackLength+1 points. A motionless sequence is valid with zero variance;
// the foreground decision is left to Stats.IsForeground.
func Classify(points []Point, trackLength int) (Stats, bool) {
	if trackLength < 1 || len(points) != trackLength+1 {
		return Stats{}, false
	}
	return ComputeStats(Displacements(points)), true
}
