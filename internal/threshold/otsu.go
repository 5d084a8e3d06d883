// Package threshold separates motion-significant segments from background
// noise with an adaptive Otsu threshold over a per-segment energy proxy.
package threshold

import (
	"math"
	"slices"

	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Energy returns the integer energy proxy of s: each variance is rounded
// to the nearest integer and the two are multiplied.
func Energy(s trajectory.Stats) int {
	return int(math.Round(s.VarX)) * int(math.Round(s.VarY))
}

// Energies returns Energy for each segment, in order.
func Energies(segs []trajectory.Segment) []int {
	out := make([]int, len(segs))
	for i, s := range segs {
		out[i] = Energy(s.Stats)
	}
	return out
}

// Bin is one occupied histogram bin.
type Bin struct {
	Value int
	Count int
}

// Histogram counts values into their occupied bins, ascending by value.
// Negative values are counted as 0. Empty bins are omitted, so the result
// is bounded by the number of distinct values.
func Histogram(values []int) []Bin {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]int, len(values))
	for i, v := range values {
		sorted[i] = max(v, 0)
	}
	slices.Sort(sorted)

	var bins []Bin
	for _, v := range sorted {
		if n := len(bins); n > 0 && bins[n-1].Value == v {
			bins[n-1].Count++
			continue
		}
		bins = append(bins, Bin{Value: v, Count: 1})
	}
	return bins
}

// Otsu returns the bin t maximising the between-class variance
// wB*wF*(mB-mF)^2, where the background class is every value <= t.
// Candidate splits are scanned in increasing order and the first maximum
// wins. Empty bins between occupied ones never change the class sums, so
// only occupied bins are candidates. When every value falls in one bin no
// split exists and that bin is returned. An empty input returns 0.
func Otsu(values []int) int {
	bins := Histogram(values)
	if bins == nil {
		return 0
	}

	total := float64(len(values))
	var sum float64
	for _, b := range bins {
		sum += float64(b.Value) * float64(b.Count)
	}

	threshold := bins[0].Value
	best := 0.0
	var sumB, wB float64
	for _, b := range bins {
		wB += float64(b.Count)
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(b.Value) * float64(b.Count)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = b.Value
		}
	}
	return threshold
}

// Keep returns the indices of values that are >= threshold, ascending.
func Keep(values []int, threshold int) []int {
	var out []int
	for i, v := range values {
		if v >= threshold {
			out = append(out, i)
		}
	}
	return out
}

// Filter returns the segments whose energy is >= threshold, preserving
// order. The threshold bin itself is kept, so when Otsu splits off only the
// lowest bin nothing is removed.
func Filter(segs []trajectory.Segment, threshold int) []trajectory.Segment {
	energies := Energies(segs)
	idx := Keep(energies, threshold)
	out := make([]trajectory.Segment, len(idx))
	for i, j := range idx {
		out[i] = segs[j]
	}
	return out
}
