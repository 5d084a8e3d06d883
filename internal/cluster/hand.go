package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/handtraj/internal/trajectory"
)

// DefaultHandRadius is the k-means radius, in pixels, used to localise
// the hand among the points tracked on one frame.
const DefaultHandRadius = 50.0

// ErrBadPartition is returned when a KMeans result does not match its
// input.
var ErrBadPartition = errors.New("k-means returned a malformed partition")

// KMeans partitions pts into k groups. labels[i] in [0, k) is the group
// of pts[i] and centers[j] the centre of group j.
type KMeans func(pts []trajectory.Point, k int) (labels []int, centers []trajectory.Point, err error)

// LocateHand partitions pts with K = 1, 2, ... until every point lies
// within radius of its group centre and returns the points of the largest
// group, the lowest label winning ties. K never exceeds len(pts), where
// every point is its own centre. An empty input returns nil.
func LocateHand(pts []trajectory.Point, radius float64, km KMeans) ([]trajectory.Point, error) {
	if len(pts) == 0 {
		return nil, nil
	}

	for k := 1; k <= len(pts); k++ {
		labels, centers, err := km(pts, k)
		if err != nil {
			return nil, fmt.Errorf("k-means k=%d: %w", k, err)
		}
		if len(labels) != len(pts) || len(centers) != k {
			return nil, fmt.Errorf("k=%d: %d labels for %d points, %d centres: %w",
				k, len(labels), len(pts), len(centers), ErrBadPartition)
		}
		fits, err := withinRadius(pts, labels, centers, radius)
		if err != nil {
			return nil, fmt.Errorf("k=%d: %w", k, err)
		}
		if fits || k == len(pts) {
			return largestGroup(pts, labels, k), nil
		}
	}
	return nil, nil
}

func withinRadius(pts []trajectory.Point, labels []int, centers []trajectory.Point, radius float64) (bool, error) {
	for i, p := range pts {
		l := labels[i]
		if l < 0 || l >= len(centers) {
			return false, fmt.Errorf("label %d: %w", l, ErrBadPartition)
		}
		c := centers[l]
		if math.Hypot(p.X-c.X, p.Y-c.Y) > radius {
			return false, nil
		}
	}
	return true, nil
}

func largestGroup(pts []trajectory.Point, labels []int, k int) []trajectory.Point {
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	best := 0
	for j := 1; j < k; j++ {
		if sizes[j] > sizes[best] {
			best = j
		}
	}
	out := make([]trajectory.Point, 0, sizes[best])
	for i, p := range pts {
		if labels[i] == best {
			out = append(out, p)
		}
	}
	return out
}
