package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/banshee-data/handtraj/internal/trajectory"
)

const kmeansAttempts = 10

// KMeans partitions pts into k groups with OpenCV k-means using random
// initial centres. It satisfies cluster.KMeans.
func KMeans(pts []trajectory.Point, k int) ([]int, []trajectory.Point, error) {
	if k < 1 || k > len(pts) {
		return nil, nil, fmt.Errorf("k-means: k=%d for %d points", k, len(pts))
	}

	data := gocv.NewMatWithSize(len(pts), 2, gocv.MatTypeCV32F)
	defer data.Close()
	for i, p := range pts {
		data.SetFloatAt(i, 0, float32(p.X))
		data.SetFloatAt(i, 1, float32(p.Y))
	}

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, 10, 1.0)
	gocv.KMeans(data, k, &labels, criteria, kmeansAttempts, gocv.KMeansRandomCenters, &centers)
	if labels.Rows() != len(pts) || centers.Rows() != k {
		return nil, nil, fmt.Errorf("k-means: %d labels, %d centres for k=%d", labels.Rows(), centers.Rows(), k)
	}

	out := make([]int, len(pts))
	for i := range out {
		out[i] = int(labels.GetIntAt(i, 0))
	}
	cs := make([]trajectory.Point, k)
	for j := range cs {
		cs[j] = trajectory.Point{X: float64(centers.GetFloatAt(j, 0)), Y: float64(centers.GetFloatAt(j, 1))}
	}
	return out, cs, nil
}
