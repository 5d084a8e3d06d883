package video

import (
	"gocv.io/x/gocv"

	"github.com/banshee-data/handtraj/internal/config"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Sampler finds trackable corners on a grayscale frame.
type Sampler struct {
	Quality     float64
	MinDistance float64
	MaxCorners  int
}

// SamplerFromTuning builds a Sampler from a loaded TuningConfig.
func SamplerFromTuning(cfg *config.TuningConfig) Sampler {
	return Sampler{
		Quality:     cfg.GetSampleQuality(),
		MinDistance: cfg.GetSampleMinDistance(),
		MaxCorners:  cfg.GetMaxCorners(),
	}
}

// Sample returns corners of gray that do not share an exclusion cell with
// any exclude point.
func (s Sampler) Sample(gray gocv.Mat, exclude []trajectory.Point) []trajectory.Point {
	corners := gocv.NewMat()
	defer corners.Close()

	gocv.GoodFeaturesToTrack(gray, &corners, s.MaxCorners, s.Quality, s.MinDistance)
	if corners.Empty() {
		return nil
	}

	candidates := make([]trajectory.Point, 0, corners.Rows())
	for i := 0; i < corners.Rows(); i++ {
		v := corners.GetVecfAt(i, 0)
		candidates = append(candidates, trajectory.Point{X: float64(v[0]), Y: float64(v[1])})
	}
	b := trajectory.Bounds{Width: gray.Cols(), Height: gray.Rows()}
	return trajectory.FilterSeeds(candidates, exclude, b, s.MinDistance)
}
