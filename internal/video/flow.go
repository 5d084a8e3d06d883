package video

import (
	"gocv.io/x/gocv"

	"github.com/banshee-data/handtraj/internal/config"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// FarnebackParams configures gocv.CalcOpticalFlowFarneback.
type FarnebackParams struct {
	PyrScale   float64
	Levels     int
	WinSize    int
	Iterations int
	PolyN      int
	PolySigma  float64
}

// FarnebackFromTuning builds FarnebackParams from a loaded TuningConfig.
func FarnebackFromTuning(cfg *config.TuningConfig) FarnebackParams {
	return FarnebackParams{
		PyrScale:   cfg.GetFlowPyrScale(),
		Levels:     cfg.GetFlowLevels(),
		WinSize:    cfg.GetFlowWinSize(),
		Iterations: cfg.GetFlowIterations(),
		PolyN:      cfg.GetFlowPolyN(),
		PolySigma:  cfg.GetFlowPolySigma(),
	}
}

// Flow is a dense two-channel float32 flow field held in an OpenCV Mat.
// It implements trajectory.FlowField.
type Flow struct {
	mat gocv.Mat
}

var _ trajectory.FlowField = (*Flow)(nil)

// NewFlow returns an empty flow field. Close it when done.
func NewFlow() *Flow {
	return &Flow{mat: gocv.NewMat()}
}

// Compute replaces the field with the flow from prev to next, both
// single-channel 8-bit frames of the same size.
func (f *Flow) Compute(prev, next gocv.Mat, p FarnebackParams) {
	gocv.CalcOpticalFlowFarneback(prev, next, &f.mat,
		p.PyrScale, p.Levels, p.WinSize, p.Iterations, p.PolyN, p.PolySigma, 0)
}

// Bounds implements trajectory.FlowField.
func (f *Flow) Bounds() trajectory.Bounds {
	return trajectory.Bounds{Width: f.mat.Cols(), Height: f.mat.Rows()}
}

// At implements trajectory.FlowField.
func (f *Flow) At(x, y int) trajectory.Point {
	v := f.mat.GetVecfAt(y, x)
	return trajectory.Point{X: float64(v[0]), Y: float64(v[1])}
}

// Close releases the underlying Mat.
func (f *Flow) Close() error {
	return f.mat.Close()
}
