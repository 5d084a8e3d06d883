package cluster

import (
	"math"

	"github.com/banshee-data/handtraj/internal/config"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Params are the clustering tolerances.
type Params struct {
	DeltaVar  float64 // max per-axis variance difference
	DeltaMean float64 // max per-axis mean difference
}

// ParamsFromTuning builds Params from a loaded TuningConfig.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		DeltaVar:  cfg.GetDeltaVar(),
		DeltaMean: cfg.GetDeltaMean(),
	}
}

// Same reports whether a and b are within tolerance on all four of
// varX, varY, meanX and meanY.
func Same(a, b trajectory.Stats, p Params) bool {
	return math.Abs(a.VarX-b.VarX) <= p.DeltaVar &&
		math.Abs(a.VarY-b.VarY) <= p.DeltaVar &&
		math.Abs(a.MeanX-b.MeanX) <= p.DeltaMean &&
		math.Abs(a.MeanY-b.MeanY) <= p.DeltaMean
}
