package pipeline

import (
	"github.com/banshee-data/handtraj/internal/cluster"
	"github.com/banshee-data/handtraj/internal/config"
	"github.com/banshee-data/handtraj/internal/monitoring"
	"github.com/banshee-data/handtraj/internal/threshold"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Config holds the batch-stage parameters.
type Config struct {
	TrackLength   int
	SegmentStep   int
	Cluster       cluster.Params
	Workers       int
	OtsuPrefilter bool
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		TrackLength:   cfg.GetTrackLength(),
		SegmentStep:   cfg.GetSegmentStep(),
		Cluster:       cluster.ParamsFromTuning(cfg),
		Workers:       cfg.GetClusterWorkers(),
		OtsuPrefilter: cfg.GetOtsuPrefilter(),
	}
}

// Result is the output of the batch stages.
type Result struct {
	Window trajectory.Window

	// Extracted holds every segment in the window; Energies is aligned
	// with it.
	Extracted []trajectory.Segment
	Energies  []int
	Threshold int

	// Segments are the clustered segments: Extracted, or its Otsu
	// survivors when the prefilter is on.
	Segments   []trajectory.Segment
	Matrix     *cluster.Matrix
	Assignment cluster.Assignment
}

// ClusteredPolyline is one segment ready for drawing.
type ClusteredPolyline struct {
	Points    []trajectory.Point
	ClusterID int
}

// Polylines pairs each clustered segment with its cluster id, in segment
// order.
func (r *Result) Polylines() []ClusteredPolyline {
	out := make([]ClusteredPolyline, len(r.Segments))
	for i, s := range r.Segments {
		out[i] = ClusteredPolyline{Points: s.Points, ClusterID: r.Assignment.IDs[i]}
	}
	return out
}

// Analyze runs the batch stages over the completed trajectories.
func Analyze(completed []*trajectory.Trajectory, cfg Config) *Result {
	res := &Result{}
	res.Window = trajectory.SelectWindow(completed, cfg.TrackLength, cfg.SegmentStep)
	monitoring.Opsf("window frame %d covers %d of %d trajectories",
		res.Window.Frame, res.Window.Count, len(completed))

	res.Extracted = trajectory.Extract(completed, res.Window.Frame, cfg.TrackLength, cfg.SegmentStep)
	res.Energies = threshold.Energies(res.Extracted)
	res.Threshold = threshold.Otsu(res.Energies)
	monitoring.Diagf("otsu: segments=%d threshold=%d", len(res.Extracted), res.Threshold)

	res.Segments = res.Extracted
	if cfg.OtsuPrefilter {
		res.Segments = threshold.Filter(res.Extracted, res.Threshold)
		monitoring.Diagf("otsu prefilter kept %d of %d segments", len(res.Segments), len(res.Extracted))
	}

	res.Matrix, res.Assignment = cluster.Cluster(res.Segments, cfg.Cluster, cfg.Workers)
	monitoring.Opsf("%d segments in %d clusters", len(res.Segments), res.Assignment.Count)
	return res
}
