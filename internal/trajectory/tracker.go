package trajectory

import (
	"math"
	"sync"

	"github.com/banshee-data/handtraj/internal/config"
	"github.com/banshee-data/handtraj/internal/monitoring"
)

// Config holds the trajectory lifecycle parameters.
type Config struct {
	TrackLength  int     // steps before a trajectory is finalized
	InitGap      int     // frames between reseeding
	VarThreshold float64 // per-axis displacement variance that marks foreground motion
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		TrackLength:  cfg.GetTrackLength(),
		InitGap:      cfg.GetInitGap(),
		VarThreshold: cfg.GetVarThreshold(),
	}
}

// CompletionSink receives every trajectory that completes and passes
// classification, at the moment it is finalized.
type CompletionSink interface {
	RecordTrajectory(t *Trajectory) error
}

// Counters are lifetime totals for a Tracker.
type Counters struct {
	Seeded     int // trajectories started
	Lost       int // left the frame before completion
	Kept       int // completed and classified as foreground
	Rejected   int // completed but invalid or below the variance threshold
	Unfinished int // still live when Finish was called
}

// StepResult counts the outcomes of one Step call.
type StepResult struct {
	Continuing int
	Lost       int
	Completed  int
}

// Tracker advances the live trajectory set one frame at a time and keeps
// the completed foreground trajectories for the batch stages.
//
// Frames must be supplied in strictly increasing order.
type Tracker struct {
	mu sync.Mutex

	Config Config

	live      []*Trajectory
	statuses  []Status
	completed []*Trajectory

	nextID    int64
	sinceSeed int
	counters  Counters

	sink    CompletionSink
	sinkErr error
}

// NewTracker creates a tracker with no live trajectories.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		Config: cfg,
		nextID: 1,
	}
}

// SetSink installs the completion sink. Pass nil to remove it.
func (t *Tracker) SetSink(s CompletionSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = s
}

// Seed starts one trajectory of length 0 at each point and restarts the
// reseeding cadence. It returns the number of trajectories started.
func (t *Tracker) Seed(frame int, points []Point) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range points {
		pts := make([]Point, 1, t.Config.TrackLength+1)
		pts[0] = p
		t.live = append(t.live, &Trajectory{
			ID:         t.nextID,
			StartFrame: frame,
			Points:     pts,
			Active:     true,
		})
		t.nextID++
	}
	t.counters.Seeded += len(points)
	t.sinceSeed = 0
	return len(points)
}

// SeedDue reports whether InitGap frames have been stepped since the
// last Seed.
func (t *Tracker) SeedDue() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sinceSeed >= t.Config.InitGap
}

// Tips returns the current position of every live trajectory. The
// feature sampler uses them as its exclusion set.
func (t *Tracker) Tips() []Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	tips := make([]Point, len(t.live))
	for i, tr := range t.live {
		tips[i] = tr.Tip()
	}
	return tips
}

// Advance appends candidate to tr and reports the resulting status.
// tr is not required to belong to the live set; Step is the usual caller.
func (t *Tracker) Advance(tr *Trajectory, candidate Point, b Bounds, frame int) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.advance(tr, candidate, b, frame)
}

func (t *Tracker) advance(tr *Trajectory, candidate Point, b Bounds, frame int) Status {
	if !b.Contains(candidate) {
		tr.Active = false
		tr.CompletionFrame = frame
		t.counters.Lost++
		return StatusLost
	}

	tr.Points = append(tr.Points, candidate)
	if tr.Steps() < t.Config.TrackLength {
		return StatusContinuing
	}

	tr.Active = false
	tr.CompletionFrame = frame

	stats, ok := Classify(tr.Points, t.Config.TrackLength)
	if !ok || !stats.IsForeground(t.Config.VarThreshold) {
		t.counters.Rejected++
		return StatusCompleted
	}

	tr.Stats = stats
	t.completed = append(t.completed, tr)
	t.counters.Kept++
	if t.sink != nil {
		if err := t.sink.RecordTrajectory(tr); err != nil && t.sinkErr == nil {
			monitoring.Opsf("trajectory %d: completion sink failed: %v", tr.ID, err)
			t.sinkErr = err
		}
	}
	return StatusCompleted
}

// Step advances every live trajectory through flow. Each trajectory moves
// by the displacement at the pixel nearest its tip, clamped to the frame.
// Lost and completed trajectories leave the live set once the whole set
// has been advanced.
func (t *Tracker) Step(frame int, flow FlowField) StepResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := flow.Bounds()
	if cap(t.statuses) < len(t.live) {
		t.statuses = make([]Status, len(t.live))
	}
	statuses := t.statuses[:len(t.live)]

	for i, tr := range t.live {
		tip := tr.Tip()
		x := clampIndex(tip.X, b.Width)
		y := clampIndex(tip.Y, b.Height)
		statuses[i] = t.advance(tr, tip.Add(flow.At(x, y)), b, frame)
	}

	var res StepResult
	kept := t.live[:0]
	for i, tr := range t.live {
		switch statuses[i] {
		case StatusContinuing:
			kept = append(kept, tr)
			res.Continuing++
		case StatusLost:
			res.Lost++
		case StatusCompleted:
			res.Completed++
		}
	}
	for i := len(kept); i < len(t.live); i++ {
		t.live[i] = nil
	}
	t.live = kept
	t.sinceSeed++

	monitoring.Tracef("frame %d: live=%d lost=%d completed=%d kept_total=%d",
		frame, res.Continuing, res.Lost, res.Completed, len(t.completed))
	return res
}

// clampIndex rounds v to the nearest pixel index in [0, n).
func clampIndex(v float64, n int) int {
	i := int(math.RoundToEven(v))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// Finish drops the trajectories that are still live, which never reached
// the target length, and returns how many were dropped.
func (t *Tracker) Finish() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.live)
	for _, tr := range t.live {
		tr.Active = false
	}
	t.live = nil
	t.counters.Unfinished += n
	return n
}

// Completed returns the kept trajectories in completion order. The slice
// is a copy; the trajectories are shared and must be treated as read-only.
func (t *Tracker) Completed() []*Trajectory {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Trajectory, len(t.completed))
	copy(out, t.completed)
	return out
}

// LiveCount returns the size of the live set.
func (t *Tracker) LiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Counters returns the lifetime totals.
func (t *Tracker) Counters() Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters
}

// Err returns the first error reported by the completion sink.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sinkErr
}
