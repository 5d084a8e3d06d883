package trajectory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alternatingFlow pushes points left of x=50 right by 10 pixels and
// points at or beyond it left by 10, so a point seeded near the middle
// oscillates with displacement variance 100 along X.
func alternatingFlow(w, h int) *DenseFlow {
	f := NewDenseFlow(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < 50 {
				f.Set(x, y, Point{X: 10})
			} else {
				f.Set(x, y, Point{X: -10})
			}
		}
	}
	return f
}

func testConfig(trackLength int) Config {
	return Config{TrackLength: trackLength, InitGap: 1, VarThreshold: 12}
}

func TestTracker_CompletedTrajectoriesHaveTargetLength(t *testing.T) {
	t.Parallel()

	const L = 6
	tr := NewTracker(testConfig(L))
	flow := alternatingFlow(100, 100)

	seeded := tr.Seed(0, []Point{{X: 45, Y: 50}, {X: 44, Y: 20}, {X: 46, Y: 80}})
	require.Equal(t, 3, seeded)

	for frame := 1; frame <= L; frame++ {
		tr.Step(frame, flow)
	}

	completed := tr.Completed()
	require.Len(t, completed, 3)
	for _, c := range completed {
		assert.Len(t, c.Points, L+1)
		assert.Equal(t, L, c.CompletionFrame)
		assert.Equal(t, 0, c.StartFrame)
		assert.False(t, c.Active)
		assert.InDelta(t, 100.0, c.VarX, 1e-9)
		assert.InDelta(t, 0.0, c.VarY, 1e-9)
		assert.InDelta(t, 0.0, c.MeanX, 1e-9)
	}
	assert.Equal(t, 0, tr.LiveCount())
	assert.Equal(t, Counters{Seeded: 3, Kept: 3}, tr.Counters())
}

func TestTracker_StaticTrajectoryIsRejected(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(4))
	flow := NewDenseFlow(100, 100)
	tr.Seed(0, []Point{{X: 10, Y: 10}})

	var last StepResult
	for frame := 1; frame <= 4; frame++ {
		last = tr.Step(frame, flow)
	}

	assert.Equal(t, StepResult{Completed: 1}, last)
	assert.Empty(t, tr.Completed())
	assert.Equal(t, 1, tr.Counters().Rejected)

	stats, ok := Classify([]Point{{X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}}, 4)
	require.True(t, ok)
	assert.Equal(t, Stats{MeanX: 0, MeanY: 0, VarX: 0, VarY: 0}, stats)
	assert.False(t, stats.IsForeground(12))
}

func TestTracker_LeavingFrameIsLost(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(5))
	flow := NewDenseFlow(100, 100)
	flow.Fill(Point{X: 30})
	tr.Seed(0, []Point{{X: 50, Y: 50}, {X: 10, Y: 50}})

	res := tr.Step(1, flow)
	assert.Equal(t, StepResult{Continuing: 2}, res)

	// 80 -> 110 leaves; 40 -> 70 stays.
	res = tr.Step(2, flow)
	assert.Equal(t, StepResult{Continuing: 1, Lost: 1}, res)
	assert.Equal(t, 1, tr.LiveCount())

	tips := tr.Tips()
	require.Len(t, tips, 1)
	assert.Equal(t, Point{X: 70, Y: 50}, tips[0])
}

func TestTracker_AdvanceBorderIsOutside(t *testing.T) {
	t.Parallel()

	b := Bounds{Width: 100, Height: 100}
	cases := []struct {
		name string
		p    Point
		want Status
	}{
		{"inside", Point{X: 1, Y: 1}, StatusContinuing},
		{"left edge", Point{X: 0, Y: 50}, StatusLost},
		{"right edge", Point{X: 100, Y: 50}, StatusLost},
		{"bottom edge", Point{X: 50, Y: 100}, StatusLost},
		{"negative", Point{X: -0.5, Y: 50}, StatusLost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tk := NewTracker(testConfig(3))
			traj := &Trajectory{Points: []Point{{X: 50, Y: 50}}, Active: true}
			got := tk.Advance(traj, tc.p, b, 1)
			assert.Equal(t, tc.want, got)
			if tc.want == StatusLost {
				assert.False(t, traj.Active)
				assert.Len(t, traj.Points, 1)
			}
		})
	}
}

func TestTracker_SamplesNearestClampedPixel(t *testing.T) {
	t.Parallel()

	flow := NewDenseFlow(10, 10)
	flow.Set(9, 3, Point{X: -2})
	flow.Set(4, 3, Point{X: 1, Y: 1})

	tr := NewTracker(testConfig(10))
	// 9.7 rounds to 10 and clamps to 9; 3.6 rounds to 4.
	tr.Seed(0, []Point{{X: 9.7, Y: 2.6}, {X: 3.6, Y: 3.2}})
	tr.Step(1, flow)

	tips := tr.Tips()
	require.Len(t, tips, 2)
	assert.InDelta(t, 7.7, tips[0].X, 1e-9)
	assert.InDelta(t, 4.6, tips[1].X, 1e-9)
	assert.InDelta(t, 4.2, tips[1].Y, 1e-9)
}

func TestTracker_SeedCadence(t *testing.T) {
	t.Parallel()

	tr := NewTracker(Config{TrackLength: 10, InitGap: 2, VarThreshold: 12})
	flow := NewDenseFlow(20, 20)

	tr.Seed(0, []Point{{X: 5, Y: 5}})
	assert.False(t, tr.SeedDue())
	tr.Step(1, flow)
	assert.False(t, tr.SeedDue())
	tr.Step(2, flow)
	assert.True(t, tr.SeedDue())

	tr.Seed(2, []Point{{X: 6, Y: 6}})
	assert.False(t, tr.SeedDue())
	assert.Equal(t, 2, tr.LiveCount())
}

func TestTracker_FinishDropsUnfinished(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(10))
	flow := alternatingFlow(100, 100)
	tr.Seed(0, []Point{{X: 45, Y: 10}, {X: 45, Y: 20}})
	tr.Step(1, flow)

	assert.Equal(t, 2, tr.Finish())
	assert.Equal(t, 0, tr.LiveCount())
	assert.Empty(t, tr.Completed())
	assert.Equal(t, 2, tr.Counters().Unfinished)
}

func TestTracker_IDsAreMonotonic(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(2))
	flow := alternatingFlow(100, 100)
	tr.Seed(0, []Point{{X: 45, Y: 10}})
	tr.Step(1, flow)
	tr.Seed(1, []Point{{X: 45, Y: 20}})
	tr.Step(2, flow)
	tr.Step(3, flow)

	completed := tr.Completed()
	require.Len(t, completed, 2)
	assert.Equal(t, int64(1), completed[0].ID)
	assert.Equal(t, 2, completed[0].CompletionFrame)
	assert.Equal(t, int64(2), completed[1].ID)
	assert.Equal(t, 1, completed[1].StartFrame)
	assert.Equal(t, 3, completed[1].CompletionFrame)
}

type recordingSink struct {
	got []*Trajectory
	err error
}

func (s *recordingSink) RecordTrajectory(t *Trajectory) error {
	s.got = append(s.got, t)
	return s.err
}

func TestTracker_SinkReceivesKeptTrajectories(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	tr := NewTracker(testConfig(2))
	tr.SetSink(sink)

	tr.Seed(0, []Point{{X: 45, Y: 10}})
	tr.Step(1, alternatingFlow(100, 100))
	tr.Step(2, alternatingFlow(100, 100))

	require.Len(t, sink.got, 1)
	assert.Same(t, tr.Completed()[0], sink.got[0])
	assert.NoError(t, tr.Err())
}

func TestTracker_SinkErrorIsKept(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	sink := &recordingSink{err: boom}
	tr := NewTracker(testConfig(2))
	tr.SetSink(sink)

	flow := alternatingFlow(100, 100)
	tr.Seed(0, []Point{{X: 45, Y: 10}, {X: 45, Y: 20}})
	tr.Step(1, flow)
	tr.Step(2, flow)

	assert.Len(t, sink.got, 2)
	assert.ErrorIs(t, tr.Err(), boom)
	assert.Len(t, tr.Completed(), 2)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	_, ok := Classify([]Point{{X: 1}, {X: 2}}, 2)
	assert.False(t, ok, "short sequence")

	_, ok = Classify([]Point{{X: 1}}, 0)
	assert.False(t, ok, "zero length")

	stats, ok := Classify([]Point{{X: 0, Y: 0}, {X: 2, Y: 1}, {X: 2, Y: 3}}, 2)
	require.True(t, ok)
	// dx = [2, 0], dy = [1, 2]
	assert.InDelta(t, 1.0, stats.MeanX, 1e-12)
	assert.InDelta(t, 1.0, stats.VarX, 1e-12)
	assert.InDelta(t, 1.5, stats.MeanY, 1e-12)
	assert.InDelta(t, 0.25, stats.VarY, 1e-12)
}

func TestStatusString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "lost", StatusLost.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
