package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/handtraj/internal/monitoring"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Frame is one input frame. Flow is the displacement field from the
// previous frame and is nil for the first frame of a run.
type Frame struct {
	Index int
	Flow  trajectory.FlowField
}

// FrameFeed supplies frames in strictly increasing order and samples
// seed points on the most recent frame.
type FrameFeed interface {
	// Next returns the next frame, or io.EOF when the input is exhausted.
	Next(ctx context.Context) (Frame, error)

	// Sample returns new feature points on the current frame, avoiding
	// the exclude points.
	Sample(exclude []trajectory.Point) ([]trajectory.Point, error)
}

// TrackSummary describes a completed tracking loop.
type TrackSummary struct {
	Frames     int
	FirstFrame int
	LastFrame  int
	Counters   trajectory.Counters
}

// Track consumes feed until io.EOF, seeding on the first frame and then
// every InitGap frames after stepping. Live trajectories that never
// reached the target length are dropped at the end.
func Track(ctx context.Context, feed FrameFeed, tk *trajectory.Tracker) (TrackSummary, error) {
	var sum TrackSummary
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		fr, err := feed.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("frame %d: %w", sum.LastFrame+1, err)
		}

		if first {
			sum.FirstFrame = fr.Index
			first = false
		} else {
			if fr.Flow == nil {
				return sum, fmt.Errorf("frame %d: missing flow field", fr.Index)
			}
			tk.Step(fr.Index, fr.Flow)
		}
		sum.LastFrame = fr.Index
		sum.Frames++
		if monitoring.TraceEnabled() {
			monitoring.Tracef("frame %d: live %d", fr.Index, tk.LiveCount())
		}

		if sum.Frames == 1 || tk.SeedDue() {
			pts, err := feed.Sample(tk.Tips())
			if err != nil {
				return sum, fmt.Errorf("sample frame %d: %w", fr.Index, err)
			}
			n := tk.Seed(fr.Index, pts)
			monitoring.Tracef("frame %d: seeded %d", fr.Index, n)
		}
	}

	dropped := tk.Finish()
	sum.Counters = tk.Counters()
	monitoring.Diagf("tracking: frames=%d [%d..%d] seeded=%d lost=%d kept=%d rejected=%d unfinished=%d",
		sum.Frames, sum.FirstFrame, sum.LastFrame, sum.Counters.Seeded, sum.Counters.Lost,
		sum.Counters.Kept, sum.Counters.Rejected, dropped)
	if err := tk.Err(); err != nil {
		return sum, fmt.Errorf("record trajectories: %w", err)
	}
	return sum, nil
}
