package trajectory

import (
	"errors"
	"fmt"

	"github.com/banshee-data/handtraj/internal/monitoring"
)

// ErrSegmentOutOfRange is returned when a trajectory cannot supply the
// requested window: its stored points do not cover the computed indices.
var ErrSegmentOutOfRange = errors.New("segment start index out of range")

// Segment is a fixed-length view of a completed trajectory aligned to the
// representative window. Points are copied; the parent is not referenced.
type Segment struct {
	TrajectoryID int64

	// AnchorFrame is the parent trajectory's completion frame.
	AnchorFrame int

	// Points[len(Points)-1] is the trajectory's position at the window
	// frame.
	Points        []Point
	Displacements []Point

	// Stats are computed over Displacements only.
	Stats
}

// SegmentOf slices tr to the step+1 points that end at windowFrame.
// The caller is expected to have checked that tr qualifies for the
// window; indices are verified regardless.
func SegmentOf(tr *Trajectory, windowFrame, trackLength, step int) (Segment, error) {
	shift := tr.CompletionFrame - windowFrame
	start := trackLength - shift - step
	end := start + step
	if step < 1 || start < 0 || end >= len(tr.Points) {
		return Segment{}, fmt.Errorf("trajectory %d: start=%d end=%d points=%d: %w",
			tr.ID, start, end, len(tr.Points), ErrSegmentOutOfRange)
	}

	pts := make([]Point, step+1)
	copy(pts, tr.Points[start:end+1])
	disp := Displacements(pts)
	return Segment{
		TrajectoryID:  tr.ID,
		AnchorFrame:   tr.CompletionFrame,
		Points:        pts,
		Displacements: disp,
		Stats:         ComputeStats(disp),
	}, nil
}

// Extract returns one segment for every trajectory that completed within
// [windowFrame, windowFrame+trackLength-step], in input order. A
// trajectory whose indices fall outside its stored points is skipped
// with a diagnostic.
func Extract(completed []*Trajectory, windowFrame, trackLength, step int) []Segment {
	var segs []Segment
	for _, tr := range completed {
		if !inWindow(tr.CompletionFrame, windowFrame, trackLength, step) {
			continue
		}
		seg, err := SegmentOf(tr, windowFrame, trackLength, step)
		if err != nil {
			monitoring.Diagf("segment extraction: skipping: %v", err)
			continue
		}
		segs = append(segs, seg)
	}
	return segs
}
