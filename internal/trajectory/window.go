package trajectory

// Window is the representative temporal window chosen for clustering.
// Frame is the last frame every extracted segment covers; Count is the
// number of completed trajectories that qualify for it.
type Window struct {
	Frame int
	Count int
}

// inWindow reports whether a trajectory completed at completionFrame
// can supply a segment of step steps ending at windowFrame.
func inWindow(completionFrame, windowFrame, trackLength, step int) bool {
	return windowFrame <= completionFrame && completionFrame <= windowFrame+trackLength-step
}

// CountInWindow returns how many trajectories completed within
// [frame, frame+trackLength-step].
func CountInWindow(completed []*Trajectory, frame, trackLength, step int) int {
	n := 0
	for _, tr := range completed {
		if inWindow(tr.CompletionFrame, frame, trackLength, step) {
			n++
		}
	}
	return n
}

// SelectWindow scans candidate frames from step up to the latest
// completion frame and returns the one with the most qualifying
// trajectories. Ties go to the lowest frame. With no trajectories the
// result is {Frame: step, Count: 0}.
func SelectWindow(completed []*Trajectory, trackLength, step int) Window {
	best := Window{Frame: step}
	if len(completed) == 0 {
		return best
	}

	last := completed[0].CompletionFrame
	for _, tr := range completed[1:] {
		if tr.CompletionFrame > last {
			last = tr.CompletionFrame
		}
	}

	for f := step; f <= last; f++ {
		if n := CountInWindow(completed, f, trackLength, step); n > best.Count {
			best = Window{Frame: f, Count: n}
		}
	}
	return best
}
