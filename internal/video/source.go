// Package video adapts OpenCV (via gocv) to the tracking pipeline: frame
// decoding with a frame-range restriction, Farneback dense optical flow,
// feature sampling, and drawing clustered polylines back onto frames.
//
// Everything here needs cgo and an OpenCV installation; the packages the
// pipeline depends on for its logic do not.
package video

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/banshee-data/handtraj/internal/trajectory"
)

// ErrInputUnavailable is returned when a video cannot be opened.
var ErrInputUnavailable = errors.New("video input unavailable")

// Source decodes frames start..end of a video file, inclusive. An end of
// -1 reads to the end of the file.
type Source struct {
	path  string
	vc    *gocv.VideoCapture
	start int
	end   int
	next  int // index of the next frame the decoder will return
}

// OpenSource opens path for reading. Frame indices count from 0 at the
// start of the file regardless of start.
func OpenSource(path string, start, end int) (*Source, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrInputUnavailable)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrInputUnavailable)
	}
	if start < 0 {
		start = 0
	}
	return &Source{path: path, vc: vc, start: start, end: end}, nil
}

// Path returns the file the source was opened from.
func (s *Source) Path() string { return s.path }

// Bounds returns the decoded frame size.
func (s *Source) Bounds() trajectory.Bounds {
	return trajectory.Bounds{
		Width:  int(s.vc.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(s.vc.Get(gocv.VideoCaptureFrameHeight)),
	}
}

// FPS returns the container frame rate, or 25 when it is not reported.
func (s *Source) FPS() float64 {
	if fps := s.vc.Get(gocv.VideoCaptureFPS); fps > 0 {
		return fps
	}
	return 25
}

// Read decodes the next frame inside the range into dst and returns its
// index. ok is false once the range or the file is exhausted.
func (s *Source) Read(dst *gocv.Mat) (index int, ok bool) {
	for {
		if s.end >= 0 && s.next > s.end {
			return 0, false
		}
		if !s.vc.Read(dst) || dst.Empty() {
			return 0, false
		}
		index = s.next
		s.next++
		if index >= s.start {
			return index, true
		}
	}
}

// Close releases the decoder.
func (s *Source) Close() error {
	return s.vc.Close()
}

// ReadFrameAt decodes the frame with the given index from path.
func ReadFrameAt(path string, index int) (gocv.Mat, error) {
	src, err := OpenSource(path, index, index)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer src.Close()

	img := gocv.NewMat()
	if _, ok := src.Read(&img); !ok {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("%s: frame %d not found", path, index)
	}
	return img, nil
}
