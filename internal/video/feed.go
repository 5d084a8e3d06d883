package video

import (
	"context"
	"io"

	"gocv.io/x/gocv"

	"github.com/banshee-data/handtraj/internal/pipeline"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Feed turns a Source into a pipeline.FrameFeed: each frame is converted
// to grayscale and the flow from the previous frame is computed.
type Feed struct {
	src     *Source
	sampler Sampler
	params  FarnebackParams

	frame gocv.Mat
	prev  gocv.Mat
	cur   gocv.Mat
	flow  *Flow
	count int
}

var _ pipeline.FrameFeed = (*Feed)(nil)

// NewFeed wraps src. The Feed owns its working Mats, not src.
func NewFeed(src *Source, sampler Sampler, params FarnebackParams) *Feed {
	return &Feed{
		src:     src,
		sampler: sampler,
		params:  params,
		frame:   gocv.NewMat(),
		prev:    gocv.NewMat(),
		cur:     gocv.NewMat(),
		flow:    NewFlow(),
	}
}

// Next implements pipeline.FrameFeed.
func (f *Feed) Next(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}
	idx, ok := f.src.Read(&f.frame)
	if !ok {
		return pipeline.Frame{}, io.EOF
	}

	f.prev, f.cur = f.cur, f.prev
	gocv.CvtColor(f.frame, &f.cur, gocv.ColorBGRToGray)
	f.count++

	fr := pipeline.Frame{Index: idx}
	if f.count > 1 {
		f.flow.Compute(f.prev, f.cur, f.params)
		fr.Flow = f.flow
	}
	return fr, nil
}

// Sample implements pipeline.FrameFeed on the most recent frame.
func (f *Feed) Sample(exclude []trajectory.Point) ([]trajectory.Point, error) {
	return f.sampler.Sample(f.cur, exclude), nil
}

// Close releases the working Mats.
func (f *Feed) Close() error {
	f.frame.Close()
	f.prev.Close()
	f.cur.Close()
	return f.flow.Close()
}
