package video

import (
	"context"
	"fmt"
	"image/color"
	"sort"

	"gocv.io/x/gocv"

	"github.com/banshee-data/handtraj/internal/cluster"
	"github.com/banshee-data/handtraj/internal/monitoring"
	"github.com/banshee-data/handtraj/internal/resultlog"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// DefaultOverlayCodec is the FourCC used by WriteOverlay when none is
// given.
const DefaultOverlayCodec = "MJPG"

// HandColor marks the points of the localised hand.
var HandColor = color.RGBA{R: 255, A: 0}

// OverlayOptions control WriteOverlay.
type OverlayOptions struct {
	Codec  string // FourCC, DefaultOverlayCodec when empty
	Linger int    // frames a record stays visible after completion

	// HandRadius enables hand localisation when positive: the points
	// tracked on each frame are grouped with cluster.LocateHand and the
	// largest group is marked.
	HandRadius float64
}

// WriteOverlay re-encodes the video at videoPath to outPath with every
// record drawn as it is traversed: a record appears at its start frame,
// grows one point per frame and stays on screen for opts.Linger frames
// after completion. It returns the number of frames written.
func WriteOverlay(ctx context.Context, videoPath string, records []resultlog.Record, outPath string, opts OverlayOptions) (int, error) {
	codec := opts.Codec
	if codec == "" {
		codec = DefaultOverlayCodec
	}
	linger := opts.Linger

	src, err := OpenSource(videoPath, 0, -1)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	b := src.Bounds()
	w, err := gocv.VideoWriterFile(outPath, codec, src.FPS(), b.Width, b.Height, true)
	if err != nil {
		return 0, fmt.Errorf("open overlay writer %s: %w", outPath, err)
	}
	defer w.Close()
	if !w.IsOpened() {
		return 0, fmt.Errorf("open overlay writer %s: codec %s unavailable", outPath, codec)
	}

	byStart := make([]resultlog.Record, len(records))
	copy(byStart, records)
	sort.SliceStable(byStart, func(i, j int) bool {
		return byStart[i].StartFrame() < byStart[j].StartFrame()
	})

	img := gocv.NewMat()
	defer img.Close()

	written := 0
	lo := 0
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		idx, ok := src.Read(&img)
		if !ok {
			break
		}

		// A record is visible up to completion+linger; with a shared L
		// the expired records form a prefix of byStart.
		for lo < len(byStart) && byStart[lo].Frame+linger < idx {
			lo++
		}
		drawn := 0
		var current []trajectory.Point
		for i := lo; i < len(byStart) && byStart[i].StartFrame() <= idx; i++ {
			r := byStart[i]
			if p, ok := r.PointAt(idx); ok {
				current = append(current, p)
			}
			pts := r.Traversed(idx, linger)
			if len(pts) == 0 {
				continue
			}
			DrawPolyline(&img, pts, ClusterColor(i))
			drawn++
		}
		if opts.HandRadius > 0 {
			hand, err := cluster.LocateHand(current, opts.HandRadius, KMeans)
			if err != nil {
				return written, fmt.Errorf("locate hand on frame %d: %w", idx, err)
			}
			DrawPoints(&img, hand, HandColor)
			monitoring.Tracef("overlay frame %d: hand %d of %d points", idx, len(hand), len(current))
		}

		if err := w.Write(img); err != nil {
			return written, fmt.Errorf("write overlay frame %d: %w", idx, err)
		}
		written++
		monitoring.Tracef("overlay frame %d: %d trajectories", idx, drawn)
	}
	return written, nil
}
