// Package pipeline is the composition root of a tracking run.
//
// It drives the per-frame tracking loop over a FrameFeed and then runs
// the batch stages once: window selection, segment extraction, the
// optional Otsu prefilter, and clustering. It imports the trajectory,
// cluster and threshold packages; none of those import pipeline.
//
// Video decoding, optical flow and feature sampling live behind
// FrameFeed so the pipeline can be exercised without OpenCV.
package pipeline
