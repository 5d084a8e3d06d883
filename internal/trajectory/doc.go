// Package trajectory owns the per-point trajectory lifecycle.
//
// Responsibilities: advancing live trajectories through a dense
// displacement field one frame at a time, terminating them when they
// leave the frame or reach the target length, classifying completed
// trajectories as foreground motion by displacement variance, and
// selecting and slicing the temporal window that the clustering stage
// compares.
//
// The package has no image or video dependency; flow fields and seed
// points arrive through the FlowField interface and plain Point slices.
package trajectory
