package resultlog

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/banshee-data/handtraj/internal/fsutil"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// File names inside the output directory.
const (
	ResultsFile = "out_of_tracks.txt"
	DebugFile   = "out_of_tracks_debug.txt"
)

// Writer appends finalized trajectories to the results log. It
// implements trajectory.CompletionSink.
type Writer struct {
	mu      sync.Mutex
	results io.WriteCloser
	debug   io.WriteCloser
	length  int
	count   int
}

var _ trajectory.CompletionSink = (*Writer)(nil)

// Create truncates both logs in dir and writes trackLength as the first
// line of the debug log.
func Create(fsys fsutil.FileSystem, dir string, trackLength int) (*Writer, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	results, err := fsys.Create(filepath.Join(dir, ResultsFile))
	if err != nil {
		return nil, fmt.Errorf("create results log: %w", err)
	}
	debug, err := fsys.Create(filepath.Join(dir, DebugFile))
	if err != nil {
		results.Close()
		return nil, fmt.Errorf("create debug log: %w", err)
	}
	if _, err := io.WriteString(debug, strconv.Itoa(trackLength)+"\n"); err != nil {
		results.Close()
		debug.Close()
		return nil, fmt.Errorf("write debug header: %w", err)
	}
	return &Writer{results: results, debug: debug, length: trackLength}, nil
}

// RecordTrajectory appends one line for t.
func (w *Writer) RecordTrajectory(t *trajectory.Trajectory) error {
	line := FormatRecord(RecordFromTrajectory(t, w.length)) + "\n"

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.results == nil {
		return fmt.Errorf("record trajectory %d: writer closed", t.ID)
	}
	if _, err := io.WriteString(w.results, line); err != nil {
		return fmt.Errorf("record trajectory %d: %w", t.ID, err)
	}
	w.count++
	return nil
}

// Notef appends a free-form line to the debug log.
func (w *Writer) Notef(format string, args ...any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debug == nil {
		return errors.New("debug log closed")
	}
	_, err := fmt.Fprintf(w.debug, format+"\n", args...)
	return err
}

// Count returns the number of trajectories written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes both logs.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.results == nil {
		return nil
	}
	err := errors.Join(w.results.Close(), w.debug.Close())
	w.results, w.debug = nil, nil
	return err
}
