// Package resultlog writes and reads the plain-text trajectory results
// log: one finalized trajectory per line, whitespace-delimited, appended
// as trajectories complete.
//
// Line layout:
//
//	frame L meanX meanY varX varY x0 y0 x1 y1 ... xL yL
//
// where frame is the completion frame and L the target length. A
// companion debug log starts with L on its own line.
package resultlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/handtraj/internal/trajectory"
)

const headerFields = 6

// ErrMalformedRecord is wrapped by every parse failure.
var ErrMalformedRecord = errors.New("malformed trajectory record")

// Record is one line of the results log.
type Record struct {
	Frame  int // completion frame
	Length int // target length L
	trajectory.Stats
	Points []trajectory.Point // L+1 positions
}

// RecordFromTrajectory builds the log record for a completed trajectory.
func RecordFromTrajectory(t *trajectory.Trajectory, trackLength int) Record {
	pts := make([]trajectory.Point, len(t.Points))
	copy(pts, t.Points)
	return Record{
		Frame:  t.CompletionFrame,
		Length: trackLength,
		Stats:  t.Stats,
		Points: pts,
	}
}

// StartFrame returns the frame of Points[0].
func (r Record) StartFrame() int { return r.Frame - r.Length }

// PointAt returns the position at frame, and false when the trajectory
// was not being tracked then.
func (r Record) PointAt(frame int) (trajectory.Point, bool) {
	i := frame - r.StartFrame()
	if i < 0 || i >= len(r.Points) {
		return trajectory.Point{}, false
	}
	return r.Points[i], true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatRecord renders r as one tab-separated line without a trailing
// newline.
func FormatRecord(r Record) string {
	var b strings.Builder
	b.Grow(32 * (headerFields + 2*len(r.Points)))
	b.WriteString(strconv.Itoa(r.Frame))
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.Length))
	for _, v := range []float64{r.MeanX, r.MeanY, r.VarX, r.VarY} {
		b.WriteByte('\t')
		b.WriteString(formatFloat(v))
	}
	for _, p := range r.Points {
		b.WriteByte('\t')
		b.WriteString(formatFloat(p.X))
		b.WriteByte('\t')
		b.WriteString(formatFloat(p.Y))
	}
	return b.String()
}

// ParseRecord parses one results line. Any whitespace separates fields.
func ParseRecord(line string) (Record, error) {
	f := strings.Fields(line)
	if len(f) < headerFields {
		return Record{}, fmt.Errorf("%d fields, need at least %d: %w", len(f), headerFields, ErrMalformedRecord)
	}

	var r Record
	var err error
	if r.Frame, err = strconv.Atoi(f[0]); err != nil {
		return Record{}, fmt.Errorf("frame %q: %w", f[0], ErrMalformedRecord)
	}
	if r.Length, err = strconv.Atoi(f[1]); err != nil || r.Length < 1 {
		return Record{}, fmt.Errorf("length %q: %w", f[1], ErrMalformedRecord)
	}

	want := headerFields + 2*(r.Length+1)
	if len(f) != want {
		return Record{}, fmt.Errorf("%d fields for length %d, want %d: %w", len(f), r.Length, want, ErrMalformedRecord)
	}

	nums := make([]float64, len(f)-2)
	for i, s := range f[2:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Record{}, fmt.Errorf("field %d %q: %w", i+3, s, ErrMalformedRecord)
		}
		nums[i] = v
	}

	r.MeanX, r.MeanY, r.VarX, r.VarY = nums[0], nums[1], nums[2], nums[3]
	coords := nums[4:]
	r.Points = make([]trajectory.Point, r.Length+1)
	for i := range r.Points {
		r.Points[i] = trajectory.Point{X: coords[2*i], Y: coords[2*i+1]}
	}
	return r, nil
}

// ReadRecords parses every non-blank line of r. The first malformed line
// aborts the read; its 1-based line number is in the error.
func ReadRecords(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []Record
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec, err := ParseRecord(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return out, nil
}

// ReadTrackLength returns the target length recorded on the first line
// of a debug log.
func ReadTrackLength(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, fmt.Errorf("read debug log: %w", err)
		}
		return 0, fmt.Errorf("empty debug log: %w", ErrMalformedRecord)
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("track length %q: %w", sc.Text(), ErrMalformedRecord)
	}
	return n, nil
}

// Traversed returns the prefix of Points covered by frame: one point at
// the start frame, all L+1 from the completion frame on. It is nil
// before the start frame and once linger frames have passed since
// completion.
func (r Record) Traversed(frame, linger int) []trajectory.Point {
	k := frame - r.StartFrame()
	if k < 0 || frame > r.Frame+linger {
		return nil
	}
	if k >= len(r.Points) {
		k = len(r.Points) - 1
	}
	return r.Points[:k+1]
}
