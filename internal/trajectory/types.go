package trajectory

import "fmt"

// Point is a sub-pixel image position, or the difference of two positions.
type Point struct {
	X float64
	Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Bounds is the pixel size of a frame.
type Bounds struct {
	Width  int
	Height int
}

// Contains reports whether p lies strictly inside (0, Width) x (0, Height).
// Points on the border count as outside.
func (b Bounds) Contains(p Point) bool {
	return p.X > 0 && p.X < float64(b.Width) && p.Y > 0 && p.Y < float64(b.Height)
}

// Status is the outcome of advancing a trajectory by one frame.
type Status int

const (
	StatusContinuing Status = iota // still shorter than the target length
	StatusLost                     // left the frame before completion
	StatusCompleted                // reached the target length
)

func (s Status) String() string {
	switch s {
	case StatusContinuing:
		return "continuing"
	case StatusLost:
		return "lost"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Stats summarises the per-step displacements of a point sequence.
// Variances are population variances.
type Stats struct {
	MeanX float64
	MeanY float64
	VarX  float64
	VarY  float64
}

// IsForeground reports whether either axis variance exceeds threshold.
func (s Stats) IsForeground(threshold float64) bool {
	return s.VarX > threshold || s.VarY > threshold
}

// Trajectory is one tracked point across consecutive frames.
type Trajectory struct {
	ID         int64
	StartFrame int

	// CompletionFrame is the frame at which the trajectory stopped being
	// extended, whether it completed or was lost.
	CompletionFrame int

	// Points holds one position per frame; len(Points)-1 steps have been taken.
	Points []Point
	Active bool

	// Stats is populated once the trajectory completes and passes
	// classification.
	Stats
}

// Tip returns the most recent position.
func (t *Trajectory) Tip() Point {
	return t.Points[len(t.Points)-1]
}

// Steps returns the number of frames the trajectory has been advanced.
func (t *Trajectory) Steps() int {
	return len(t.Points) - 1
}

// FlowField is a dense per-pixel displacement field for one frame pair.
type FlowField interface {
	Bounds() Bounds
	// At returns the displacement at integer pixel (x, y); callers keep
	// x in [0, Width) and y in [0, Height).
	At(x, y int) Point
}

// DenseFlow is an in-memory FlowField stored row-major.
type DenseFlow struct {
	W, H int
	D    []Point
}

// NewDenseFlow returns a zero displacement field of the given size.
func NewDenseFlow(width, height int) *DenseFlow {
	return &DenseFlow{W: width, H: height, D: make([]Point, width*height)}
}

// Bounds implements FlowField.
func (f *DenseFlow) Bounds() Bounds { return Bounds{Width: f.W, Height: f.H} }

// At implements FlowField.
func (f *DenseFlow) At(x, y int) Point { return f.D[y*f.W+x] }

// Set stores the displacement at (x, y).
func (f *DenseFlow) Set(x, y int, d Point) { f.D[y*f.W+x] = d }

// Fill sets every pixel to d.
func (f *DenseFlow) Fill(d Point) {
	for i := range f.D {
		f.D[i] = d
	}
}
