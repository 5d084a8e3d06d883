package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root tuning document. Every field is optional; the
// Get* accessors supply the default for anything omitted, so partial
// files are safe.
type TuningConfig struct {
	// Trajectory lifecycle
	TrackLength  *int     `json:"track_length,omitempty"`
	InitGap      *int     `json:"init_gap,omitempty"`
	VarThreshold *float64 `json:"var_threshold,omitempty"`

	// Feature sampler
	SampleQuality     *float64 `json:"sample_quality,omitempty"`
	SampleMinDistance *float64 `json:"sample_min_distance,omitempty"`
	MaxCorners        *int     `json:"max_corners,omitempty"`

	// Segment extraction and clustering
	SegmentStep    *int     `json:"segment_step,omitempty"`
	DeltaVar       *float64 `json:"delta_var,omitempty"`
	DeltaMean      *float64 `json:"delta_mean,omitempty"`
	OtsuPrefilter  *bool    `json:"otsu_prefilter,omitempty"`
	ClusterWorkers *int     `json:"cluster_workers,omitempty"`

	// Frame range; EndFrame -1 means the whole video.
	StartFrame *int `json:"start_frame,omitempty"`
	EndFrame   *int `json:"end_frame,omitempty"`

	// Farneback dense flow
	FlowPyrScale   *float64 `json:"flow_pyr_scale,omitempty"`
	FlowLevels     *int     `json:"flow_levels,omitempty"`
	FlowWinSize    *int     `json:"flow_winsize,omitempty"`
	FlowIterations *int     `json:"flow_iterations,omitempty"`
	FlowPolyN      *int     `json:"flow_poly_n,omitempty"`
	FlowPolySigma  *float64 `json:"flow_poly_sigma,omitempty"`
}

func ptrInt(v int) *int { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repository root.
// Panics if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/traj-otsu/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable. It checks the
// effective values, so defaults participate in cross-field rules.
func (c *TuningConfig) Validate() error {
	trackLength := c.GetTrackLength()
	if trackLength < 1 {
		return fmt.Errorf("track_length must be at least 1, got %d", trackLength)
	}
	if step := c.GetSegmentStep(); step < 1 || step > trackLength {
		return fmt.Errorf("segment_step must be between 1 and track_length (%d), got %d", trackLength, step)
	}
	if gap := c.GetInitGap(); gap < 1 {
		return fmt.Errorf("init_gap must be at least 1, got %d", gap)
	}
	if q := c.GetSampleQuality(); q <= 0 || q > 1 {
		return fmt.Errorf("sample_quality must be in (0, 1], got %f", q)
	}
	if d := c.GetSampleMinDistance(); d <= 0 {
		return fmt.Errorf("sample_min_distance must be positive, got %f", d)
	}
	if n := c.GetMaxCorners(); n < 1 {
		return fmt.Errorf("max_corners must be at least 1, got %d", n)
	}
	if v := c.GetVarThreshold(); v < 0 {
		return fmt.Errorf("var_threshold must be non-negative, got %f", v)
	}
	if v := c.GetDeltaVar(); v < 0 {
		return fmt.Errorf("delta_var must be non-negative, got %f", v)
	}
	if v := c.GetDeltaMean(); v < 0 {
		return fmt.Errorf("delta_mean must be non-negative, got %f", v)
	}
	if w := c.GetClusterWorkers(); w < 0 {
		return fmt.Errorf("cluster_workers must be non-negative, got %d", w)
	}
	start, end := c.GetStartFrame(), c.GetEndFrame()
	if start < 0 {
		return fmt.Errorf("start_frame must be non-negative, got %d", start)
	}
	if end != -1 && end < start {
		return fmt.Errorf("end_frame (%d) must be -1 or at least start_frame (%d)", end, start)
	}
	if s := c.GetFlowPyrScale(); s <= 0 || s >= 1 {
		return fmt.Errorf("flow_pyr_scale must be in (0, 1), got %f", s)
	}
	return nil
}

// SetFrameRange overrides the frame range, e.g. from command-line flags.
// A negative start leaves the configured start unchanged.
func (c *TuningConfig) SetFrameRange(start, end int) {
	if start >= 0 {
		c.StartFrame = ptrInt(start)
	}
	if end >= -1 {
		c.EndFrame = ptrInt(end)
	}
}

// GetTrackLength returns the track_length value or the default.
func (c *TuningConfig) GetTrackLength() int {
	if c.TrackLength == nil {
		return 15
	}
	return *c.TrackLength
}

// GetInitGap returns the init_gap value or the default.
func (c *TuningConfig) GetInitGap() int {
	if c.InitGap == nil {
		return 1
	}
	return *c.InitGap
}

// GetVarThreshold returns the var_threshold value or the default.
func (c *TuningConfig) GetVarThreshold() float64 {
	if c.VarThreshold == nil {
		return 12
	}
	return *c.VarThreshold
}

// GetSampleQuality returns the sample_quality value or the default.
func (c *TuningConfig) GetSampleQuality() float64 {
	if c.SampleQuality == nil {
		return 0.001
	}
	return *c.SampleQuality
}

// GetSampleMinDistance returns the sample_min_distance value or the default.
func (c *TuningConfig) GetSampleMinDistance() float64 {
	if c.SampleMinDistance == nil {
		return 5
	}
	return *c.SampleMinDistance
}

// GetMaxCorners returns the max_corners value or the default.
func (c *TuningConfig) GetMaxCorners() int {
	if c.MaxCorners == nil {
		return 10000
	}
	return *c.MaxCorners
}

// GetSegmentStep returns the segment_step value or the default.
func (c *TuningConfig) GetSegmentStep() int {
	if c.SegmentStep == nil {
		return 5
	}
	return *c.SegmentStep
}

// GetDeltaVar returns the delta_var value or the default.
func (c *TuningConfig) GetDeltaVar() float64 {
	if c.DeltaVar == nil {
		return 8
	}
	return *c.DeltaVar
}

// GetDeltaMean returns the delta_mean value or the default.
func (c *TuningConfig) GetDeltaMean() float64 {
	if c.DeltaMean == nil {
		return 30
	}
	return *c.DeltaMean
}

// GetOtsuPrefilter returns the otsu_prefilter value or the default.
func (c *TuningConfig) GetOtsuPrefilter() bool {
	if c.OtsuPrefilter == nil {
		return false
	}
	return *c.OtsuPrefilter
}

// GetClusterWorkers returns the cluster_workers value or the default (0 = GOMAXPROCS).
func (c *TuningConfig) GetClusterWorkers() int {
	if c.ClusterWorkers == nil {
		return 0
	}
	return *c.ClusterWorkers
}

// GetStartFrame returns the start_frame value or the default.
func (c *TuningConfig) GetStartFrame() int {
	if c.StartFrame == nil {
		return 0
	}
	return *c.StartFrame
}

// GetEndFrame returns the end_frame value or the default (-1, whole video).
func (c *TuningConfig) GetEndFrame() int {
	if c.EndFrame == nil {
		return -1
	}
	return *c.EndFrame
}

// GetFlowPyrScale returns the flow_pyr_scale value or the default.
func (c *TuningConfig) GetFlowPyrScale() float64 {
	if c.FlowPyrScale == nil {
		return 0.5
	}
	return *c.FlowPyrScale
}

// GetFlowLevels returns the flow_levels value or the default.
func (c *TuningConfig) GetFlowLevels() int {
	if c.FlowLevels == nil {
		return 2
	}
	return *c.FlowLevels
}

// GetFlowWinSize returns the flow_winsize value or the default.
func (c *TuningConfig) GetFlowWinSize() int {
	if c.FlowWinSize == nil {
		return 10
	}
	return *c.FlowWinSize
}

// GetFlowIterations returns the flow_iterations value or the default.
func (c *TuningConfig) GetFlowIterations() int {
	if c.FlowIterations == nil {
		return 2
	}
	return *c.FlowIterations
}

// GetFlowPolyN returns the flow_poly_n value or the default.
func (c *TuningConfig) GetFlowPolyN() int {
	if c.FlowPolyN == nil {
		return 7
	}
	return *c.FlowPolyN
}

// GetFlowPolySigma returns the flow_poly_sigma value or the default.
func (c *TuningConfig) GetFlowPolySigma() float64 {
	if c.FlowPolySigma == nil {
		return 1.5
	}
	return *c.FlowPolySigma
}
