package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/handtraj/internal/cluster"
	"github.com/banshee-data/handtraj/internal/pipeline"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

func testResult() *pipeline.Result {
	segs := []trajectory.Segment{
		{TrajectoryID: 11, Stats: trajectory.Stats{MeanX: 3, MeanY: 1, VarX: 90, VarY: 14}},
		{TrajectoryID: 12, Stats: trajectory.Stats{MeanX: 0.5, MeanY: 0.5, VarX: 4, VarY: 4}},
		{TrajectoryID: 13, Stats: trajectory.Stats{MeanX: 3.2, MeanY: 1.1, VarX: 88, VarY: 15}},
	}
	return &pipeline.Result{
		Window:     trajectory.Window{Frame: 40, Count: 3},
		Extracted:  segs,
		Segments:   segs,
		Threshold:  16,
		Assignment: cluster.Assignment{IDs: []int{0, 1, 0}, Count: 2},
	}
}

func TestWriteClusterReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteClusterReport(&buf, testResult(), "hand.avi"))

	html := buf.String()
	assert.Contains(t, html, "Trajectory clusters")
	assert.Contains(t, html, "cluster 0")
	assert.Contains(t, html, "cluster 1")
	assert.Contains(t, html, "Cluster sizes")
	assert.Contains(t, html, "source=hand.avi window=40 segments=3 clusters=2 threshold=16")
}

func TestWriteClusterReport_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteClusterReport(&buf, &pipeline.Result{}, "empty.avi"))
	assert.Contains(t, buf.String(), "clusters=0")
}

func TestWriteClusterReportFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clusters.html")
	require.NoError(t, WriteClusterReportFile(path, testResult(), "hand.avi"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")

	err = WriteClusterReportFile(filepath.Join(t.TempDir(), "missing", "x.html"), testResult(), "hand.avi")
	assert.Error(t, err)
}
