package db

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/banshee-data/handtraj/internal/cluster"
	"github.com/banshee-data/handtraj/internal/pipeline"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestPragmasApplied verifies that the connection pragmas are in force.
func TestPragmasApplied(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("Failed to query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("Expected busy_timeout=5000, got %d", busyTimeout)
	}

	var synchronous int
	if err := db.QueryRow("PRAGMA synchronous").Scan(&synchronous); err != nil {
		t.Fatalf("Failed to query synchronous: %v", err)
	}
	if synchronous != 1 { // 1 = NORMAL
		t.Errorf("Expected synchronous=1 (NORMAL), got %d", synchronous)
	}

	var tempStore int
	if err := db.QueryRow("PRAGMA temp_store").Scan(&tempStore); err != nil {
		t.Fatalf("Failed to query temp_store: %v", err)
	}
	if tempStore != 2 { // 2 = MEMORY
		t.Errorf("Expected temp_store=2 (MEMORY), got %d", tempStore)
	}

	var foreignKeys int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("Failed to query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", foreignKeys)
	}
}

func TestMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected version 1 clean, got %d dirty=%v", version, dirty)
	}

	// Re-running is a no-op.
	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp twice: %v", err)
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='runs'`).Scan(&n); err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected runs table dropped, found %d", n)
	}
	db.Close()

	// Reopening migrates back up.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()
	if version, _, _ := db.MigrateVersion(); version != 1 {
		t.Errorf("Expected version 1 after reopen, got %d", version)
	}
}

func testResult() (pipeline.TrackSummary, *pipeline.Result) {
	segs := []trajectory.Segment{
		{
			TrajectoryID: 4, AnchorFrame: 33,
			Points: []trajectory.Point{{X: 1, Y: 2}, {X: 11, Y: 2}},
			Stats:  trajectory.Stats{MeanX: 10, MeanY: 0, VarX: 20.4, VarY: 3.6},
		},
		{
			TrajectoryID: 9, AnchorFrame: 31,
			Points: []trajectory.Point{{X: 5, Y: 5}, {X: 5.5, Y: 5}},
			Stats:  trajectory.Stats{MeanX: 0.5, VarX: 1, VarY: 1},
		},
	}
	track := pipeline.TrackSummary{
		Frames: 40, FirstFrame: 0, LastFrame: 39,
		Counters: trajectory.Counters{Seeded: 12, Lost: 3, Kept: 5, Rejected: 2, Unfinished: 2},
	}
	res := &pipeline.Result{
		Window:     trajectory.Window{Frame: 30, Count: 2},
		Extracted:  segs,
		Segments:   segs,
		Threshold:  4,
		Assignment: cluster.Assignment{IDs: []int{0, 1}, Count: 2},
	}
	return track, res
}

func TestRunStore_Lifecycle(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	run := &Run{SourcePath: "hand.avi", ParamsJSON: json.RawMessage(`{"track_length":15}`)}
	if err := store.InsertRun(run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if run.RunID == "" {
		t.Fatal("Expected a generated run id")
	}

	got, err := store.GetRun(run.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != RunStatusRunning || got.CompletedAt != nil {
		t.Errorf("Expected running run without completion, got %+v", got)
	}
	if string(got.ParamsJSON) != `{"track_length":15}` {
		t.Errorf("Unexpected params %s", got.ParamsJSON)
	}

	track, res := testResult()
	if err := store.InsertSegments(run.RunID, SegmentRows(res)); err != nil {
		t.Fatalf("InsertSegments: %v", err)
	}
	if err := store.CompleteRun(run.RunID, NewRunSummary(track, res)); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}

	got, err = store.GetRun(run.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != RunStatusCompleted || got.CompletedAt == nil {
		t.Errorf("Expected completed run, got %+v", got)
	}
	want := RunSummary{
		Frames: 40, LastFrame: 39, Seeded: 12, Lost: 3, Kept: 5, Rejected: 2, Unfinished: 2,
		WindowFrame: 30, WindowCount: 2, Segments: 2, Clusters: 2, Threshold: 4,
	}
	if got.Summary != want {
		t.Errorf("Summary = %+v, want %+v", got.Summary, want)
	}

	segs, err := store.ListSegments(run.RunID)
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segs))
	}
	if segs[0].TrajectoryID != 4 || segs[0].AnchorFrame != 33 || segs[0].ClusterID != 0 || segs[0].Energy != 80 {
		t.Errorf("Unexpected first segment %+v", segs[0])
	}
	if segs[1].ClusterID != 1 || segs[1].Points[1] != (trajectory.Point{X: 5.5, Y: 5}) {
		t.Errorf("Unexpected second segment %+v", segs[1])
	}
}

func TestRunStore_FailAndDelete(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	run := &Run{RunID: "run-1", SourcePath: "missing.avi"}
	if err := store.InsertRun(run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if err := store.FailRun(run.RunID, errors.New("input unavailable")); err != nil {
		t.Fatalf("FailRun: %v", err)
	}
	got, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != RunStatusFailed || got.Error != "input unavailable" {
		t.Errorf("Unexpected failed run %+v", got)
	}

	_, res := testResult()
	if err := store.InsertSegments("run-1", SegmentRows(res)); err != nil {
		t.Fatalf("InsertSegments: %v", err)
	}
	if err := store.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	segs, err := store.ListSegments("run-1")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("Expected cascade delete, found %d segments", len(segs))
	}

	if _, err := store.GetRun("run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if err := store.CompleteRun("nope", RunSummary{}); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestRunStore_SegmentsNeedRun(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	_, res := testResult()
	if err := store.InsertSegments("ghost", SegmentRows(res)); err == nil {
		t.Error("Expected foreign key violation for unknown run")
	}
}

func TestRunStore_ListRuns(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	for i, id := range []string{"a", "b", "c"} {
		if err := store.InsertRun(&Run{RunID: id, SourcePath: id + ".avi", CreatedAt: int64(100 + i)}); err != nil {
			t.Fatalf("InsertRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 || runs[0].RunID != "c" || runs[2].RunID != "a" {
		t.Errorf("Unexpected order: %v", runIDs(runs))
	}

	runs, err = store.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[1].RunID != "b" {
		t.Errorf("Unexpected limited list: %v", runIDs(runs))
	}
}

func runIDs(runs []*Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.RunID
	}
	return ids
}
