package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/handtraj/internal/pipeline"
	"github.com/banshee-data/handtraj/internal/threshold"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// RunSummary holds the tracking counters and batch results of a run.
type RunSummary struct {
	Frames      int `json:"frames"`
	FirstFrame  int `json:"first_frame"`
	LastFrame   int `json:"last_frame"`
	Seeded      int `json:"seeded"`
	Lost        int `json:"lost"`
	Kept        int `json:"kept"`
	Rejected    int `json:"rejected"`
	Unfinished  int `json:"unfinished"`
	WindowFrame int `json:"window_frame"`
	WindowCount int `json:"window_count"`
	Segments    int `json:"segments"`
	Clusters    int `json:"clusters"`
	Threshold   int `json:"threshold"`
}

// Run is one invocation of the analysis over a video.
type Run struct {
	RunID       string          `json:"run_id"`
	CreatedAt   int64           `json:"created_at"`
	CompletedAt *int64          `json:"completed_at,omitempty"`
	SourcePath  string          `json:"source_path"`
	ParamsJSON  json.RawMessage `json:"params_json,omitempty"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	Summary     RunSummary      `json:"summary"`
}

// SegmentRow is one clustered segment of a run.
type SegmentRow struct {
	Index        int                `json:"segment_index"`
	TrajectoryID int64              `json:"trajectory_id"`
	ClusterID    int                `json:"cluster_id"`
	AnchorFrame  int                `json:"anchor_frame"`
	MeanX        float64            `json:"mean_x"`
	MeanY        float64            `json:"mean_y"`
	VarX         float64            `json:"var_x"`
	VarY         float64            `json:"var_y"`
	Energy       int                `json:"energy"`
	Points       []trajectory.Point `json:"points"`
}

// NewRunSummary combines the tracking summary and analysis result.
func NewRunSummary(track pipeline.TrackSummary, res *pipeline.Result) RunSummary {
	return RunSummary{
		Frames:      track.Frames,
		FirstFrame:  track.FirstFrame,
		LastFrame:   track.LastFrame,
		Seeded:      track.Counters.Seeded,
		Lost:        track.Counters.Lost,
		Kept:        track.Counters.Kept,
		Rejected:    track.Counters.Rejected,
		Unfinished:  track.Counters.Unfinished,
		WindowFrame: res.Window.Frame,
		WindowCount: res.Window.Count,
		Segments:    len(res.Segments),
		Clusters:    res.Assignment.Count,
		Threshold:   res.Threshold,
	}
}

// SegmentRows flattens the clustered segments of res in segment order.
func SegmentRows(res *pipeline.Result) []SegmentRow {
	rows := make([]SegmentRow, len(res.Segments))
	for i, s := range res.Segments {
		rows[i] = SegmentRow{
			Index:        i,
			TrajectoryID: s.TrajectoryID,
			ClusterID:    res.Assignment.IDs[i],
			AnchorFrame:  s.AnchorFrame,
			MeanX:        s.MeanX,
			MeanY:        s.MeanY,
			VarX:         s.VarX,
			VarY:         s.VarY,
			Energy:       threshold.Energy(s.Stats),
			Points:       s.Points,
		}
	}
	return rows
}

// RunStore provides persistence for analysis runs and their segments.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

// InsertRun records a run in the running state.
// If run.RunID is empty, a new UUID is generated.
func (s *RunStore) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, created_at, source_path, params_json, status)
		VALUES (?, ?, ?, ?, ?)
	`, run.RunID, run.CreatedAt, run.SourcePath, nullString(string(run.ParamsJSON)), run.Status)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// CompleteRun stores the summary and marks the run completed.
func (s *RunStore) CompleteRun(runID string, sum RunSummary) error {
	res, err := s.db.Exec(`
		UPDATE runs SET
			status = ?, completed_at = ?,
			frames = ?, first_frame = ?, last_frame = ?,
			seeded = ?, lost = ?, kept = ?, rejected = ?, unfinished = ?,
			window_frame = ?, window_count = ?,
			segment_count = ?, cluster_count = ?, threshold = ?
		WHERE run_id = ?
	`,
		RunStatusCompleted, time.Now().UnixNano(),
		sum.Frames, sum.FirstFrame, sum.LastFrame,
		sum.Seeded, sum.Lost, sum.Kept, sum.Rejected, sum.Unfinished,
		sum.WindowFrame, sum.WindowCount,
		sum.Segments, sum.Clusters, sum.Threshold,
		runID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return expectOne(res, runID)
}

// FailRun marks the run failed with the given cause.
func (s *RunStore) FailRun(runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, completed_at = ?, error_message = ?
		WHERE run_id = ?
	`, RunStatusFailed, time.Now().UnixNano(), nullString(msg), runID)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return expectOne(res, runID)
}

// InsertSegments stores the segments of a run in one transaction.
func (s *RunStore) InsertSegments(runID string, rows []SegmentRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin segments: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO run_segments (
			run_id, segment_index, trajectory_id, cluster_id, anchor_frame,
			mean_x, mean_y, var_x, var_y, energy, points_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare segments: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		pts, err := json.Marshal(r.Points)
		if err != nil {
			return fmt.Errorf("marshal segment %d points: %w", r.Index, err)
		}
		if _, err := stmt.Exec(
			runID, r.Index, r.TrajectoryID, r.ClusterID, r.AnchorFrame,
			r.MeanX, r.MeanY, r.VarX, r.VarY, r.Energy, string(pts),
		); err != nil {
			return fmt.Errorf("insert segment %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit segments: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, created_at, completed_at, source_path, params_json, status, error_message,
	frames, first_frame, last_frame, seeded, lost, kept, rejected, unfinished,
	window_frame, window_count, segment_count, cluster_count, threshold`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var (
		run         Run
		completedAt sql.NullInt64
		params      sql.NullString
		errMsg      sql.NullString
	)
	sum := &run.Summary
	err := sc.Scan(
		&run.RunID, &run.CreatedAt, &completedAt, &run.SourcePath, &params, &run.Status, &errMsg,
		&sum.Frames, &sum.FirstFrame, &sum.LastFrame,
		&sum.Seeded, &sum.Lost, &sum.Kept, &sum.Rejected, &sum.Unfinished,
		&sum.WindowFrame, &sum.WindowCount, &sum.Segments, &sum.Clusters, &sum.Threshold,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Int64
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	run.Error = errMsg.String
	return &run, nil
}

// GetRun loads one run by id.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListSegments returns the segments of a run in segment order.
func (s *RunStore) ListSegments(runID string) ([]SegmentRow, error) {
	rows, err := s.db.Query(`
		SELECT segment_index, trajectory_id, cluster_id, anchor_frame,
			mean_x, mean_y, var_x, var_y, energy, points_json
		FROM run_segments
		WHERE run_id = ?
		ORDER BY segment_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []SegmentRow
	for rows.Next() {
		var (
			r   SegmentRow
			pts string
		)
		if err := rows.Scan(
			&r.Index, &r.TrajectoryID, &r.ClusterID, &r.AnchorFrame,
			&r.MeanX, &r.MeanY, &r.VarX, &r.VarY, &r.Energy, &pts,
		); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		if err := json.Unmarshal([]byte(pts), &r.Points); err != nil {
			return nil, fmt.Errorf("decode segment %d points: %w", r.Index, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and, through the foreign key, its segments.
func (s *RunStore) DeleteRun(runID string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return expectOne(res, runID)
}

func expectOne(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
