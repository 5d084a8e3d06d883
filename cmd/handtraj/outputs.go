package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/handtraj/internal/config"
	"github.com/banshee-data/handtraj/internal/db"
	"github.com/banshee-data/handtraj/internal/monitoring"
	"github.com/banshee-data/handtraj/internal/pipeline"
	"github.com/banshee-data/handtraj/internal/report"
	"github.com/banshee-data/handtraj/internal/threshold"
	"github.com/banshee-data/handtraj/internal/video"
)

// outputs writes the optional artefacts of a run. A failing output is
// logged and counted; it never stops the others.
type outputs struct {
	source      string
	renderScale float64
	failures    int

	database *db.DB
	store    *db.RunStore
	runID    string
}

func newOutputs(source string) *outputs {
	return &outputs{source: source, renderScale: 1}
}

func (o *outputs) failed(what string, err error) {
	o.failures++
	monitoring.Opsf("%s: %v", what, err)
}

func (o *outputs) openStore(path string, cfg *config.TuningConfig) {
	if path == "" {
		return
	}
	database, err := db.Open(path)
	if err != nil {
		o.failed("run store", err)
		return
	}
	params, err := json.Marshal(cfg)
	if err != nil {
		database.Close()
		o.failed("run store", fmt.Errorf("marshal params: %w", err))
		return
	}

	store := db.NewRunStore(database)
	run := &db.Run{SourcePath: o.source, ParamsJSON: params}
	if err := store.InsertRun(run); err != nil {
		database.Close()
		o.failed("run store", err)
		return
	}
	o.database, o.store, o.runID = database, store, run.RunID
	monitoring.Diagf("run store: run %s in %s", run.RunID, path)
}

func (o *outputs) failRun(cause error) {
	if o.store == nil {
		return
	}
	if err := o.store.FailRun(o.runID, cause); err != nil {
		o.failed("run store", err)
	}
}

func (o *outputs) completeRun(track pipeline.TrackSummary, res *pipeline.Result) {
	if o.store == nil {
		return
	}
	if err := o.store.InsertSegments(o.runID, db.SegmentRows(res)); err != nil {
		o.failed("run store", err)
		return
	}
	if err := o.store.CompleteRun(o.runID, db.NewRunSummary(track, res)); err != nil {
		o.failed("run store", err)
		return
	}
	monitoring.Opsf("run %s recorded", o.runID)
}

func (o *outputs) close() {
	if o.database != nil {
		o.database.Close()
		o.database, o.store = nil, nil
	}
}

func (o *outputs) render(path string, res *pipeline.Result) {
	if path == "" {
		return
	}
	if len(res.Segments) == 0 {
		monitoring.Opsf("render: no segments in window, skipping %s", path)
		return
	}
	if err := video.RenderClusters(o.source, res.Window.Frame, res.Polylines(), path, o.renderScale); err != nil {
		o.failed("render", err)
	}
}

func (o *outputs) report(path string, res *pipeline.Result) {
	if path == "" {
		return
	}
	if err := report.WriteClusterReportFile(path, res, o.source); err != nil {
		o.failed("report", err)
	}
}

func (o *outputs) plot(path string, res *pipeline.Result) {
	if path == "" {
		return
	}
	if len(res.Energies) == 0 {
		monitoring.Opsf("plot: no segment energies, skipping %s", path)
		return
	}
	if err := threshold.PlotHistogram(res.Energies, res.Threshold, path); err != nil {
		o.failed("plot", err)
	}
}

func (o *outputs) dot(path string, res *pipeline.Result) {
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		o.failed("dot", err)
		return
	}
	err = res.Matrix.WriteDOT(f, "similarity")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		o.failed("dot", err)
	}
}
