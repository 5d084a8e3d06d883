// Command handtraj tracks dense feature trajectories through a video,
// picks the frame window most trajectories cover, clusters the window's
// segments by displacement statistics and writes the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/handtraj/internal/config"
	"github.com/banshee-data/handtraj/internal/fsutil"
	"github.com/banshee-data/handtraj/internal/monitoring"
	"github.com/banshee-data/handtraj/internal/pipeline"
	"github.com/banshee-data/handtraj/internal/resultlog"
	"github.com/banshee-data/handtraj/internal/trajectory"
	"github.com/banshee-data/handtraj/internal/version"
	"github.com/banshee-data/handtraj/internal/video"
)

var (
	configPath  = flag.String("config", "", "Path to tuning JSON (defaults built in when empty)")
	outDir      = flag.String("o", ".", "Output directory for the results logs and relative output paths")
	startFrame  = flag.Int("start", -1, "First frame to process (overrides start_frame)")
	endFrame    = flag.Int("end", -2, "Last frame to process, -1 for the whole video (overrides end_frame)")
	renderPath  = flag.String("render", "clusters.png", "Cluster image drawn on the window frame (empty to skip)")
	renderScale = flag.Float64("render-scale", 1, "Resize factor for the cluster image")
	reportPath  = flag.String("report", "", "HTML cluster report (empty to skip)")
	plotPath    = flag.String("plot", "", "Energy histogram image (empty to skip)")
	dotPath     = flag.String("dot", "", "Similarity graph in DOT format (empty to skip)")
	dbPath      = flag.String("db", "", "SQLite database recording the run (empty to skip)")
	verbose     = flag.Bool("v", false, "Enable diagnostic logging")
	trace       = flag.Bool("trace", false, "Enable per-frame trace logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// stageError names the pipeline stage that hit a fatal condition.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func fail(stage string, err error) error { return &stageError{stage: stage, err: err} }

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: handtraj [flags] <video>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("handtraj", version.String())
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	setupLogging(os.Stderr, *verbose, *trace)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, flag.Arg(0))
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "handtraj: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(w io.Writer, verbose, trace bool) {
	lw := monitoring.LogWriters{Ops: w}
	if verbose || trace {
		lw.Diag = w
	}
	if trace {
		lw.Trace = w
	}
	monitoring.SetLogWriters(lw)
}

func loadConfig(path string, start, end int) (*config.TuningConfig, error) {
	cfg := config.EmptyTuningConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(path); err != nil {
			return nil, err
		}
	}
	cfg.SetFrameRange(start, end)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// outputPath resolves an optional output name against the output
// directory. Empty means the output is disabled.
func outputPath(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func run(ctx context.Context, videoPath string) error {
	cfg, err := loadConfig(*configPath, *startFrame, *endFrame)
	if err != nil {
		return fail("config", err)
	}

	src, err := video.OpenSource(videoPath, cfg.GetStartFrame(), cfg.GetEndFrame())
	if err != nil {
		return fail("source", err)
	}
	defer src.Close()
	b := src.Bounds()
	monitoring.Opsf("run start: %s %dx%d frames [%d..%d] L=%d s=%d",
		videoPath, b.Width, b.Height, cfg.GetStartFrame(), cfg.GetEndFrame(),
		cfg.GetTrackLength(), cfg.GetSegmentStep())

	results, err := resultlog.Create(fsutil.OSFileSystem{}, *outDir, cfg.GetTrackLength())
	if err != nil {
		return fail("results", err)
	}
	defer results.Close()

	outs := newOutputs(videoPath)
	outs.renderScale = *renderScale
	outs.openStore(*dbPath, cfg)
	defer outs.close()

	tk := trajectory.NewTracker(trajectory.ConfigFromTuning(cfg))
	tk.SetSink(results)

	feed := video.NewFeed(src, video.SamplerFromTuning(cfg), video.FarnebackFromTuning(cfg))
	defer feed.Close()

	track, err := pipeline.Track(ctx, feed, tk)
	if err != nil {
		outs.failRun(err)
		return fail("track", err)
	}

	res := pipeline.Analyze(tk.Completed(), pipeline.ConfigFromTuning(cfg))
	if err := results.Notef("window %d count %d threshold %d segments %d clusters %d",
		res.Window.Frame, res.Window.Count, res.Threshold, len(res.Segments), res.Assignment.Count); err != nil {
		outs.failed("results", err)
	}
	if err := results.Close(); err != nil {
		outs.failed("results", err)
	}

	outs.render(outputPath(*outDir, *renderPath), res)
	outs.report(outputPath(*outDir, *reportPath), res)
	outs.plot(outputPath(*outDir, *plotPath), res)
	outs.dot(outputPath(*outDir, *dotPath), res)
	outs.completeRun(track, res)

	fmt.Printf("frames=%d kept=%d window=%d segments=%d clusters=%d threshold=%d\n",
		track.Frames, track.Counters.Kept, res.Window.Frame, len(res.Segments),
		res.Assignment.Count, res.Threshold)
	monitoring.Opsf("run finished: %d trajectories written to %s", results.Count(),
		filepath.Join(*outDir, resultlog.ResultsFile))

	if outs.failures > 0 {
		return fail("outputs", fmt.Errorf("%d optional outputs failed", outs.failures))
	}
	return nil
}
