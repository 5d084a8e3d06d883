// Command traj-otsu computes the Otsu energy threshold over an existing
// results log and optionally plots the histogram and writes the records
// that pass the threshold.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/banshee-data/handtraj/internal/fsutil"
	"github.com/banshee-data/handtraj/internal/threshold"
)

// pipeName selects stdout for the filtered log.
const pipeName = "-"

func main() {
	in := flag.String("f", "out_of_tracks.txt", "Results log to read")
	plotPath := flag.String("plot", "", "Write the energy histogram to this image (.png, .svg, .pdf)")
	outPath := flag.String("o", "", "Write the records with energy >= threshold to this file, or - for stdout")
	flag.Parse()

	fsys := fsutil.OSFileSystem{}
	summary := io.Writer(os.Stdout)

	var dst io.WriteCloser
	switch *outPath {
	case "":
	case pipeName:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			log.Fatal("traj-otsu: `-o -` should be used with a pipe for stdout")
		}
		dst = os.Stdout
		summary = os.Stderr
	default:
		f, err := fsys.Create(*outPath)
		if err != nil {
			log.Fatalf("traj-otsu: %v", err)
		}
		dst = f
	}

	res, err := RunOtsu(fsys, *in, dst)
	if dst != nil {
		if cerr := dst.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", *outPath, cerr)
		}
	}
	if err != nil {
		log.Fatalf("traj-otsu: %v", err)
	}
	fmt.Fprintf(summary, "records=%d threshold=%d kept=%d\n", len(res.Energies), res.Threshold, res.Kept)

	if *plotPath != "" {
		if err := threshold.PlotHistogram(res.Energies, res.Threshold, *plotPath); err != nil {
			log.Fatalf("traj-otsu: plot: %v", err)
		}
		log.Printf("histogram written to %s", *plotPath)
	}
}
