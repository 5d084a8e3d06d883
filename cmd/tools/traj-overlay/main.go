// Command traj-overlay re-encodes a video with the trajectories of a
// results log drawn as they are traversed and the hand localised among
// each frame's tracked points.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/handtraj/internal/cluster"
	"github.com/banshee-data/handtraj/internal/fsutil"
	"github.com/banshee-data/handtraj/internal/video"
)

func main() {
	videoPath := flag.String("v", "", "Source video [required]")
	logPath := flag.String("f", "out_of_tracks.txt", "Results log to draw")
	outPath := flag.String("o", "overlay.avi", "Output video")
	codec := flag.String("codec", video.DefaultOverlayCodec, "FourCC of the output codec")
	linger := flag.Int("linger", 0, "Frames a trajectory stays visible after completion")
	radius := flag.Float64("kmeans-radius", cluster.DefaultHandRadius, "Radius in pixels for k-means hand localisation (0 disables)")
	debugPath := flag.String("debug", "", "Debug log whose track length the results must match (optional)")
	flag.Parse()

	if *videoPath == "" {
		log.Fatal("traj-overlay: -v is required")
	}
	if *linger < 0 {
		log.Fatalf("traj-overlay: -linger must be non-negative, got %d", *linger)
	}
	if *radius < 0 {
		log.Fatalf("traj-overlay: -kmeans-radius must be non-negative, got %g", *radius)
	}

	records, err := LoadRecords(fsutil.OSFileSystem{}, *logPath, *debugPath)
	if err != nil {
		log.Fatalf("traj-overlay: %v", err)
	}
	log.Printf("loaded %d trajectories from %s", len(records), *logPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := video.WriteOverlay(ctx, *videoPath, records, *outPath, video.OverlayOptions{
		Codec:      *codec,
		Linger:     *linger,
		HandRadius: *radius,
	})
	if err != nil {
		stop()
		log.Printf("traj-overlay: %v", err)
		os.Exit(1)
	}
	log.Printf("wrote %d frames to %s", n, *outPath)
}
