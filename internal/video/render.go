package video

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/banshee-data/handtraj/internal/pipeline"
	"github.com/banshee-data/handtraj/internal/trajectory"
)

// Palette holds the cluster colours, indexed by cluster id modulo its
// length.
var Palette = []color.RGBA{
	{R: 0, G: 0, B: 255, A: 0},
	{R: 0, G: 255, B: 0, A: 0},
	{R: 255, G: 0, B: 0, A: 0},
	{R: 0, G: 255, B: 255, A: 0},
	{R: 255, G: 0, B: 255, A: 0},
	{R: 255, G: 255, B: 0, A: 0},
	{R: 0, G: 128, B: 255, A: 0},
	{R: 128, G: 0, B: 255, A: 0},
	{R: 255, G: 128, B: 0, A: 0},
	{R: 128, G: 255, B: 0, A: 0},
	{R: 0, G: 255, B: 128, A: 0},
	{R: 255, G: 255, B: 255, A: 0},
}

// ClusterColor returns the palette entry for a cluster id.
func ClusterColor(id int) color.RGBA {
	if id < 0 {
		id = -id
	}
	return Palette[id%len(Palette)]
}

func pixel(p trajectory.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// DrawPolyline draws pts onto img and marks the final point.
func DrawPolyline(img *gocv.Mat, pts []trajectory.Point, c color.RGBA) {
	for i := 1; i < len(pts); i++ {
		gocv.Line(img, pixel(pts[i-1]), pixel(pts[i]), c, 1)
	}
	if len(pts) > 0 {
		gocv.Circle(img, pixel(pts[len(pts)-1]), 2, c, -1)
	}
}

// DrawPoints marks each of pts with a small circle.
func DrawPoints(img *gocv.Mat, pts []trajectory.Point, c color.RGBA) {
	for _, p := range pts {
		gocv.Circle(img, pixel(p), 1, c, 1)
	}
}

// DrawClusters draws every polyline in its cluster colour.
func DrawClusters(img *gocv.Mat, lines []pipeline.ClusteredPolyline) {
	for _, l := range lines {
		DrawPolyline(img, l.Points, ClusterColor(l.ClusterID))
	}
}

// RenderClusters draws lines onto frame index of the video at videoPath
// and writes the image to outPath, resized by scale. The format follows
// the extension.
func RenderClusters(videoPath string, index int, lines []pipeline.ClusteredPolyline, outPath string, scale float64) error {
	img, err := ReadFrameAt(videoPath, index)
	if err != nil {
		return fmt.Errorf("render clusters: %w", err)
	}
	defer img.Close()

	DrawClusters(&img, lines)
	if err := SaveImage(img, outPath, scale); err != nil {
		return fmt.Errorf("render clusters: %w", err)
	}
	return nil
}

// SaveImage writes img to path. A scale of 1 (or <= 0) writes the Mat
// as is; any other scale resizes with a Lanczos filter first.
func SaveImage(img gocv.Mat, path string, scale float64) error {
	if scale <= 0 || scale == 1 {
		if !gocv.IMWrite(path, img) {
			return fmt.Errorf("write %s failed", path)
		}
		return nil
	}

	src, err := img.ToImage()
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	if err := imaging.Save(ScaleImage(src, scale), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ScaleImage resizes src by scale, keeping at least one pixel per side.
func ScaleImage(src image.Image, scale float64) image.Image {
	b := src.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	return imaging.Resize(src, max(w, 1), max(h, 1), imaging.Lanczos)
}
