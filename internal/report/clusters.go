// Package report renders HTML summaries of an analysis run with
// go-echarts.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/handtraj/internal/pipeline"
)

// AssetsHost is where the rendered page loads the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// WriteClusterReport renders a page with a scatter of segment mean
// displacement coloured by cluster and a bar chart of cluster sizes.
func WriteClusterReport(w io.Writer, res *pipeline.Result, source string) error {
	subtitle := fmt.Sprintf("source=%s window=%d segments=%d clusters=%d threshold=%d",
		source, res.Window.Frame, len(res.Segments), res.Assignment.Count, res.Threshold)

	series := make([][]opts.ScatterData, res.Assignment.Count)
	for i, s := range res.Segments {
		id := res.Assignment.IDs[i]
		series[id] = append(series[id], opts.ScatterData{
			Value: []interface{}{s.MeanX, s.MeanY, s.VarX, s.VarY, s.TrajectoryID},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trajectory clusters", Theme: "dark", Width: "900px", Height: "700px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Segment mean displacement by cluster", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "mean dx (px/frame)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mean dy (px/frame)", NameLocation: "middle", NameGap: 30}),
	)
	for id, data := range series {
		scatter.AddSeries(fmt.Sprintf("cluster %d", id), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	}

	sizes := res.Assignment.Sizes()
	labels := make([]string, len(sizes))
	bars := make([]opts.BarData, len(sizes))
	for id, n := range sizes {
		labels[id] = fmt.Sprintf("%d", id)
		bars[id] = opts.BarData{Value: n}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Cluster sizes"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("segments", bars,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.SetPageTitle("Trajectory clusters")
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(scatter, bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render cluster report: %w", err)
	}
	return nil
}

// WriteClusterReportFile renders the report to path.
func WriteClusterReportFile(path string, res *pipeline.Result, source string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	if err := WriteClusterReport(f, res, source); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
