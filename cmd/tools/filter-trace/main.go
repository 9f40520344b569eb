// Command filter-trace replays a directory of camera frames through the
// sampler and position filter and plots measurement against estimate. Use
// it to tune the luminance and noise settings offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/TEJM09/Vision-Core/internal/config"
	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/sensor"
	"github.com/TEJM09/Vision-Core/internal/tracking"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	framesDir  = flag.String("frames", "", "Directory of PNG/JPEG frames (required)")
	configPath = flag.String("config", "", "Tuning config JSON (defaults when empty)")
	outPath    = flag.String("out", "filter-trace.png", "Output PNG")
)

func main() {
	flag.Parse()
	if *framesDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	trace, sum, err := replay(context.Background(), *framesDir, cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := savePlot(trace, *outPath, fmt.Sprintf("q=%.3g r=%.3g threshold=%.0f",
		cfg.GetProcessNoise(), cfg.GetMeasurementNoise(), cfg.GetLuminanceThreshold())); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("frames %d, detections %d, rejections %d\n", sum.Samples, sum.Detections, sum.Rejections)
	fmt.Printf("innovation mean %.4f sd %.4f, final gain %.4f, covariance %.4f\n",
		sum.MeanInnovation, sum.StdInnovation, sum.LastGain, sum.LastCovariance)
	fmt.Printf("wrote %s\n", *outPath)
}

// replay runs every frame in dir through a fresh pipeline, as fast as the
// frames decode.
func replay(ctx context.Context, dir string, cfg *config.TuningConfig) ([]tracking.TraceSample, tracking.DiagnosticsSummary, error) {
	src, err := sensor.OpenDir(dir, sensor.DirOptions{
		Width:  cfg.GetFrameWidth(),
		Height: cfg.GetFrameHeight(),
	})
	if err != nil {
		return nil, tracking.DiagnosticsSummary{}, err
	}

	out := latest.NewValue(tracking.Position{X: tracking.InitialEstimate})
	p := tracking.NewVisionPipeline(src, sensor.NewSampler(sensor.SamplerConfigFromTuning(cfg)), tracking.FilterFromTuning(cfg), out)
	p.Diag = tracking.NewDiagnostics(src.Len())
	if err := p.Run(ctx); err != nil {
		return nil, tracking.DiagnosticsSummary{}, fmt.Errorf("replay: %w", err)
	}
	return p.Diag.Trace(), p.Diag.Summary(), nil
}

// savePlot writes a two-panel PNG: z and x over frames on top, covariance
// below.
func savePlot(trace []tracking.TraceSample, path, subtitle string) error {
	if len(trace) == 0 {
		return fmt.Errorf("no frames to plot")
	}

	meas := make(plotter.XYs, 0, len(trace))
	est := make(plotter.XYs, len(trace))
	cov := make(plotter.XYs, len(trace))
	for i, s := range trace {
		if s.Detected {
			meas = append(meas, plotter.XY{X: float64(i), Y: s.Z})
		}
		est[i] = plotter.XY{X: float64(i), Y: s.X}
		cov[i] = plotter.XY{X: float64(i), Y: s.P}
	}

	pPos := plot.New()
	pPos.Title.Text = "Measurement vs estimate (" + subtitle + ")"
	pPos.X.Label.Text = "Frame"
	pPos.Y.Label.Text = "Paddle x"
	pPos.Y.Min, pPos.Y.Max = 0, 1

	estLine, err := plotter.NewLine(est)
	if err != nil {
		return fmt.Errorf("estimate line: %w", err)
	}
	estLine.Width = vg.Points(1.5)
	estLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	pPos.Add(estLine)
	pPos.Legend.Add("x", estLine)

	if len(meas) > 0 {
		measPts, err := plotter.NewScatter(meas)
		if err != nil {
			return fmt.Errorf("measurement points: %w", err)
		}
		measPts.GlyphStyle.Shape = draw.CircleGlyph{}
		measPts.GlyphStyle.Radius = vg.Points(1.5)
		measPts.GlyphStyle.Color = color.RGBA{R: 255, G: 127, B: 14, A: 255}
		pPos.Add(measPts)
		pPos.Legend.Add("z", measPts)
	}
	pPos.Legend.Top = true
	pPos.Legend.Left = false
	pPos.Legend.XOffs = -10
	pPos.Legend.YOffs = -10

	pCov := plot.New()
	pCov.Title.Text = "Covariance"
	pCov.X.Label.Text = "Frame"
	pCov.Y.Label.Text = "P"
	covLine, err := plotter.NewLine(cov)
	if err != nil {
		return fmt.Errorf("covariance line: %w", err)
	}
	covLine.Width = vg.Points(1)
	pCov.Add(covLine)

	const width, height = 12 * vg.Inch, 8 * vg.Inch
	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Points(8)}
	plots := [][]*plot.Plot{{pPos}, {pCov}}
	canvases := plot.Align(plots, tiles, dc)
	pPos.Draw(canvases[0][0])
	pCov.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
