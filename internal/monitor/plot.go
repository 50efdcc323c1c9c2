package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ktkachuk/teps/internal/teps"
)

// SavePhasePlot writes a PNG of a completed run: raw values as a line, the
// settled phase as a step trace, and anomalies as red markers. Used by the
// replay tool after offline runs.
func SavePhasePlot(path string, values []float64, results []teps.Result) error {
	if len(values) != len(results) {
		return fmt.Errorf("values/results length mismatch: %d vs %d", len(values), len(results))
	}
	if len(values) == 0 {
		return fmt.Errorf("nothing to plot")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	p := plot.New()
	p.Title.Text = "Phase Segmentation"
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Value / Phase"

	valuePts := make(plotter.XYs, 0, len(values))
	phasePts := make(plotter.XYs, 0, len(results))
	anomalyPts := make(plotter.XYs, 0)
	for i, r := range results {
		x := float64(r.SampleIndex)
		valuePts = append(valuePts, plotter.XY{X: x, Y: values[i]})
		// Skip the pre-settlement stretch so the phase trace starts where
		// segmentation actually begins.
		if r.Phase != teps.UnknownPhase {
			phasePts = append(phasePts, plotter.XY{X: x, Y: float64(r.Phase)})
		}
		if r.DistanceAnomaly || r.SequenceAnomaly {
			anomalyPts = append(anomalyPts, plotter.XY{X: x, Y: values[i]})
		}
	}

	valueLine, err := plotter.NewLine(valuePts)
	if err != nil {
		return err
	}
	valueLine.Color = color.RGBA{R: 100, G: 149, B: 237, A: 255}
	valueLine.Width = vg.Points(1)
	p.Add(valueLine)
	p.Legend.Add("value", valueLine)

	if len(phasePts) > 0 {
		phaseLine, err := plotter.NewLine(phasePts)
		if err != nil {
			return err
		}
		phaseLine.Color = color.RGBA{G: 180, A: 255}
		phaseLine.Width = vg.Points(2)
		phaseLine.StepStyle = plotter.PostStep
		p.Add(phaseLine)
		p.Legend.Add("phase", phaseLine)
	}

	if len(anomalyPts) > 0 {
		anomalyScatter, err := plotter.NewScatter(anomalyPts)
		if err != nil {
			return err
		}
		anomalyScatter.Color = color.RGBA{R: 255, G: 82, B: 82, A: 255}
		anomalyScatter.Radius = vg.Points(3)
		p.Add(anomalyScatter)
		p.Legend.Add("anomaly", anomalyScatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save phase plot: %w", err)
	}
	return nil
}
