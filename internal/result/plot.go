package result

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// BodePlotExporter renders the (0,0) entry of every sweep point's
// magnitude (dB) against frequency as a diagnostic PNG. It is not
// named by spec §6, adapted from the teacher's
// MakeCameraResponsePlot/SaveLightCurvePlot font and grid styling. A
// companion phase plot is written alongside path with a "_phase"
// suffix inserted before the extension.
type BodePlotExporter struct{}

// Export implements Exporter.
func (BodePlotExporter) Export(path string, v *FrequencyResponseVec) error {
	if len(v.Points) == 0 {
		return fmt.Errorf("%w: no sweep points to plot", ErrIO)
	}

	magPts := make(plotter.XYs, len(v.Points))
	phasePts := make(plotter.XYs, len(v.Points))
	for i, p := range v.Points {
		mag := p.Magnitude().At(0, 0)
		magPts[i].X = p.FrequencyHz
		magPts[i].Y = 20 * math.Log10(mag)
		phasePts[i].X = p.FrequencyHz
		phasePts[i].Y = p.Phase().At(0, 0) * 180 / math.Pi
	}

	magPanel := newBodePanel("Magnitude", "Frequency (Hz)", "dB")
	magLine, err := plotter.NewLine(magPts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	magLine.Color = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	magPanel.Add(magLine)

	if err := magPanel.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrIO, err)
	}

	phasePanel := newBodePanel("Phase", "Frequency (Hz)", "degrees")
	phaseLine, err := plotter.NewLine(phasePts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	phaseLine.Color = color.RGBA{R: 200, G: 0, B: 0, A: 255}
	phasePanel.Add(phaseLine)

	if err := phasePanel.Save(6*vg.Inch, 4*vg.Inch, phaseSidecarPath(path)); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrIO, err)
	}
	return nil
}

// phaseSidecarPath inserts "_phase" before path's extension.
func phaseSidecarPath(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i] + "_phase" + path[i:]
		}
	}
	return path + "_phase"
}

func newBodePanel(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	p.X.Label.TextStyle.Font.Typeface = "Liberation"
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.Label.TextStyle.Font.Size = vg.Points(12)

	p.Y.Label.TextStyle.Font.Typeface = "Liberation"
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}
