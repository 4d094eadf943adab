package evaluation

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotPRCurve saves the precision/recall curve of proba against yTrue as an image.
// The format follows the file extension.
func PlotPRCurve(path string, yTrue []int, proba []float64) error {
	c, err := PrecisionRecallCurve(yTrue, proba)
	if err != nil {
		return err
	}
	ap, err := AveragePrecision(yTrue, proba)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Precision-Recall (AP = %.3f)", ap)
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(c.Recall)+1)
	pts = append(pts, plotter.XY{X: 0, Y: 1})
	for i := range c.Recall {
		pts = append(pts, plotter.XY{X: c.Recall[i], Y: c.Precision[i]})
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("pr curve: %w", err)
	}
	l.Color = color.RGBA{B: 200, A: 255}
	l.LineStyle.Width = vg.Points(2)
	p.Add(l)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("pr curve: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("pr curve: %w", err)
	}
	return nil
}
