// Package viz renders training curves and prediction summaries to image
// files using gonum/plot.
package viz

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/kiln-ml/kiln/internal/train"
)

// SaveCurves writes a loss/accuracy-per-epoch plot to path. The image format
// is chosen from the file extension (.png, .svg, .pdf).
func SaveCurves(history []train.EpochStats, path string) error {
	if len(history) == 0 {
		return fmt.Errorf("no epochs to plot")
	}

	p := plot.New()
	p.Title.Text = "Training Progress"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Value"
	p.Legend.Top = true

	loss := make(plotter.XYs, len(history))
	acc := make(plotter.XYs, len(history))
	for i, st := range history {
		loss[i].X = float64(st.Epoch)
		loss[i].Y = st.Loss
		acc[i].X = float64(st.Epoch)
		acc[i].Y = st.Accuracy
	}

	lossLine, err := plotter.NewLine(loss)
	if err != nil {
		return err
	}
	lossLine.Color = plotutil.Color(0)
	accLine, err := plotter.NewLine(acc)
	if err != nil {
		return err
	}
	accLine.Color = plotutil.Color(1)

	p.Add(lossLine, accLine)
	p.Legend.Add("loss", lossLine)
	p.Legend.Add("accuracy", accLine)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// SaveClassProbabilities writes a bar chart of per-class probabilities for a
// single prediction to path.
func SaveClassProbabilities(probs []float64, labels []string, path string) error {
	if len(probs) == 0 {
		return fmt.Errorf("no probabilities to plot")
	}
	if len(labels) != len(probs) {
		return fmt.Errorf("got %d labels for %d probabilities", len(labels), len(probs))
	}

	p := plot.New()
	p.Title.Text = "Class Probabilities"
	p.Y.Label.Text = "Probability"
	p.Y.Min = 0
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(plotter.Values(probs), vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(2)
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
