package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/plate_validator_go/internal/analysis"
)

var (
	pointColor    = color.RGBA{B: 255, A: 255}
	fitColor      = color.RGBA{R: 255, A: 255}
	identityColor = color.Gray{Y: 128}
)

// ScatterSpec describes one measured-versus-reference scatter plot.
type ScatterSpec struct {
	Title  string
	XLabel string
	YLabel string
	X, Y   []float64
	Fit    *analysis.LineFit // drawn when non-nil
}

// CreateScatterPlot draws the paired values with the identity line and,
// when available, the fitted line. The result is PNG bytes.
func CreateScatterPlot(s ScatterSpec) ([]byte, error) {
	if len(s.X) == 0 || len(s.X) != len(s.Y) {
		return nil, fmt.Errorf("no paired values to plot")
	}

	pts := make(plotter.XYs, 0, len(s.X))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range s.X {
		if math.IsNaN(s.X[i]) || math.IsNaN(s.Y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: s.X[i], Y: s.Y[i]})
		lo = math.Min(lo, math.Min(s.X[i], s.Y[i]))
		hi = math.Max(hi, math.Max(s.X[i], s.Y[i]))
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no finite values to plot")
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %w", err)
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter)
	p.Legend.Add("wells", scatter)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, fmt.Errorf("failed to create identity line: %w", err)
	}
	identity.Color = identityColor
	identity.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(identity)
	p.Legend.Add("y = x", identity)

	if s.Fit != nil {
		f := s.Fit
		fit, err := plotter.NewLine(plotter.XYs{
			{X: lo, Y: f.Slope*lo + f.Intercept},
			{X: hi, Y: f.Slope*hi + f.Intercept},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create fit line: %w", err)
		}
		fit.Color = fitColor
		fit.LineStyle.Width = vg.Points(1.5)
		p.Add(fit)
		p.Legend.Add(fmt.Sprintf("y = %.4fx %+.4f (r² = %.4f)", f.Slope, f.Intercept, f.RSquared()), fit)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = vg.Points(10)

	return renderPNG(p, vg.Points(600), vg.Points(600))
}

// RegressionPlots renders the scatter plots of a regression report, keyed
// by the base file name they should be saved under.
func RegressionPlots(report *analysis.RegressionReport) (map[string][]byte, error) {
	common := report.Common()
	if common == nil {
		return nil, fmt.Errorf("empty regression report")
	}
	fit := &analysis.LineFit{Slope: common.Slope, Intercept: common.Intercept, R: common.R, NOutliers: common.NOutliers}

	out := make(map[string][]byte)
	mainPlot, err := CreateScatterPlot(ScatterSpec{
		Title:  fmt.Sprintf("%s (%s)", common.Name, report.Variant),
		XLabel: "Reference",
		YLabel: "Measured",
		X:      common.Reference,
		Y:      common.Measured,
		Fit:    fit,
	})
	if err != nil {
		return nil, err
	}
	out[common.Name] = mainPlot

	if md := report.Microdot; md != nil && len(md.DiameterReference) > 0 {
		var diaFit *analysis.LineFit
		if f, err := analysis.FitLine(md.DiameterReference, md.DiameterMeasured); err == nil {
			diaFit = &f
		}
		dia, err := CreateScatterPlot(ScatterSpec{
			Title:  fmt.Sprintf("%s diameter", common.Name),
			XLabel: "Reference diameter",
			YLabel: "Measured diameter",
			X:      md.DiameterReference,
			Y:      md.DiameterMeasured,
			Fit:    diaFit,
		})
		if err != nil {
			return nil, err
		}
		out[common.Name+"_diameter"] = dia
	}
	return out, nil
}

func renderPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
