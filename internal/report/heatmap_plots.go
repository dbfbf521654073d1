package report

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/plate_validator_go/internal/analysis"
)

// diffGrid lays calibration differences out as activity columns by zone rows.
type diffGrid struct {
	activities []float64
	zones      []int
	z          [][]float64 // [row][col]
}

func (g *diffGrid) Dims() (c, r int) { return len(g.activities), len(g.zones) }
func (g *diffGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *diffGrid) X(c int) float64 { return float64(c) }
func (g *diffGrid) Y(r int) float64 { return float64(r) }

func newDiffGrid(records []analysis.WellRecord) *diffGrid {
	actIdx := make(map[float64]int)
	zoneIdx := make(map[int]int)
	g := &diffGrid{}
	for _, r := range records {
		if _, ok := actIdx[r.Activity]; !ok {
			actIdx[r.Activity] = 0
			g.activities = append(g.activities, r.Activity)
		}
		if _, ok := zoneIdx[r.Zone]; !ok {
			zoneIdx[r.Zone] = 0
			g.zones = append(g.zones, r.Zone)
		}
	}
	sort.Float64s(g.activities)
	sort.Ints(g.zones)
	for i, a := range g.activities {
		actIdx[a] = i
	}
	for i, z := range g.zones {
		zoneIdx[z] = i
	}

	g.z = make([][]float64, len(g.zones))
	for i := range g.z {
		row := make([]float64, len(g.activities))
		for j := range row {
			row[j] = math.NaN()
		}
		g.z[i] = row
	}
	for _, r := range records {
		g.z[zoneIdx[r.Zone]][actIdx[r.Activity]] = r.Diff
	}
	return g
}

// CreateCalibrationHeatmap draws measured − reference by zone and activity
// on a blue-red diverging palette centered on zero. Missing cells are light gray.
func CreateCalibrationHeatmap(records []analysis.WellRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no calibration records to plot heatmap")
	}
	grid := newDiffGrid(records)

	span := 0.0
	for _, r := range records {
		if !math.IsNaN(r.Diff) {
			span = math.Max(span, math.Abs(r.Diff))
		}
	}
	if span == 0 {
		span = 1
	}

	hm := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	hm.Min = -span
	hm.Max = span
	hm.NaN = color.Gray{Y: 200}

	p := plot.New()
	p.Title.Text = "Calibration difference (measured - reference)"
	p.X.Label.Text = "Activity"
	p.Y.Label.Text = "Zone"
	p.Add(hm)

	xTicks := make([]plot.Tick, len(grid.activities))
	for i, a := range grid.activities {
		xTicks[i] = plot.Tick{Value: float64(i), Label: strconv.FormatFloat(a, 'g', 4, 64)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.X.Min = -0.5
	p.X.Max = float64(len(grid.activities)) - 0.5

	yTicks := make([]plot.Tick, len(grid.zones))
	for i, z := range grid.zones {
		yTicks[i] = plot.Tick{Value: float64(i), Label: fmt.Sprintf("Zone %d", z)}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.Y.Min = -0.5
	p.Y.Max = float64(len(grid.zones)) - 0.5

	return renderPNG(p, vg.Points(800), vg.Points(120+40*float64(len(grid.zones))))
}
