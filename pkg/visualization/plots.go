package visualization

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"pmpshapes/internal/models"
)

// PlotColumns are the descriptor columns shown in plots
var PlotColumns = []string{
	"area_from_moment",
	"fancy_area",
	"arch_length",
	"feret_x",
	"feret_y",
	"convexity",
	"aspect_ratio",
	"elongation",
}

// MaxPlotElongation drops rows whose elongation is larger, which also
// removes the unavailable sentinel
const MaxPlotElongation = 100

// ErrNotEnoughData is returned when fewer than two rows survive filtering
var ErrNotEnoughData = errors.New("not enough descriptor rows to plot")

// DescriptorColumns returns one slice per entry of PlotColumns holding the
// values of rows with finite descriptors and elongation <= MaxPlotElongation
func DescriptorColumns(rows []models.DescriptorRow) [][]float64 {
	cols := make([][]float64, len(PlotColumns))
	for _, r := range rows {
		vals := []float64{
			r.AreaFromMoment, r.PolygonArea, r.ArcLength,
			float64(r.FeretX), float64(r.FeretY),
			r.Convexity, r.AspectRatio, r.Elongation,
		}
		if r.Elongation > MaxPlotElongation || !allFinite(vals) {
			continue
		}
		for i, v := range vals {
			cols[i] = append(cols[i], v)
		}
	}
	return cols
}

func allFinite(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CorrelationMatrix returns the Pearson correlation of every column pair.
// Columns without variance correlate as NaN.
func CorrelationMatrix(cols [][]float64) [][]float64 {
	n := len(cols)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = stat.Correlation(cols[i], cols[j], nil)
		}
	}
	return m
}

// corrGrid adapts a square matrix to plotter.GridXYZ
type corrGrid [][]float64

func (g corrGrid) Dims() (c, r int)   { return len(g), len(g) }
func (g corrGrid) Z(c, r int) float64 { return g[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

func columnTicks() plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(PlotColumns))
	for i, name := range PlotColumns {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	return ticks
}

// PlotCorrelation saves a heat map of the descriptor correlation matrix
func PlotCorrelation(rows []models.DescriptorRow, path string) error {
	cols := DescriptorColumns(rows)
	if len(cols[0]) < 2 {
		return ErrNotEnoughData
	}

	p := plot.New()
	p.Title.Text = "Descriptor correlation (Pearson)"

	hm := plotter.NewHeatMap(corrGrid(CorrelationMatrix(cols)), palette.Heat(32, 1))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)

	p.X.Tick.Marker = columnTicks()
	p.Y.Tick.Marker = columnTicks()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	if err := p.Save(12*vg.Inch, 10*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save correlation plot: %w", err)
	}
	return nil
}

// PlotScatterMatrix saves a grid of pairwise scatter plots with histograms on the diagonal
func PlotScatterMatrix(rows []models.DescriptorRow, path string) error {
	cols := DescriptorColumns(rows)
	if len(cols[0]) < 2 {
		return ErrNotEnoughData
	}

	n := len(cols)
	plots := make([][]*plot.Plot, n)
	for r := 0; r < n; r++ {
		plots[r] = make([]*plot.Plot, n)
		for c := 0; c < n; c++ {
			p := plot.New()

			switch {
			case r == c && floats.Min(cols[c]) == floats.Max(cols[c]):
				// constant column, nothing to bin
			case r == c:
				h, err := plotter.NewHist(plotter.Values(cols[c]), 16)
				if err != nil {
					return fmt.Errorf("failed to build histogram for %s: %w", PlotColumns[c], err)
				}
				p.Add(h)
			default:
				xy := make(plotter.XYs, len(cols[c]))
				for i := range xy {
					xy[i].X = cols[c][i]
					xy[i].Y = cols[r][i]
				}
				s, err := plotter.NewScatter(xy)
				if err != nil {
					return fmt.Errorf("failed to build scatter %s/%s: %w", PlotColumns[r], PlotColumns[c], err)
				}
				s.GlyphStyle.Radius = vg.Points(1)
				p.Add(s)
			}

			if r == n-1 {
				p.X.Label.Text = PlotColumns[c]
			}
			if c == 0 {
				p.Y.Label.Text = PlotColumns[r]
			}
			plots[r][c] = p
		}
	}

	img := vgimg.New(16*vg.Inch, 16*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: n,
		Cols: n,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			plots[r][c].Draw(canvases[r][c])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write scatter matrix: %w", err)
	}
	return f.Close()
}
