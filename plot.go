// Package centfit holds the command-line and plotting helpers shared by the
// glaubfit, glaubgen and glaubplot commands.
package centfit

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgeps"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/decibelcooper/centfit/glauber"
)

var (
	dataColor = color.RGBA{A: 255}
	fitColor  = color.RGBA{R: 255, A: 255}
	effiColor = color.RGBA{B: 255, A: 255}
)

// FitPlot is the content of one fit figure.
type FitPlot struct {
	Title string
	Data  *hbook.H1D
	Pred  *hbook.H1D
	Effi  *hbook.H1D // optional lower panel

	MultMin, MultMax float64 // fit range marks, when MultMax > MultMin
}

// Save draws the figure to fname. The format follows the file extension.
func (fp FitPlot) Save(fname string, width, height vg.Length) error {
	top, err := fp.spectra()
	if err != nil {
		return err
	}
	plots := [][]*plot.Plot{{top}}
	if fp.Effi != nil {
		bottom, err := fp.efficiency()
		if err != nil {
			return err
		}
		top.HideX()
		plots = append(plots, []*plot.Plot{bottom})
	}

	format := strings.TrimPrefix(filepath.Ext(fname), ".")
	img, err := draw.NewFormattedCanvas(width, height, format)
	if err != nil {
		return fmt.Errorf("could not create %q canvas: %w", format, err)
	}
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, draw.New(img))
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	w, err := os.Create(fname)
	if err != nil {
		return err
	}
	if _, err := img.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("could not write plot: %w", err)
	}
	return w.Close()
}

func (fp FitPlot) spectra() (*plot.Plot, error) {
	if fp.Data == nil || fp.Pred == nil {
		return nil, fmt.Errorf("fit plot needs data and prediction")
	}
	p := plot.New()
	p.Title.Text = fp.Title
	p.X.Label.Text = "multiplicity"
	p.Y.Label.Text = "events"
	p.X.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true

	for _, h := range []struct {
		label string
		hist  *hbook.H1D
		color color.Color
	}{
		{"data", fp.Data, dataColor},
		{"Glauber fit", fp.Pred, fitColor},
	} {
		hp := hplot.NewH1D(h.hist, hplot.WithLogY(true))
		hp.FillColor = nil
		hp.LineStyle.Color = h.color
		hp.Infos.Style = hplot.HInfoNone
		p.Add(hp)
		p.Legend.Add(h.label, hp)
	}

	if fp.MultMax > fp.MultMin {
		ymin, ymax := positiveRange(fp.Data, fp.Pred)
		for _, x := range []float64{fp.MultMin, fp.MultMax} {
			l, err := plotter.NewLine(plotter.XYs{{X: x, Y: ymin}, {X: x, Y: ymax}})
			if err != nil {
				return nil, err
			}
			l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(l)
		}
	}
	return p, nil
}

func (fp FitPlot) efficiency() (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "multiplicity"
	p.Y.Label.Text = "data / fit"
	p.X.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = PreciseTicks{NSuggestedTicks: 4}

	errPoints := ErrorPoints(fp.Effi)
	if len(errPoints.XYs) == 0 {
		return p, nil
	}
	yerr, err := plotter.NewYErrorBars(errPoints)
	if err != nil {
		return nil, err
	}
	yerr.LineStyle.Color = effiColor
	s, err := plotter.NewScatter(errPoints.XYs)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = effiColor
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(yerr, s, plotter.NewGrid())
	return p, nil
}

// ErrorPoints converts the populated bins of h to points at the bin centres
// with their errors.
func ErrorPoints(h *hbook.H1D) plotutil.ErrorPoints {
	var ep plotutil.ErrorPoints
	for i, bin := range h.Binning.Bins {
		c, e := glauber.Content(h, i), glauber.Error(h, i)
		if c == 0 && e == 0 {
			continue
		}
		half := (bin.XMax() - bin.XMin()) / 2
		ep.XYs = append(ep.XYs, plotter.XY{X: bin.XMid(), Y: c})
		ep.XErrors = append(ep.XErrors, struct{ Low, High float64 }{half, half})
		ep.YErrors = append(ep.YErrors, struct{ Low, High float64 }{e, e})
	}
	return ep
}

func positiveRange(hs ...*hbook.H1D) (min, max float64) {
	for _, h := range hs {
		for i := 0; i < h.Len(); i++ {
			c := glauber.Content(h, i)
			if c <= 0 {
				continue
			}
			if min == 0 || c < min {
				min = c
			}
			if c > max {
				max = c
			}
		}
	}
	if min == 0 {
		min, max = 1, 10
	}
	return min, max
}
