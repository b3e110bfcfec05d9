// Package plot draws payoff diagrams with gonum/plot.
package plot

import (
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	apperrors "binomial-pricer/internal/errors"
	"binomial-pricer/internal/payoff"
)

// Options controls a payoff diagram.
type Options struct {
	Title   string
	Samples int
	Width   vg.Length
	Height  vg.Length
	// Profit plots ProfitAt instead of ValueAt.
	Profit bool
}

// DefaultOptions returns an 8x5 inch diagram sampled at payoff.DefaultSamples.
func DefaultOptions() Options {
	return Options{
		Samples: payoff.DefaultSamples,
		Width:   8 * vg.Inch,
		Height:  5 * vg.Inch,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Samples == 0 {
		o.Samples = d.Samples
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

// Constituents returns the positions drawn dashed beneath p: the legs of a
// portfolio, nothing otherwise.
func Constituents(p payoff.Position) []payoff.Position {
	if pf, ok := p.(*payoff.Portfolio); ok && len(pf.Legs()) > 1 {
		return pf.Legs()
	}
	return nil
}

// Payoff builds the diagram of p across its padded range of interest. The
// aggregate is drawn solid and each constituent dashed, labelled by String.
func Payoff(p payoff.Position, opts Options) (*plot.Plot, error) {
	opts = opts.withDefaults()

	curve, err := payoff.Sample(p, opts.Samples)
	if err != nil {
		return nil, err
	}
	xs := curve.Prices

	yLabel := "Value"
	ys := func(pos payoff.Position) []float64 { return payoff.Values(pos, xs) }
	if opts.Profit {
		yLabel = "Profit"
		ys = func(pos payoff.Position) []float64 { return payoff.Profits(pos, xs) }
	}

	plt := plot.New()
	plt.Title.Text = opts.Title
	if plt.Title.Text == "" {
		plt.Title.Text = p.String()
	}
	plt.X.Label.Text = "Stock price"
	plt.Y.Label.Text = yLabel
	plt.Legend.Top = true
	plt.Add(plotter.NewGrid())

	zero, err := plotter.NewLine(plotter.XYs{{X: xs[0], Y: 0}, {X: xs[len(xs)-1], Y: 0}})
	if err != nil {
		return nil, err
	}
	zero.LineStyle.Color = color.Gray{Y: 160}
	zero.LineStyle.Width = vg.Points(0.5)
	plt.Add(zero)

	for i, leg := range Constituents(p) {
		line, err := newLine(xs, ys(leg))
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = plotutil.Color(i + 1)
		line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		plt.Add(line)
		plt.Legend.Add(leg.String(), line)
	}

	aggregate, err := newLine(xs, ys(p))
	if err != nil {
		return nil, err
	}
	aggregate.LineStyle.Color = plotutil.Color(0)
	aggregate.LineStyle.Width = vg.Points(2)
	plt.Add(aggregate)
	plt.Legend.Add(p.String(), aggregate)

	return plt, nil
}

func newLine(xs, ys []float64) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return plotter.NewLine(pts)
}

// Formats lists the file extensions Save accepts.
var Formats = []string{"png", "svg", "pdf", "jpg", "eps", "tif"}

func formatOf(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "jpeg" {
		ext = "jpg"
	}
	if ext == "tiff" {
		ext = "tif"
	}
	for _, f := range Formats {
		if f == ext {
			return ext, nil
		}
	}
	return "", apperrors.NewInvalidArgument("path", path, "extension must be one of "+strings.Join(Formats, ", "))
}

// Save draws p and writes it to path; the extension picks the image format.
func Save(p payoff.Position, opts Options, path string) error {
	if _, err := formatOf(path); err != nil {
		return err
	}
	plt, err := Payoff(p, opts)
	if err != nil {
		return err
	}
	opts = opts.withDefaults()
	return plt.Save(opts.Width, opts.Height, path)
}

// Write draws p in the given format ("png", "svg", ...) to w.
func Write(w io.Writer, p payoff.Position, opts Options, format string) error {
	format, err := formatOf("x." + format)
	if err != nil {
		return err
	}
	plt, err := Payoff(p, opts)
	if err != nil {
		return err
	}
	opts = opts.withDefaults()
	wt, err := plt.WriterTo(opts.Width, opts.Height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
