// Package chart renders the follower's response curve and the equilibrium
// point.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/MikeSquared-Agency/Stackelberg/internal/solve"
)

// Default figure size, matching a 10x6 inch canvas.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

var equilibriumColor = color.RGBA{R: 220, A: 255}

// Formats accepted by Render.
var formats = map[string]bool{"png": true, "svg": true, "pdf": true, "eps": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true}

// FormatFromPath returns the image format implied by the file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !formats[ext] {
		return "", fmt.Errorf("chart: unsupported output format %q", ext)
	}
	return ext, nil
}

// Build lays out the figure as a gonum plot.
func Build(fig solve.Figure) (*plot.Plot, error) {
	if len(fig.Curve) == 0 {
		return nil, errors.New("chart: empty response curve")
	}

	p := plot.New()
	p.Title.Text = "Follower Response vs Leader Power Level"
	p.X.Label.Text = "Leader Power Level (p)"
	p.Y.Label.Text = "Follower Power Level (q)"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(fig.Curve))
	for i, pt := range fig.Curve {
		xys[i].X, xys[i].Y = pt.P, pt.Q
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("chart: response curve: %w", err)
	}
	line.Width = vg.Points(1.5)

	marker, err := plotter.NewScatter(plotter.XYs{{X: fig.Equilibrium.P, Y: fig.Equilibrium.Q}})
	if err != nil {
		return nil, fmt.Errorf("chart: equilibrium: %w", err)
	}
	marker.GlyphStyle.Color = equilibriumColor
	marker.GlyphStyle.Shape = draw.CircleGlyph{}
	marker.GlyphStyle.Radius = vg.Points(4)

	p.Add(line, marker)
	p.Legend.Add("Follower response", line)
	p.Legend.Add("Equilibrium Point", marker)
	p.Legend.Top = true
	return p, nil
}

// Render writes the figure to w in the given format.
func Render(w io.Writer, fig solve.Figure, format string) error {
	p, err := Build(fig)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("chart: write %s: %w", format, err)
	}
	return nil
}

// Save writes the figure to path, choosing the format from its extension.
func Save(path string, fig solve.Figure) error {
	if _, err := FormatFromPath(path); err != nil {
		return err
	}
	p, err := Build(fig)
	if err != nil {
		return err
	}
	return p.Save(Width, Height, path)
}
