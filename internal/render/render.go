// Package render draws sweep graphs as interactive HTML (go-echarts) or
// static PNG (gonum/plot) charts.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/sweep"
)

// Palette is the series color cycle.
var Palette = []string{"#1b9e77", "#d95f02", "#7570b3", "#e7298a", "#66a61e", "#e6ab02", "#a6761d", "#666666"}

// Format names an output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
)

// ErrUnknownFormat is returned for formats other than html and png.
var ErrUnknownFormat = errors.New("render: unknown format")

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// Options are the chart dimensions in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions matches the size of the interactive charts.
var DefaultOptions = Options{Width: 730, Height: 500}

// Renderer writes a graph in one format.
type Renderer interface {
	Render(w io.Writer, g sweep.Graph) error
}

// New returns the renderer for f.
func New(f Format, o Options) (Renderer, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, fmt.Errorf("render: invalid size %dx%d", o.Width, o.Height)
	}
	switch f {
	case FormatHTML:
		return htmlRenderer{opts: o}, nil
	case FormatPNG:
		return pngRenderer{opts: o}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// scaled is a graph converted into its display units.
type scaled struct {
	title  string
	xName  string
	yName  string
	legend string
	series []scaledSeries
}

type scaledSeries struct {
	name     string
	color    string
	segments [][]sweep.Point
}

func scale(g sweep.Graph) (scaled, error) {
	if len(g.Table.Records) == 0 {
		return scaled{}, errors.New("render: graph has no samples")
	}

	xf, yf := 1.0, 1.0
	if u, ok := g.XUnit(); ok {
		xf = u.Factor
	}
	if u, ok := g.YUnit(); ok {
		yf = u.Factor
	}

	s := scaled{
		title: g.Title,
		xName: g.X.Title(g.Table.MaxX()),
		yName: g.Y.Title(g.Table.MaxY()),
	}
	if g.Table.Series != nil {
		s.legend = g.Legend.Label
	}

	for idx, name := range g.SeriesNames() {
		ss := scaledSeries{name: name, color: Palette[idx%len(Palette)]}
		for _, seg := range g.Table.Segments(idx) {
			pts := make([]sweep.Point, len(seg))
			for i, p := range seg {
				pts[i] = sweep.Point{X: p.X / xf, Y: p.Y / yf}
			}
			ss.segments = append(ss.segments, pts)
		}
		s.series = append(s.series, ss)
	}
	return s, nil
}

// tick rounds an already scaled axis value for display.
func tick(v float64) string {
	return quantity.FormatNumber(v, 3)
}

func parseHex(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("render: invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("render: invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
