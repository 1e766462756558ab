package render

import (
	"fmt"
	"io"

	"github.com/ruediste/diy-dc-converter/pkg/sweep"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// gonum lengths are in points; PNG output is rendered at 96 dpi
const pixel = vg.Inch / 96

type pngRenderer struct {
	opts Options
}

func (r pngRenderer) Render(w io.Writer, g sweep.Graph) error {
	s, err := scale(g)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = s.title
	p.X.Label.Text = s.xName
	p.Y.Label.Text = s.yName
	p.X.Tick.Marker = roundedTicks{}
	p.Y.Tick.Marker = roundedTicks{}
	p.Add(plotter.NewGrid())

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	if s.legend != "" {
		p.Title.Text = fmt.Sprintf("%s (%s)", s.title, s.legend)
	}

	for _, ss := range s.series {
		c, err := parseHex(ss.color)
		if err != nil {
			return err
		}
		for i, seg := range ss.segments {
			pts := make(plotter.XYs, len(seg))
			for j, pt := range seg {
				pts[j] = plotter.XY{X: pt.X, Y: pt.Y}
			}
			l, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("failed to create line for %s: %w", ss.name, err)
			}
			l.Color = c
			l.Width = vg.Points(1.5)
			p.Add(l)
			// one legend entry per series
			if i == 0 && len(s.series) > 1 {
				p.Legend.Add(ss.name, l)
			}
		}
	}

	wt, err := p.WriterTo(vg.Length(r.opts.Width)*pixel, vg.Length(r.opts.Height)*pixel, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// roundedTicks labels the default ticks with three decimals at most.
type roundedTicks struct{}

func (roundedTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = tick(ticks[i].Value)
		}
	}
	return ticks
}
