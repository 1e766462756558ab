package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/ruediste/diy-dc-converter/pkg/sweep"
)

type htmlRenderer struct {
	opts Options
}

func (r htmlRenderer) Render(w io.Writer, g sweep.Graph) error {
	s, err := scale(g)
	if err != nil {
		return err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: s.title,
			Width:     fmt.Sprintf("%dpx", r.opts.Width),
			Height:    fmt.Sprintf("%dpx", r.opts.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: s.title, Subtitle: s.legend}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(len(s.series) > 1),
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:         "value",
			Name:         s.xName,
			NameLocation: "middle",
			NameGap:      25,
			Scale:        opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:         "value",
			Name:         s.yName,
			NameLocation: "middle",
			NameGap:      40,
		}),
		charts.WithColorsOpts(opts.Colors(Palette)),
	)

	for _, ss := range s.series {
		line.AddSeries(ss.name, lineData(ss.segments),
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol:   opts.Bool(false),
				ConnectNulls: opts.Bool(false),
			}),
		)
	}

	return line.Render(w)
}

// lineData flattens segments into [x, y] pairs, separating them with an
// empty value so the line breaks across undefined samples.
func lineData(segments [][]sweep.Point) []opts.LineData {
	var data []opts.LineData
	for i, seg := range segments {
		if i > 0 {
			data = append(data, opts.LineData{Value: []interface{}{seg[0].X, "-"}})
		}
		for _, p := range seg {
			data = append(data, opts.LineData{Value: []interface{}{p.X, p.Y}})
		}
	}
	return data
}
