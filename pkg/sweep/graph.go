package sweep

import "github.com/ruediste/diy-dc-converter/pkg/quantity"

// Axis describes one plotted dimension. Kind selects the unit table used for
// tick labels; a zero Kind means a plain number.
type Axis struct {
	Label string        `json:"label"`
	Kind  quantity.Kind `json:"kind,omitempty"`
}

// Unit picks the display unit for an axis whose largest observed base value
// is max. ok is false for unitless axes.
func (a Axis) Unit(max float64) (u quantity.Unit, ok bool) {
	t := a.Kind.Table()
	if t == nil {
		return quantity.Unit{}, false
	}
	return t.Choose(max), true
}

// Title renders "Label [unit]" for the given display unit.
func (a Axis) Title(max float64) string {
	if u, ok := a.Unit(max); ok {
		return a.Label + " [" + u.Label + "]"
	}
	return a.Label
}

// FormatValue renders a value on this axis with the axis kind's best unit.
func (a Axis) FormatValue(v float64) string {
	return a.Kind.Format(v)
}

// Graph is a named sweep result together with its axis descriptions.
type Graph struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	X     Axis   `json:"x"`
	Y     Axis   `json:"y"`
	// Legend describes the series parameter; ignored when Table.Series is nil.
	Legend Axis  `json:"legend"`
	Table  Table `json:"table"`
}

// XUnit returns the x axis display unit, chosen from the largest x sample.
func (g Graph) XUnit() (quantity.Unit, bool) {
	return g.X.Unit(g.Table.MaxX())
}

// YUnit returns the y axis display unit, chosen from the largest value.
func (g Graph) YUnit() (quantity.Unit, bool) {
	return g.Y.Unit(g.Table.MaxY())
}

// SeriesNames returns one legend entry per series slot.
func (g Graph) SeriesNames() []string {
	if g.Table.Series == nil {
		return []string{g.Y.Label}
	}
	names := make([]string, len(g.Table.Series))
	for i, s := range g.Table.Series {
		names[i] = g.Legend.FormatValue(s)
	}
	return names
}
