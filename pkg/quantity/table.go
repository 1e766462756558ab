package quantity

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Unit is one entry of a unit table. Factor converts a magnitude expressed
// in this unit to the base unit: base = magnitude * Factor.
type Unit struct {
	Tag    string  `json:"tag"`
	Label  string  `json:"label"`
	Factor float64 `json:"factor"`
}

// Table is an immutable registry of the units of one kind. Exactly one unit
// has Factor 1 (the base unit) and every factor is strictly positive.
type Table struct {
	byTag map[string]Unit
	// sorted by descending factor
	desc []Unit
}

// NewTable validates units and builds a table from them.
func NewTable(units ...Unit) (*Table, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("quantity: table needs at least one unit")
	}
	t := &Table{byTag: make(map[string]Unit, len(units))}
	bases := 0
	for _, u := range units {
		if u.Tag == "" {
			return nil, fmt.Errorf("quantity: unit with empty tag")
		}
		if _, dup := t.byTag[u.Tag]; dup {
			return nil, fmt.Errorf("quantity: duplicate unit tag %q", u.Tag)
		}
		if !(u.Factor > 0) || math.IsInf(u.Factor, 0) {
			return nil, fmt.Errorf("quantity: unit %q has non-positive factor %v", u.Tag, u.Factor)
		}
		if u.Factor == 1 {
			bases++
		}
		t.byTag[u.Tag] = u
		t.desc = append(t.desc, u)
	}
	if bases != 1 {
		return nil, fmt.Errorf("quantity: table must have exactly one base unit, found %d", bases)
	}
	sort.SliceStable(t.desc, func(i, j int) bool { return t.desc[i].Factor > t.desc[j].Factor })
	return t, nil
}

func mustTable(units ...Unit) *Table {
	t, err := NewTable(units...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the unit with the given tag.
func (t *Table) Lookup(tag string) (Unit, error) {
	u, ok := t.byTag[tag]
	if !ok {
		return Unit{}, &UnknownUnitError{Tag: tag}
	}
	return u, nil
}

// Has reports whether tag is a unit of t.
func (t *Table) Has(tag string) bool {
	_, ok := t.byTag[tag]
	return ok
}

// Base returns the unit with factor 1.
func (t *Table) Base() Unit {
	for _, u := range t.desc {
		if u.Factor == 1 {
			return u
		}
	}
	// unreachable for tables built by NewTable
	return t.desc[0]
}

// Units returns a copy of the units ordered by ascending factor, the order
// used for unit pickers.
func (t *Table) Units() []Unit {
	out := make([]Unit, len(t.desc))
	for i, u := range t.desc {
		out[len(t.desc)-1-i] = u
	}
	return out
}

// Choose selects the display unit for a base-unit magnitude: the unit with
// the largest factor not exceeding base, or the finest unit if none does.
func (t *Table) Choose(base float64) Unit {
	for _, u := range t.desc {
		if u.Factor <= base {
			return u
		}
	}
	return t.desc[len(t.desc)-1]
}

// Format renders base in the unit picked by Choose, e.g. "53.333 mA".
func (t *Table) Format(base float64) string {
	return t.Choose(base).Format(base, true)
}

// Scale converts a base-unit magnitude into this unit.
func (u Unit) Scale(base float64) float64 {
	return base / u.Factor
}

// Format renders base in this unit rounded to three decimals, optionally
// followed by the unit label.
func (u Unit) Format(base float64, withLabel bool) string {
	s := formatNumber(Round(u.Scale(base), 3))
	if withLabel {
		return s + " " + u.Label
	}
	return s
}

// Round rounds x to the given number of decimal digits, halves away from
// zero.
func Round(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}

func formatNumber(x float64) string {
	if x == 0 {
		// avoid "-0"
		x = 0
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// FormatNumber renders a unitless value rounded to digits decimals.
func FormatNumber(x float64, digits int) string {
	return formatNumber(Round(x, digits))
}
