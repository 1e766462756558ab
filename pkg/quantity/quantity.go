package quantity

import (
	"encoding/json"
	"fmt"
	"math"
)

// Quantity is a magnitude expressed in one of its kind's units. Value is
// stored in Unit, not in the base unit.
type Quantity struct {
	Kind  Kind    `json:"kind"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// New returns a quantity after checking that unit belongs to kind.
func New(kind Kind, value float64, unit string) (Quantity, error) {
	t := kind.Table()
	if t == nil {
		return Quantity{}, fmt.Errorf("quantity: invalid kind %d", int(kind))
	}
	if !t.Has(unit) {
		return Quantity{}, &UnknownUnitError{Kind: kind, Tag: unit}
	}
	return Quantity{Kind: kind, Value: value, Unit: unit}, nil
}

// Must is like New but panics on error. Meant for static defaults.
func Must(kind Kind, value float64, unit string) Quantity {
	q, err := New(kind, value, unit)
	if err != nil {
		panic(err)
	}
	return q
}

// FromBase builds a quantity displayed in unit from a base-unit magnitude.
func FromBase(kind Kind, base float64, unit string) (Quantity, error) {
	t := kind.Table()
	if t == nil {
		return Quantity{}, fmt.Errorf("quantity: invalid kind %d", int(kind))
	}
	u, err := t.Lookup(unit)
	if err != nil {
		return Quantity{}, &UnknownUnitError{Kind: kind, Tag: unit}
	}
	return Quantity{Kind: kind, Value: base / u.Factor, Unit: unit}, nil
}

// Convert returns the base-unit magnitude of q using table t.
func Convert(q Quantity, t *Table) (float64, error) {
	u, err := t.Lookup(q.Unit)
	if err != nil {
		return 0, &UnknownUnitError{Kind: q.Kind, Tag: q.Unit}
	}
	return q.Value * u.Factor, nil
}

// ChangeUnit re-expresses q in unit, preserving its base-unit magnitude.
func ChangeUnit(q Quantity, unit string, t *Table) (Quantity, error) {
	from, err := t.Lookup(q.Unit)
	if err != nil {
		return Quantity{}, &UnknownUnitError{Kind: q.Kind, Tag: q.Unit}
	}
	to, err := t.Lookup(unit)
	if err != nil {
		return Quantity{}, &UnknownUnitError{Kind: q.Kind, Tag: unit}
	}
	return Quantity{Kind: q.Kind, Value: q.Value * from.Factor / to.Factor, Unit: unit}, nil
}

// Base returns the magnitude of q in the base unit of its kind.
func (q Quantity) Base() (float64, error) {
	t := q.Kind.Table()
	if t == nil {
		return 0, fmt.Errorf("quantity: invalid kind %d", int(q.Kind))
	}
	return Convert(q, t)
}

// SI is Base for quantities already known to be valid, such as decoded or
// constructed ones. It returns NaN if q is invalid.
func (q Quantity) SI() float64 {
	v, err := q.Base()
	if err != nil {
		return math.NaN()
	}
	return v
}

// In re-expresses q in another unit of its own kind.
func (q Quantity) In(unit string) (Quantity, error) {
	t := q.Kind.Table()
	if t == nil {
		return Quantity{}, fmt.Errorf("quantity: invalid kind %d", int(q.Kind))
	}
	return ChangeUnit(q, unit, t)
}

// WithValue replaces the displayed magnitude, keeping the unit.
func (q Quantity) WithValue(v float64) Quantity {
	q.Value = v
	return q
}

// Validate checks that q's unit belongs to its kind's table.
func (q Quantity) Validate() error {
	_, err := New(q.Kind, q.Value, q.Unit)
	return err
}

// Equal reports whether q and o describe the same physical value within
// the relative tolerance relTol.
func (q Quantity) Equal(o Quantity, relTol float64) bool {
	if q.Kind != o.Kind {
		return false
	}
	a, err := q.Base()
	if err != nil {
		return false
	}
	b, err := o.Base()
	if err != nil {
		return false
	}
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= relTol*scale
}

// String renders q in its own unit, e.g. "12 V".
func (q Quantity) String() string {
	t := q.Kind.Table()
	if t == nil {
		return formatNumber(q.Value)
	}
	u, err := t.Lookup(q.Unit)
	if err != nil {
		return formatNumber(q.Value) + " " + q.Unit
	}
	return formatNumber(q.Value) + " " + u.Label
}

type quantityJSON struct {
	Kind  Kind    `json:"kind"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// MarshalJSON implements json.Marshaler.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(quantityJSON{Kind: q.Kind, Value: q.Value, Unit: q.Unit})
}

// UnmarshalJSON implements json.Unmarshaler. It rejects units that are not
// part of the kind's table.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var raw quantityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := New(raw.Kind, raw.Value, raw.Unit)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
