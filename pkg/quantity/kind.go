// Package quantity provides unit-tagged physical quantities backed by
// immutable per-kind unit tables.
package quantity

import (
	"fmt"
	"sort"
)

// Kind identifies the physical dimension of a quantity. Each kind carries
// its own unit table.
type Kind int

const (
	Voltage Kind = iota + 1
	Current
	Resistance
	Capacitance
	Inductance
	Time
	Frequency
	Power
)

var kindNames = map[Kind]string{
	Voltage:     "voltage",
	Current:     "current",
	Resistance:  "resistance",
	Capacitance: "capacitance",
	Inductance:  "inductance",
	Time:        "time",
	Frequency:   "frequency",
	Power:       "power",
}

var tables = map[Kind]*Table{
	Voltage: mustTable(
		Unit{Tag: "V", Label: "V", Factor: 1},
		Unit{Tag: "mV", Label: "mV", Factor: 1e-3},
	),
	Current: mustTable(
		Unit{Tag: "A", Label: "A", Factor: 1},
		Unit{Tag: "mA", Label: "mA", Factor: 1e-3},
	),
	Resistance: mustTable(
		Unit{Tag: "Ohm", Label: "Ω", Factor: 1},
		Unit{Tag: "kOhm", Label: "kΩ", Factor: 1e3},
	),
	Capacitance: mustTable(
		Unit{Tag: "F", Label: "F", Factor: 1},
		Unit{Tag: "mF", Label: "mF", Factor: 1e-3},
		Unit{Tag: "uF", Label: "µF", Factor: 1e-6},
		Unit{Tag: "nF", Label: "nF", Factor: 1e-9},
		Unit{Tag: "pF", Label: "pF", Factor: 1e-12},
	),
	Inductance: mustTable(
		Unit{Tag: "H", Label: "H", Factor: 1},
		Unit{Tag: "mH", Label: "mH", Factor: 1e-3},
		Unit{Tag: "uH", Label: "µH", Factor: 1e-6},
		Unit{Tag: "nH", Label: "nH", Factor: 1e-9},
	),
	Time: mustTable(
		Unit{Tag: "s", Label: "s", Factor: 1},
		Unit{Tag: "ms", Label: "ms", Factor: 1e-3},
		Unit{Tag: "us", Label: "µs", Factor: 1e-6},
		Unit{Tag: "ns", Label: "ns", Factor: 1e-9},
	),
	Frequency: mustTable(
		Unit{Tag: "Hz", Label: "Hz", Factor: 1},
		Unit{Tag: "kHz", Label: "kHz", Factor: 1e3},
		Unit{Tag: "MHz", Label: "MHz", Factor: 1e6},
	),
	Power: mustTable(
		Unit{Tag: "mW", Label: "mW", Factor: 1e-3},
		Unit{Tag: "W", Label: "W", Factor: 1},
	),
}

// Kinds returns all known kinds in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("quantity: unknown kind %q", name)
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Table returns the unit table of k, or nil for an invalid kind.
func (k Kind) Table() *Table {
	return tables[k]
}

// Format renders a base-unit value using the best unit of k's table.
func (k Kind) Format(base float64) string {
	t := k.Table()
	if t == nil {
		return formatNumber(Round(base, 3))
	}
	return t.Format(base)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("quantity: cannot marshal invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
