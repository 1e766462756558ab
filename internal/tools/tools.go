// Package tools contains the calculators served by the API. Each tool owns
// its input state, validates it, and turns it into readings and sweep graphs
// using the quantity, rangeeval and sweep packages.
package tools

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/rangeeval"
	"github.com/ruediste/diy-dc-converter/pkg/sweep"
)

// DefaultSweepPoints is the number of x samples per graph.
const DefaultSweepPoints = 200

// MaxSeries bounds the number of series a tool may plot in one graph.
const MaxSeries = 8

// ErrInvalidInput is returned by Validate for implausible tool state.
var ErrInvalidInput = errors.New("tools: invalid input")

// InputError names the offending field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("tools: invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Calculator is the state of one tool. Implementations are pointers to
// JSON-serialisable structs so they can be persisted and decoded in place.
type Calculator interface {
	Validate() error
	Calculate() (*Report, error)
}

// Plotter is implemented by calculators that produce sweep graphs.
type Plotter interface {
	Graphs(points int) []sweep.Graph
}

// Tool describes a registered calculator.
type Tool struct {
	Key   string
	Title string
	// New returns the tool's default state.
	New func() Calculator
}

// HasGraphs reports whether the tool's calculator is a Plotter.
func (t Tool) HasGraphs() bool {
	_, ok := t.New().(Plotter)
	return ok
}

// Registry is a fixed set of tools keyed by Tool.Key.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry. Duplicate keys are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Key == "" || t.New == nil {
			return nil, fmt.Errorf("tools: incomplete tool %q", t.Key)
		}
		if _, dup := r.tools[t.Key]; dup {
			return nil, fmt.Errorf("tools: duplicate tool %q", t.Key)
		}
		r.tools[t.Key] = t
	}
	return r, nil
}

// DefaultRegistry returns the registry with all built-in tools.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Tool{Key: FirstConverterKey, Title: "First Converter", New: func() Calculator { return NewFirstConverter() }},
		Tool{Key: CotKey, Title: "Constant On-Time Converter", New: func() Calculator { return NewCot() }},
		Tool{Key: AdcCalculatorKey, Title: "ADC Calculator", New: func() Calculator { return NewAdcCalculator() }},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the tool registered under key.
func (r *Registry) Lookup(key string) (Tool, bool) {
	t, ok := r.tools[key]
	return t, ok
}

// List returns all tools ordered by key.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Reading is one computed output of a tool.
type Reading struct {
	Key       string            `json:"key"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Kind      quantity.Kind     `json:"kind,omitempty"`
	Display   string            `json:"display"`
	Indicator *rangeeval.Report `json:"indicator,omitempty"`
}

// Report is the ordered list of readings of one calculation.
type Report struct {
	Readings []Reading `json:"readings"`
}

// Reading returns the reading with the given key.
func (r *Report) Reading(key string) (Reading, bool) {
	for _, rd := range r.Readings {
		if rd.Key == key {
			return rd, true
		}
	}
	return Reading{}, false
}

// reportBuilder appends readings until the first error, after which all
// further calls are no-ops.
type reportBuilder struct {
	rep Report
	err error
}

// quantity appends a base-unit value displayed with kind's best unit.
func (b *reportBuilder) quantity(key, name string, kind quantity.Kind, v float64, ind *rangeeval.Indicator) {
	b.add(Reading{Key: key, Name: name, Value: v, Kind: kind, Display: kind.Format(v)}, ind)
}

// number appends a unitless value rounded to digits decimals.
func (b *reportBuilder) number(key, name string, v float64, digits int, suffix string, ind *rangeeval.Indicator) {
	b.add(Reading{Key: key, Name: name, Value: v, Display: quantity.FormatNumber(v, digits) + suffix}, ind)
}

func (b *reportBuilder) add(rd Reading, ind *rangeeval.Indicator) {
	if b.err != nil {
		return
	}
	if ind != nil {
		rep, err := ind.Evaluate(rd.Value)
		if err != nil {
			b.err = fmt.Errorf("failed to evaluate %s: %w", rd.Key, err)
			return
		}
		rd.Indicator = &rep
	}
	b.rep.Readings = append(b.rep.Readings, rd)
}

func (b *reportBuilder) report() (*Report, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &b.rep, nil
}

// requireKind checks that q is a valid quantity of the expected kind.
func requireKind(field string, q quantity.Quantity, kind quantity.Kind) error {
	if q.Kind != kind {
		return &InputError{Field: field, Reason: fmt.Sprintf("expected %s, got %s", kind, q.Kind)}
	}
	if err := q.Validate(); err != nil {
		return &InputError{Field: field, Reason: err.Error()}
	}
	return nil
}

// requirePositive checks requireKind and a strictly positive magnitude.
func requirePositive(field string, q quantity.Quantity, kind quantity.Kind) error {
	if err := requireKind(field, q, kind); err != nil {
		return err
	}
	if !(q.Value > 0) {
		return &InputError{Field: field, Reason: "must be positive"}
	}
	return nil
}

func requireIdle(field string, pct float64) error {
	if !(pct >= 0 && pct < 100) {
		return &InputError{Field: field, Reason: "must be in [0, 100)"}
	}
	return nil
}
