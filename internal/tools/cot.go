package tools

import (
	"fmt"

	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/sweep"
)

// CotKey is the registry key of the constant on-time tool.
const CotKey = "cot"

// Output voltages below this multiple of the input voltage are left out of
// the sweeps.
const minBoostRatio = 1.1

// Cot explores a constant on-time boost converter over ranges of input and
// output voltage.
type Cot struct {
	Inductance     quantity.Quantity `json:"inductance"`
	PeakCurrent    quantity.Quantity `json:"peakCurrent"`
	IdlePercentage float64           `json:"idlePercentage"`
	In             quantity.Quantity `json:"in"`
	InMin          quantity.Quantity `json:"inMin"`
	InMax          quantity.Quantity `json:"inMax"`
	InSteps        int               `json:"inSteps"`
	Out            quantity.Quantity `json:"out"`
	OutMin         quantity.Quantity `json:"outMin"`
	OutMax         quantity.Quantity `json:"outMax"`
}

// NewCot returns the default constant on-time state.
func NewCot() *Cot {
	return &Cot{
		Inductance:     quantity.Must(quantity.Inductance, 1, "mH"),
		PeakCurrent:    quantity.Must(quantity.Current, 10, "mA"),
		IdlePercentage: 10,
		In:             quantity.Must(quantity.Voltage, 5, "V"),
		InMin:          quantity.Must(quantity.Voltage, 5, "V"),
		InMax:          quantity.Must(quantity.Voltage, 12, "V"),
		InSteps:        5,
		Out:            quantity.Must(quantity.Voltage, 12, "V"),
		OutMin:         quantity.Must(quantity.Voltage, 5, "V"),
		OutMax:         quantity.Must(quantity.Voltage, 20, "V"),
	}
}

// Validate checks the inputs and limits InSteps to MaxSeries.
func (c *Cot) Validate() error {
	checks := []error{
		requirePositive("inductance", c.Inductance, quantity.Inductance),
		requirePositive("peakCurrent", c.PeakCurrent, quantity.Current),
		requireIdle("idlePercentage", c.IdlePercentage),
		requirePositive("in", c.In, quantity.Voltage),
		requirePositive("inMin", c.InMin, quantity.Voltage),
		requirePositive("inMax", c.InMax, quantity.Voltage),
		requirePositive("out", c.Out, quantity.Voltage),
		requireKind("outMin", c.OutMin, quantity.Voltage),
		requireKind("outMax", c.OutMax, quantity.Voltage),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if c.InSteps < 1 || c.InSteps > MaxSeries {
		return &InputError{Field: "inSteps", Reason: fmt.Sprintf("must be between 1 and %d", MaxSeries)}
	}
	if c.Out.SI() <= c.In.SI() {
		return &InputError{Field: "out", Reason: "must exceed the input voltage"}
	}
	return nil
}

// CotPoint is the operating envelope at one input/output voltage pair.
type CotPoint struct {
	ChargeTime            float64
	DischargeTime         float64
	MaxSwitchingFrequency float64
	MaxCurrent            float64
	MaxPower              float64
}

func (c *Cot) chargeTime(vin float64) float64 {
	return c.Inductance.SI() * c.PeakCurrent.SI() / vin
}

func (c *Cot) dischargeTime(vin, vout float64) float64 {
	return c.Inductance.SI() * c.PeakCurrent.SI() / (vout - vin)
}

// At computes the operating envelope for vin and vout given in volts.
func (c *Cot) At(vin, vout float64) CotPoint {
	idle := c.IdlePercentage / 100
	p := CotPoint{
		ChargeTime:    c.chargeTime(vin),
		DischargeTime: c.dischargeTime(vin, vout),
	}
	minCycleTime := (p.ChargeTime + p.DischargeTime) / (1 - idle)
	p.MaxSwitchingFrequency = 1 / minCycleTime
	p.MaxCurrent = c.PeakCurrent.SI() * p.DischargeTime / (2 * minCycleTime)
	p.MaxPower = p.MaxCurrent * vout
	return p
}

// Calculate reports the operating envelope at In and Out.
func (c *Cot) Calculate() (*Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p := c.At(c.In.SI(), c.Out.SI())

	var b reportBuilder
	b.quantity("chargeTime", "Charge Time", quantity.Time, p.ChargeTime, nil)
	b.quantity("dischargeTime", "Discharge Time", quantity.Time, p.DischargeTime, nil)
	b.quantity("maxSwitchingFrequency", "Max Switching Frequency", quantity.Frequency, p.MaxSwitchingFrequency, nil)
	b.quantity("maxOutputCurrent", "Max Output Current", quantity.Current, p.MaxCurrent, nil)
	b.quantity("maxOutputPower", "Max Output Power", quantity.Power, p.MaxPower, nil)
	return b.report()
}

// Graphs sweeps the output voltage with one series per input voltage, and
// the charge time over the input voltage range.
func (c *Cot) Graphs(points int) []sweep.Graph {
	outs := sweep.Sample(c.OutMin.SI(), c.OutMax.SI(), points)
	ins := sweep.Sample(c.InMin.SI(), c.InMax.SI(), c.InSteps)

	boosting := func(vout, vin float64) bool { return vout >= vin*minBoostRatio }
	outputSweep := func(key, label string, kind quantity.Kind, pick func(CotPoint) float64) sweep.Graph {
		f := sweep.Defined(func(vout, vin float64) float64 { return pick(c.At(vin, vout)) })
		return sweep.Graph{
			Key:    key,
			Title:  label,
			X:      sweep.Axis{Label: "Output Voltage", Kind: quantity.Voltage},
			Y:      sweep.Axis{Label: label, Kind: kind},
			Legend: sweep.Axis{Label: "Input Voltages", Kind: quantity.Voltage},
			Table:  sweep.Evaluate(outs, ins, f, boosting),
		}
	}

	return []sweep.Graph{
		outputSweep("maxOutputCurrent", "Max Output Current", quantity.Current,
			func(p CotPoint) float64 { return p.MaxCurrent }),
		outputSweep("maxOutputPower", "Max Output Power", quantity.Power,
			func(p CotPoint) float64 { return p.MaxPower }),
		outputSweep("maxSwitchingFrequency", "Max Switching Frequency", quantity.Frequency,
			func(p CotPoint) float64 { return p.MaxSwitchingFrequency }),
		outputSweep("dischargeTime", "Discharge Time", quantity.Time,
			func(p CotPoint) float64 { return p.DischargeTime }),
		{
			Key:   "chargeTime",
			Title: "Charge Time",
			X:     sweep.Axis{Label: "Input Voltage", Kind: quantity.Voltage},
			Y:     sweep.Axis{Label: "Charge Time", Kind: quantity.Time},
			Table: sweep.Evaluate(
				sweep.Sample(c.InMin.SI(), c.InMax.SI(), points), nil,
				sweep.Single(func(vin float64) (float64, bool) { return c.chargeTime(vin), true }),
				nil),
		},
	}
}
