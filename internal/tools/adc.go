package tools

import (
	"math"
	"strconv"

	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/rangeeval"
)

// AdcCalculatorKey is the registry key of the ADC divider tool.
const AdcCalculatorKey = "adcCalculator"

// successive approximation overhead on top of the resolution
const conversionOverheadCycles = 3

// AdcCalculator checks whether a resistive divider in front of a sampling
// ADC settles within the sampling window of one switching period.
type AdcCalculator struct {
	SwitchingFrequency          quantity.Quantity `json:"switchingFrequency"`
	MaxMeasuredVoltage          quantity.Quantity `json:"maxMeasuredVoltage"`
	AdcReferenceVoltage         quantity.Quantity `json:"adcReferenceVoltage"`
	LowerResistor               quantity.Quantity `json:"lowerResistor"`
	AdcSamplingCycles           float64           `json:"adcSamplingCycles"`
	AdcFrequency                quantity.Quantity `json:"adcFrequency"`
	AdcResolution               int               `json:"adcResolution"`
	AdcCapacitance              quantity.Quantity `json:"adcCapacitance"`
	AdcSamplingSwitchResistance quantity.Quantity `json:"adcSamplingSwitchResistance"`
}

// NewAdcCalculator returns the default ADC divider state.
func NewAdcCalculator() *AdcCalculator {
	return &AdcCalculator{
		SwitchingFrequency:          quantity.Must(quantity.Frequency, 100, "kHz"),
		MaxMeasuredVoltage:          quantity.Must(quantity.Voltage, 20, "V"),
		AdcReferenceVoltage:         quantity.Must(quantity.Voltage, 3.3, "V"),
		LowerResistor:               quantity.Must(quantity.Resistance, 20, "kOhm"),
		AdcSamplingCycles:           56,
		AdcFrequency:                quantity.Must(quantity.Frequency, 21, "MHz"),
		AdcResolution:               12,
		AdcCapacitance:              quantity.Must(quantity.Capacitance, 7, "pF"),
		AdcSamplingSwitchResistance: quantity.Must(quantity.Resistance, 6, "kOhm"),
	}
}

// Validate checks the inputs. The ADC clock must exceed twice the switching
// frequency.
func (c *AdcCalculator) Validate() error {
	checks := []error{
		requirePositive("switchingFrequency", c.SwitchingFrequency, quantity.Frequency),
		requirePositive("maxMeasuredVoltage", c.MaxMeasuredVoltage, quantity.Voltage),
		requirePositive("adcReferenceVoltage", c.AdcReferenceVoltage, quantity.Voltage),
		requirePositive("lowerResistor", c.LowerResistor, quantity.Resistance),
		requirePositive("adcFrequency", c.AdcFrequency, quantity.Frequency),
		requirePositive("adcCapacitance", c.AdcCapacitance, quantity.Capacitance),
		requireKind("adcSamplingSwitchResistance", c.AdcSamplingSwitchResistance, quantity.Resistance),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	switch {
	case !(c.AdcSamplingCycles > 0):
		return &InputError{Field: "adcSamplingCycles", Reason: "must be positive"}
	case c.AdcResolution < 1:
		return &InputError{Field: "adcResolution", Reason: "must be at least 1"}
	case c.AdcSamplingSwitchResistance.SI() < 0:
		return &InputError{Field: "adcSamplingSwitchResistance", Reason: "must not be negative"}
	case c.MaxMeasuredVoltage.SI() <= c.AdcReferenceVoltage.SI():
		return &InputError{Field: "maxMeasuredVoltage", Reason: "must exceed the reference voltage"}
	case c.AdcFrequency.SI() <= 2*c.SwitchingFrequency.SI():
		return &InputError{Field: "adcFrequency", Reason: "must exceed twice the switching frequency"}
	}
	return nil
}

// AdcResult holds the divider and settling figures in base units.
type AdcResult struct {
	CyclesPerPeriod      float64
	CyclesPerMeasurement float64
	UpperResistor        float64
	OutputImpedance      float64
	DividerPower         float64
	ErrorFraction        float64
	PrecisionBits        float64
	ErrorVoltage         float64
}

// Design computes the divider values without validating the inputs. The
// error fraction is the remaining exponential settling error after the
// sampling window and is not clamped.
func (c *AdcCalculator) Design() AdcResult {
	vmax := c.MaxMeasuredVoltage.SI()
	vref := c.AdcReferenceVoltage.SI()
	lower := c.LowerResistor.SI()
	fadc := c.AdcFrequency.SI()

	var r AdcResult
	r.CyclesPerPeriod = fadc / c.SwitchingFrequency.SI()
	r.CyclesPerMeasurement = c.AdcSamplingCycles + float64(c.AdcResolution+conversionOverheadCycles)
	r.UpperResistor = (vmax - vref) * lower / vref
	r.OutputImpedance = 1 / (1/r.UpperResistor + 1/lower)
	r.DividerPower = vmax * vmax / (lower + r.UpperResistor)
	tau := fadc * c.AdcCapacitance.SI() * (r.OutputImpedance + c.AdcSamplingSwitchResistance.SI())
	settle := c.AdcSamplingCycles / tau
	r.ErrorFraction = math.Exp(-settle)
	// -log2(exp(-x)), finite even when the fraction underflows to 0
	r.PrecisionBits = settle * math.Log2E
	r.ErrorVoltage = vref * r.ErrorFraction
	return r
}

// Calculate reports the divider, settling and power figures.
func (c *AdcCalculator) Calculate() (*Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	d := c.Design()

	cycles := rangeeval.Indicator{
		Min:        0,
		Max:        d.CyclesPerPeriod - 2,
		MaxWarning: "Leave at least some ADC cycles for triggering delays",
	}
	errorVoltage := rangeeval.Indicator{
		Min:        0,
		Max:        c.AdcReferenceVoltage.SI() / math.Pow(2, float64(c.AdcResolution)),
		MaxWarning: "Try to use smaller resistors",
	}
	power := rangeeval.Indicator{
		Min:        0,
		Max:        50e-3,
		MaxWarning: "You are losing quite some power in the resistors. Try using larger ones.",
	}

	var b reportBuilder
	b.number("cyclesPerMeasurement", "ADC Cycles per Measurement", d.CyclesPerMeasurement, 0, "", &cycles)
	b.number("cyclesPerPeriod", "ADC Cycles per Switching Period", d.CyclesPerPeriod, 0, "", nil)
	b.quantity("upperResistor", "Upper Resistor", quantity.Resistance, d.UpperResistor, nil)
	b.quantity("outputImpedance", "Output Impedance", quantity.Resistance, d.OutputImpedance, nil)
	b.add(Reading{
		Key:     "errorFraction",
		Name:    "Error Fraction",
		Value:   d.ErrorFraction,
		Display: strconv.FormatFloat(d.ErrorFraction, 'g', 4, 64),
	}, nil)
	b.quantity("errorVoltage", "Error Voltage", quantity.Voltage, d.ErrorVoltage, &errorVoltage)
	b.number("precisionBits", "Precision", d.PrecisionBits, 0, " bit", nil)
	b.quantity("dividerPower", "Power", quantity.Power, d.DividerPower, &power)
	return b.report()
}
