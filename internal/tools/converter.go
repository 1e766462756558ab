package tools

import (
	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/rangeeval"
)

// FirstConverterKey is the registry key of the first converter tool.
const FirstConverterKey = "firstConverter"

// Boost converter driven by a bipolar transistor from a 3.3 V pin.
const (
	driveVoltage    = 3.3
	baseEmitterDrop = 0.6
)

var (
	inductorTimeRange = rangeeval.Indicator{
		Min: 1e-6, Max: 1e-3, Log: true,
		MinWarning: "Try to use a larger inductor",
		MaxWarning: "Try to use a smaller inductor",
	}
	switchingFrequencyRange = rangeeval.Indicator{
		Min: 5e3, Max: 200e3, Log: true,
		MaxWarning: "The frequency is rather high",
	}
	peakCurrentRange = rangeeval.Indicator{
		Min: 1e-3, Max: 1,
		MaxWarning: "Make sure your inductor and your transistor can handle this current",
	}
	outputPowerRange = rangeeval.Indicator{
		Min: 1e-3, Max: 250e-3,
		MaxWarning: "Typical small resistors are rated for 1/8W or 1/4W. Make sure to use an adequate resistor",
	}
)

// FirstConverter sizes a discontinuous-mode boost converter for a fixed
// resistive load.
type FirstConverter struct {
	InputVoltage   quantity.Quantity `json:"inputVoltage"`
	OutputVoltage  quantity.Quantity `json:"outputVoltage"`
	Inductance     quantity.Quantity `json:"inductance"`
	IdlePercentage float64           `json:"idlePercentage"`
	LoadCurrent    quantity.Quantity `json:"loadCurrent"`
	InputRipple    quantity.Quantity `json:"inputRipple"`
	OutputRipple   quantity.Quantity `json:"outputRipple"`
	CurrentGain    float64           `json:"currentGain"`
}

// NewFirstConverter returns the default first converter state.
func NewFirstConverter() *FirstConverter {
	return &FirstConverter{
		InputVoltage:   quantity.Must(quantity.Voltage, 5, "V"),
		OutputVoltage:  quantity.Must(quantity.Voltage, 12, "V"),
		Inductance:     quantity.Must(quantity.Inductance, 1, "mH"),
		IdlePercentage: 10,
		LoadCurrent:    quantity.Must(quantity.Current, 10, "mA"),
		InputRipple:    quantity.Must(quantity.Voltage, 50, "mV"),
		OutputRipple:   quantity.Must(quantity.Voltage, 50, "mV"),
		CurrentGain:    50,
	}
}

// Validate rejects missing or implausible inputs, including an output
// voltage that does not exceed the input voltage.
func (c *FirstConverter) Validate() error {
	checks := []error{
		requirePositive("inputVoltage", c.InputVoltage, quantity.Voltage),
		requirePositive("outputVoltage", c.OutputVoltage, quantity.Voltage),
		requirePositive("inductance", c.Inductance, quantity.Inductance),
		requirePositive("loadCurrent", c.LoadCurrent, quantity.Current),
		requirePositive("inputRipple", c.InputRipple, quantity.Voltage),
		requirePositive("outputRipple", c.OutputRipple, quantity.Voltage),
		requireIdle("idlePercentage", c.IdlePercentage),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if !(c.CurrentGain > 0) {
		return &InputError{Field: "currentGain", Reason: "must be positive"}
	}
	if c.OutputVoltage.SI() <= c.InputVoltage.SI() {
		return &InputError{Field: "outputVoltage", Reason: "must exceed the input voltage"}
	}
	return nil
}

// FirstConverterResult holds the computed design values in base units.
type FirstConverterResult struct {
	K                  float64
	PeakCurrent        float64
	ChargeTime         float64
	DischargeTime      float64
	CycleTime          float64
	SwitchingFrequency float64
	LoadResistor       float64
	OutputPower        float64
	OutputCapacitance  float64
	InputCapacitance   float64
	Duty               float64 // percent
	BaseCurrent        float64
	BaseResistor       float64
}

// Design computes the converter values without validating the inputs.
func (c *FirstConverter) Design() FirstConverterResult {
	vin := c.InputVoltage.SI()
	vout := c.OutputVoltage.SI()
	l := c.Inductance.SI()
	load := c.LoadCurrent.SI()
	idle := c.IdlePercentage / 100

	var r FirstConverterResult
	r.K = (vout - vin) / vin
	r.PeakCurrent = 2 * (r.K + 1) * load / (1 - idle)
	r.ChargeTime = l * r.PeakCurrent / vin
	r.DischargeTime = l * r.PeakCurrent / (vout - vin)
	r.CycleTime = (r.ChargeTime + r.DischargeTime) / (1 - idle)
	r.SwitchingFrequency = 1 / r.CycleTime
	r.LoadResistor = vout / load
	r.OutputPower = vout * load
	r.OutputCapacitance = r.PeakCurrent * r.DischargeTime / (2 * c.OutputRipple.SI())
	r.InputCapacitance = r.PeakCurrent * r.ChargeTime / (2 * c.InputRipple.SI())
	r.Duty = r.ChargeTime / r.CycleTime * 100
	r.BaseCurrent = r.PeakCurrent / c.CurrentGain
	r.BaseResistor = (driveVoltage - baseEmitterDrop) / r.BaseCurrent
	return r
}

// Calculate validates the state and reports the design values.
func (c *FirstConverter) Calculate() (*Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	d := c.Design()

	var b reportBuilder
	b.number("k", "Voltage Ratio k", d.K, 3, "", nil)
	b.quantity("chargeTime", "Charge Time", quantity.Time, d.ChargeTime, &inductorTimeRange)
	b.quantity("dischargeTime", "Discharge Time", quantity.Time, d.DischargeTime, &inductorTimeRange)
	b.quantity("cycleTime", "Cycle Time", quantity.Time, d.CycleTime, nil)
	b.quantity("switchingFrequency", "Switching Frequency", quantity.Frequency, d.SwitchingFrequency, &switchingFrequencyRange)
	b.quantity("peakCurrent", "Peak Inductor Current", quantity.Current, d.PeakCurrent, &peakCurrentRange)
	b.quantity("loadResistor", "Load Resistor", quantity.Resistance, d.LoadResistor, nil)
	b.quantity("outputPower", "Output Power", quantity.Power, d.OutputPower, &outputPowerRange)
	b.number("duty", "Duty", d.Duty, 2, "%", nil)
	b.quantity("baseCurrent", "Base Current", quantity.Current, d.BaseCurrent, nil)
	b.quantity("baseResistor", "Base Resistor", quantity.Resistance, d.BaseResistor, nil)
	b.quantity("outputCapacitance", "Output Capacitor", quantity.Capacitance, d.OutputCapacitance, nil)
	b.quantity("inputCapacitance", "Input Capacitor", quantity.Capacitance, d.InputCapacitance, nil)
	return b.report()
}
