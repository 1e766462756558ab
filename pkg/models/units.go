package models

import (
	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/rangeeval"
)

// UnitInfo is one entry of a unit table
type UnitInfo struct {
	Tag    string  `json:"tag" example:"mA" doc:"Unit tag used in requests"`
	Label  string  `json:"label" example:"mA" doc:"Display label"`
	Factor float64 `json:"factor" example:"0.001" doc:"Multiplier to the base unit"`
}

// KindInfo describes a quantity kind and its units
type KindInfo struct {
	Kind  string     `json:"kind" example:"current" doc:"Quantity kind"`
	Base  string     `json:"base" example:"A" doc:"Base unit tag"`
	Units []UnitInfo `json:"units" doc:"Units ordered by factor"`
}

// ListUnitsResponse lists all unit tables
type ListUnitsResponse struct {
	Body struct {
		Kinds []KindInfo `json:"kinds" doc:"Known quantity kinds"`
	}
}

// ConvertUnitRequest changes the unit of a quantity
type ConvertUnitRequest struct {
	Body struct {
		Quantity quantity.Quantity `json:"quantity" required:"true" doc:"Quantity to convert"`
		Unit     string            `json:"unit" required:"true" example:"mA" doc:"Target unit tag"`
	}
}

// ConvertUnitResponseBody is the converted quantity
type ConvertUnitResponseBody struct {
	Quantity quantity.Quantity `json:"quantity" doc:"Quantity in the target unit"`
	Base     float64           `json:"base" doc:"Magnitude in the base unit"`
	Display  string            `json:"display" example:"53.333 mA" doc:"Formatted with the best unit"`
}

// ConvertUnitResponse wraps ConvertUnitResponseBody
type ConvertUnitResponse struct {
	Body ConvertUnitResponseBody
}

// FormatValueRequest formats a base unit magnitude
type FormatValueRequest struct {
	Body struct {
		Kind  string  `json:"kind" required:"true" example:"time" doc:"Quantity kind"`
		Value float64 `json:"value" example:"0.0000106667" doc:"Magnitude in the base unit"`
	}
}

// FormatValueResponseBody is the chosen display unit and text
type FormatValueResponseBody struct {
	Unit    string  `json:"unit" example:"us" doc:"Chosen unit tag"`
	Value   float64 `json:"value" example:"10.667" doc:"Rounded magnitude in the chosen unit"`
	Display string  `json:"display" example:"10.667 µs" doc:"Formatted value"`
}

// FormatValueResponse wraps FormatValueResponseBody
type FormatValueResponse struct {
	Body FormatValueResponseBody
}

// AssessRangeRequest positions a value within a range
type AssessRangeRequest struct {
	Body struct {
		Value float64 `json:"value" doc:"Value to assess"`
		Min   float64 `json:"min" doc:"Lower bound"`
		Max   float64 `json:"max" doc:"Upper bound"`
		Log   bool    `json:"log,omitempty" doc:"Use a logarithmic scale"`
	}
}

// AssessRangeResponse returns the assessment
type AssessRangeResponse struct {
	Body rangeeval.Assessment
}
