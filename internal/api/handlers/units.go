package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ruediste/diy-dc-converter/pkg/models"
	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/rangeeval"
)

// UnitsHandler exposes the unit tables, the formatter and the range evaluator
type UnitsHandler struct{}

// NewUnitsHandler creates a new units handler
func NewUnitsHandler() *UnitsHandler {
	return &UnitsHandler{}
}

// ListUnits returns every kind with its unit table
func (h *UnitsHandler) ListUnits(ctx context.Context, _ *struct{}) (*models.ListUnitsResponse, error) {
	resp := &models.ListUnitsResponse{}
	for _, k := range quantity.Kinds() {
		t := k.Table()
		info := models.KindInfo{Kind: k.String(), Base: t.Base().Tag}
		for _, u := range t.Units() {
			info.Units = append(info.Units, models.UnitInfo{Tag: u.Tag, Label: u.Label, Factor: u.Factor})
		}
		resp.Body.Kinds = append(resp.Body.Kinds, info)
	}
	return resp, nil
}

// ConvertUnit re-expresses a quantity in another unit of its kind
func (h *UnitsHandler) ConvertUnit(ctx context.Context, req *models.ConvertUnitRequest) (*models.ConvertUnitResponse, error) {
	q := req.Body.Quantity
	t := q.Kind.Table()
	if t == nil {
		return nil, huma.Error400BadRequest("Unknown quantity kind")
	}

	converted, err := quantity.ChangeUnit(q, req.Body.Unit, t)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error(), err)
	}
	base, err := converted.Base()
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error(), err)
	}

	return &models.ConvertUnitResponse{
		Body: models.ConvertUnitResponseBody{
			Quantity: converted,
			Base:     base,
			Display:  t.Format(base),
		},
	}, nil
}

// FormatValue picks the display unit for a base unit magnitude
func (h *UnitsHandler) FormatValue(ctx context.Context, req *models.FormatValueRequest) (*models.FormatValueResponse, error) {
	kind, err := quantity.ParseKind(req.Body.Kind)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error(), err)
	}

	t := kind.Table()
	u := t.Choose(req.Body.Value)
	return &models.FormatValueResponse{
		Body: models.FormatValueResponseBody{
			Unit:    u.Tag,
			Value:   quantity.Round(u.Scale(req.Body.Value), 3),
			Display: t.Format(req.Body.Value),
		},
	}, nil
}

// AssessRange positions a value between two bounds
func (h *UnitsHandler) AssessRange(ctx context.Context, req *models.AssessRangeRequest) (*models.AssessRangeResponse, error) {
	a, err := rangeeval.Assess(req.Body.Value, req.Body.Min, req.Body.Max, req.Body.Log)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error(), err)
	}
	return &models.AssessRangeResponse{Body: a}, nil
}
