package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/ruediste/diy-dc-converter/internal/processing"
	"github.com/ruediste/diy-dc-converter/internal/render"
	"github.com/ruediste/diy-dc-converter/internal/repository"
	"github.com/ruediste/diy-dc-converter/internal/tools"
	"github.com/ruediste/diy-dc-converter/pkg/models"
	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/rangeeval"
	"github.com/ruediste/diy-dc-converter/pkg/sweep"
)

// ToolHandler handles tool state, calculation and chart requests
type ToolHandler struct {
	svc processing.ProcessingService
}

// NewToolHandler creates a new tool handler
func NewToolHandler(svc processing.ProcessingService) *ToolHandler {
	return &ToolHandler{svc: svc}
}

// ListTools returns the registered tools
func (h *ToolHandler) ListTools(ctx context.Context, _ *struct{}) (*models.ListToolsResponse, error) {
	resp := &models.ListToolsResponse{}
	for _, t := range h.svc.Tools() {
		resp.Body.Tools = append(resp.Body.Tools, models.ToolInfo{
			Key:       t.Key,
			Title:     t.Title,
			HasGraphs: t.HasGraphs(),
		})
	}
	return resp, nil
}

// GetState returns the stored state of a tool, or its defaults
func (h *ToolHandler) GetState(ctx context.Context, req *models.ToolRequest) (*models.StateResponse, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	v, err := h.svc.State(ctx, req.Session, req.Tool)
	if err != nil {
		return nil, toHTTPError("Failed to load state", err)
	}
	return stateResponse(req.Tool, v), nil
}

// PutState validates and stores new tool state
func (h *ToolHandler) PutState(ctx context.Context, req *models.PutStateRequest) (*models.StateResponse, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid state", err)
	}

	v, err := h.svc.SaveState(ctx, req.Session, req.Tool, data)
	if err != nil {
		return nil, toHTTPError("Failed to save state", err)
	}
	log.Info().Str("session_id", req.Session).Str("tool", req.Tool).Msg("State saved")
	return stateResponse(req.Tool, v), nil
}

// ResetState restores the tool defaults
func (h *ToolHandler) ResetState(ctx context.Context, req *models.ToolRequest) (*models.StateResponse, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	v, err := h.svc.ResetState(ctx, req.Session, req.Tool)
	if err != nil {
		return nil, toHTTPError("Failed to reset state", err)
	}
	return stateResponse(req.Tool, v), nil
}

// DeleteState removes the stored state of a tool
func (h *ToolHandler) DeleteState(ctx context.Context, req *models.ToolRequest) (*struct{}, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	if err := h.svc.DeleteState(ctx, req.Session, req.Tool); err != nil {
		return nil, toHTTPError("Failed to delete state", err)
	}
	return nil, nil
}

// GetReport calculates the readings of a tool
func (h *ToolHandler) GetReport(ctx context.Context, req *models.ToolRequest) (*models.ReportResponse, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	rep, reset, err := h.svc.Report(ctx, req.Session, req.Tool)
	if err != nil {
		return nil, toHTTPError("Failed to calculate", err)
	}

	body := models.ReportResponseBody{Tool: req.Tool, Reset: reset, Readings: []models.Reading{}}
	for _, rd := range rep.Readings {
		body.Readings = append(body.Readings, toReading(rd))
	}
	return &models.ReportResponse{Body: body}, nil
}

// GetGraphs evaluates all sweeps of a tool
func (h *ToolHandler) GetGraphs(ctx context.Context, req *models.ToolRequest) (*models.GraphsResponse, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	graphs, reset, err := h.svc.Graphs(ctx, req.Session, req.Tool)
	if err != nil {
		return nil, toHTTPError("Failed to evaluate graphs", err)
	}

	body := models.GraphsResponseBody{Tool: req.Tool, Reset: reset, Graphs: []models.Graph{}}
	for _, g := range graphs {
		body.Graphs = append(body.Graphs, toGraph(g))
	}
	return &models.GraphsResponse{Body: body}, nil
}

// GetChart renders one graph as PNG or HTML
func (h *ToolHandler) GetChart(ctx context.Context, req *models.ChartRequest) (*models.ChartResponse, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	format := render.Format(req.Format)
	data, reset, err := h.svc.RenderChart(ctx, req.Session, req.Tool, req.Graph, format)
	if err != nil {
		return nil, toHTTPError("Failed to render chart", err)
	}
	return &models.ChartResponse{ContentType: format.ContentType(), Reset: reset, Body: data}, nil
}

// ExportChart renders a chart into object storage and returns a download URL
func (h *ToolHandler) ExportChart(ctx context.Context, req *models.ChartRequest) (*models.ExportResponse, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	exp, err := h.svc.ExportChart(ctx, req.Session, req.Tool, req.Graph, render.Format(req.Format))
	if err != nil {
		return nil, toHTTPError("Failed to export chart", err)
	}
	return &models.ExportResponse{Body: toExport(exp)}, nil
}

// ListExports returns the charts exported in a session
func (h *ToolHandler) ListExports(ctx context.Context, req *models.ListExportsRequest) (*models.ListExportsResponse, error) {
	if err := validateSession(req.Session); err != nil {
		return nil, err
	}

	exps, err := h.svc.ListExports(ctx, req.Session)
	if err != nil {
		return nil, toHTTPError("Failed to list exports", err)
	}

	resp := &models.ListExportsResponse{}
	resp.Body.Exports = []models.ExportResponseBody{}
	for _, exp := range exps {
		resp.Body.Exports = append(resp.Body.Exports, toExport(exp))
	}
	return resp, nil
}

// GetExport returns one export with a fresh download URL
func (h *ToolHandler) GetExport(ctx context.Context, req *models.GetExportRequest) (*models.ExportResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid export ID", err)
	}

	exp, err := h.svc.GetExport(ctx, id)
	if err != nil {
		return nil, toHTTPError("Failed to get export", err)
	}
	return &models.ExportResponse{Body: toExport(exp)}, nil
}

// GetExportContent streams a stored chart through the API
func (h *ToolHandler) GetExportContent(ctx context.Context, req *models.GetExportRequest) (*models.ChartResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid export ID", err)
	}

	rec, data, err := h.svc.ExportContent(ctx, id)
	if err != nil {
		return nil, toHTTPError("Failed to download export", err)
	}
	return &models.ChartResponse{ContentType: render.Format(rec.Format).ContentType(), Body: data}, nil
}

func validateSession(session string) error {
	if _, err := uuid.Parse(session); err != nil {
		return huma.Error400BadRequest("Invalid session ID", err)
	}
	return nil
}

// toHTTPError maps service errors to status codes
func toHTTPError(msg string, err error) error {
	switch {
	case errors.Is(err, processing.ErrUnknownTool),
		errors.Is(err, processing.ErrUnknownGraph),
		errors.Is(err, processing.ErrNoGraphs),
		errors.Is(err, repository.ErrNotFound):
		return huma.Error404NotFound(err.Error(), err)
	case errors.Is(err, tools.ErrInvalidInput),
		errors.Is(err, quantity.ErrUnknownUnit),
		errors.Is(err, rangeeval.ErrInvalidRange),
		errors.Is(err, render.ErrUnknownFormat):
		return huma.Error400BadRequest(err.Error(), err)
	case errors.Is(err, processing.ErrStorageDisabled):
		return huma.Error503ServiceUnavailable(err.Error(), err)
	}

	log.Error().Err(err).Msg(msg)
	return huma.Error500InternalServerError(msg, err)
}

func stateResponse(tool string, v tools.Calculator) *models.StateResponse {
	return &models.StateResponse{Body: models.StateResponseBody{Tool: tool, State: v}}
}

func toReading(rd tools.Reading) models.Reading {
	out := models.Reading{
		Key:     rd.Key,
		Name:    rd.Name,
		Value:   rd.Value,
		Display: rd.Display,
	}
	if rd.Kind.Valid() {
		out.Kind = rd.Kind.String()
	}
	if ind := rd.Indicator; ind != nil {
		out.Indicator = &models.Indicator{
			Min:      ind.Min,
			Max:      ind.Max,
			Log:      ind.Log,
			Position: ind.Position,
			BelowMin: ind.BelowMin,
			AboveMax: ind.AboveMax,
			Percent:  ind.Percent,
			MinLabel: rd.Kind.Format(ind.Min),
			MaxLabel: rd.Kind.Format(ind.Max),
			Warning:  ind.Warning,
		}
	}
	return out
}

func toAxis(a sweep.Axis, max float64) models.Axis {
	out := models.Axis{Title: a.Title(max), Factor: 1}
	if u, ok := a.Unit(max); ok {
		out.Unit = u.Label
		out.Factor = u.Factor
	}
	return out
}

func toGraph(g sweep.Graph) models.Graph {
	out := models.Graph{
		Key:   g.Key,
		Title: g.Title,
		X:     toAxis(g.X, g.Table.MaxX()),
		Y:     toAxis(g.Y, g.Table.MaxY()),
	}
	if g.Table.Series != nil {
		out.Legend = g.Legend.Label
	}

	for i, name := range g.SeriesNames() {
		s := models.Series{Name: name, Segments: [][]models.Point{}}
		for _, seg := range g.Table.Segments(i) {
			pts := make([]models.Point, len(seg))
			for j, p := range seg {
				pts[j] = models.Point{X: p.X, Y: p.Y}
			}
			s.Segments = append(s.Segments, pts)
		}
		out.Series = append(out.Series, s)
	}
	return out
}

func toExport(exp *processing.Export) models.ExportResponseBody {
	return models.ExportResponseBody{
		Export:      *exp.Record,
		DownloadURL: exp.DownloadURL,
		Reset:       exp.Reset,
	}
}
