package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/ruediste/diy-dc-converter/internal/processing"
	"github.com/ruediste/diy-dc-converter/internal/render"
	"github.com/ruediste/diy-dc-converter/internal/repository"
	"github.com/ruediste/diy-dc-converter/internal/tools"
	"github.com/ruediste/diy-dc-converter/pkg/models"
	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/rangeeval"
	"github.com/ruediste/diy-dc-converter/pkg/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const session = "0c9b1d2e-7f3a-4b5c-8d6e-9fa0b1c2d3e4"

// MockProcessingService implements processing.ProcessingService for testing
type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) Tools() []tools.Tool {
	return m.Called().Get(0).([]tools.Tool)
}

func (m *MockProcessingService) State(ctx context.Context, sessionID, tool string) (tools.Calculator, error) {
	args := m.Called(ctx, sessionID, tool)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tools.Calculator), args.Error(1)
}

func (m *MockProcessingService) SaveState(ctx context.Context, sessionID, tool string, data []byte) (tools.Calculator, error) {
	args := m.Called(ctx, sessionID, tool, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tools.Calculator), args.Error(1)
}

func (m *MockProcessingService) ResetState(ctx context.Context, sessionID, tool string) (tools.Calculator, error) {
	args := m.Called(ctx, sessionID, tool)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tools.Calculator), args.Error(1)
}

func (m *MockProcessingService) Report(ctx context.Context, sessionID, tool string) (*tools.Report, bool, error) {
	args := m.Called(ctx, sessionID, tool)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*tools.Report), args.Bool(1), args.Error(2)
}

func (m *MockProcessingService) Graphs(ctx context.Context, sessionID, tool string) ([]sweep.Graph, bool, error) {
	args := m.Called(ctx, sessionID, tool)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]sweep.Graph), args.Bool(1), args.Error(2)
}

func (m *MockProcessingService) RenderChart(ctx context.Context, sessionID, tool, graph string, format render.Format) ([]byte, bool, error) {
	args := m.Called(ctx, sessionID, tool, graph, format)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockProcessingService) ExportChart(ctx context.Context, sessionID, tool, graph string, format render.Format) (*processing.Export, error) {
	args := m.Called(ctx, sessionID, tool, graph, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.Export), args.Error(1)
}

func (m *MockProcessingService) GetExport(ctx context.Context, id uuid.UUID) (*processing.Export, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processing.Export), args.Error(1)
}

func (m *MockProcessingService) DeleteState(ctx context.Context, sessionID, tool string) error {
	args := m.Called(ctx, sessionID, tool)
	return args.Error(0)
}

func (m *MockProcessingService) ExportContent(ctx context.Context, id uuid.UUID) (*models.ChartExport, []byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.ChartExport), args.Get(1).([]byte), args.Error(2)
}

func (m *MockProcessingService) ListExports(ctx context.Context, sessionID string) ([]*processing.Export, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]*processing.Export), args.Error(1)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

func TestGetReport(t *testing.T) {
	svc := &MockProcessingService{}
	svc.On("Report", mock.Anything, session, tools.FirstConverterKey).Return(&tools.Report{
		Readings: []tools.Reading{
			{
				Key:     "peakCurrent",
				Name:    "Peak Current",
				Value:   0.0533,
				Kind:    quantity.Current,
				Display: "53.3 mA",
				Indicator: &rangeeval.Report{
					Assessment: rangeeval.Assessment{Position: 0.5},
					Min:        1e-3,
					Max:        1,
					Percent:    50,
				},
			},
			{Key: "k", Name: "k", Value: 1.4, Display: "1.4"},
		},
	}, true, nil)

	h := NewToolHandler(svc)
	resp, err := h.GetReport(context.Background(), &models.ToolRequest{Session: session, Tool: tools.FirstConverterKey})

	require.NoError(t, err)
	assert.True(t, resp.Body.Reset)
	require.Len(t, resp.Body.Readings, 2)

	peak := resp.Body.Readings[0]
	assert.Equal(t, "current", peak.Kind)
	require.NotNil(t, peak.Indicator)
	assert.Equal(t, "1 mA", peak.Indicator.MinLabel)
	assert.Equal(t, "1 A", peak.Indicator.MaxLabel)
	assert.Equal(t, 50.0, peak.Indicator.Percent)

	assert.Empty(t, resp.Body.Readings[1].Kind)
	assert.Nil(t, resp.Body.Readings[1].Indicator)
	svc.AssertExpectations(t)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown tool", fmt.Errorf("%w: %q", processing.ErrUnknownTool, "x"), 404},
		{"unknown graph", processing.ErrUnknownGraph, 404},
		{"no graphs", processing.ErrNoGraphs, 404},
		{"missing export", repository.ErrNotFound, 404},
		{"invalid input", &tools.InputError{Field: "inSteps", Reason: "must be at least 1"}, 400},
		{"unknown unit", &quantity.UnknownUnitError{Tag: "kV"}, 400},
		{"invalid range", &rangeeval.InvalidRangeError{Reason: "min equals max"}, 400},
		{"storage disabled", processing.ErrStorageDisabled, 503},
		{"database down", errors.New("connection refused"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, statusOf(t, toHTTPError("failed", tt.err)))
		})
	}
}

func TestInvalidSession(t *testing.T) {
	svc := &MockProcessingService{}
	h := NewToolHandler(svc)

	_, err := h.GetState(context.Background(), &models.ToolRequest{Session: "not-a-uuid", Tool: tools.CotKey})
	assert.Equal(t, 400, statusOf(t, err))
	_, err = h.GetChart(context.Background(), &models.ChartRequest{Session: "abc", Tool: tools.CotKey, Graph: "chargeTime", Format: "png"})
	assert.Equal(t, 400, statusOf(t, err))
	_, err = h.GetExport(context.Background(), &models.GetExportRequest{ID: "abc"})
	assert.Equal(t, 400, statusOf(t, err))

	svc.AssertNotCalled(t, "State", mock.Anything, mock.Anything, mock.Anything)
}

func TestPutState(t *testing.T) {
	svc := &MockProcessingService{}
	saved := tools.NewCot()
	saved.InSteps = 3
	svc.On("SaveState", mock.Anything, session, tools.CotKey, []byte(`{"inSteps":3}`)).Return(saved, nil)

	h := NewToolHandler(svc)
	resp, err := h.PutState(context.Background(), &models.PutStateRequest{
		Session: session,
		Tool:    tools.CotKey,
		Body:    map[string]any{"inSteps": 3},
	})

	require.NoError(t, err)
	assert.Equal(t, tools.CotKey, resp.Body.Tool)
	assert.Same(t, saved, resp.Body.State)
	svc.AssertExpectations(t)
}

func TestPutState_Invalid(t *testing.T) {
	svc := &MockProcessingService{}
	svc.On("SaveState", mock.Anything, session, tools.CotKey, mock.Anything).
		Return(nil, &tools.InputError{Field: "inSteps", Reason: "must be at least 1"})

	h := NewToolHandler(svc)
	_, err := h.PutState(context.Background(), &models.PutStateRequest{
		Session: session,
		Tool:    tools.CotKey,
		Body:    map[string]any{"inSteps": 0},
	})
	assert.Equal(t, 400, statusOf(t, err))
}

func TestGetGraphs(t *testing.T) {
	graphs := tools.NewCot().Graphs(10)
	svc := &MockProcessingService{}
	svc.On("Graphs", mock.Anything, session, tools.CotKey).Return(graphs, false, nil)

	h := NewToolHandler(svc)
	resp, err := h.GetGraphs(context.Background(), &models.ToolRequest{Session: session, Tool: tools.CotKey})
	require.NoError(t, err)
	require.Len(t, resp.Body.Graphs, len(graphs))

	current := resp.Body.Graphs[0]
	assert.Equal(t, "maxOutputCurrent", current.Key)
	assert.Equal(t, "Input Voltages", current.Legend)
	assert.Equal(t, "Output Voltage [V]", current.X.Title)
	assert.Equal(t, "mA", current.Y.Unit)
	assert.Equal(t, 1e-3, current.Y.Factor)
	require.Len(t, current.Series, 5)
	assert.Equal(t, "5 V", current.Series[0].Name)

	charge := resp.Body.Graphs[len(resp.Body.Graphs)-1]
	assert.Empty(t, charge.Legend)
	require.Len(t, charge.Series, 1)
	require.Len(t, charge.Series[0].Segments, 1)
	assert.Len(t, charge.Series[0].Segments[0], 10)
}

func TestGetChart(t *testing.T) {
	svc := &MockProcessingService{}
	svc.On("RenderChart", mock.Anything, session, tools.CotKey, "chargeTime", render.FormatHTML).
		Return([]byte("<html></html>"), true, nil)
	svc.On("RenderChart", mock.Anything, session, tools.CotKey, "nope", render.FormatPNG).
		Return(nil, false, processing.ErrUnknownGraph)

	h := NewToolHandler(svc)
	resp, err := h.GetChart(context.Background(), &models.ChartRequest{Session: session, Tool: tools.CotKey, Graph: "chargeTime", Format: "html"})
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.True(t, resp.Reset)
	assert.Equal(t, "<html></html>", string(resp.Body))

	_, err = h.GetChart(context.Background(), &models.ChartRequest{Session: session, Tool: tools.CotKey, Graph: "nope", Format: "png"})
	assert.Equal(t, 404, statusOf(t, err))
}

func TestExportChart(t *testing.T) {
	id := uuid.New()
	svc := &MockProcessingService{}
	svc.On("ExportChart", mock.Anything, session, tools.CotKey, "chargeTime", render.FormatPNG).Return(&processing.Export{
		Record:      &models.ChartExport{ID: id, SessionID: session, Tool: tools.CotKey, Graph: "chargeTime", Format: "png"},
		DownloadURL: "https://example.com/x.png",
	}, nil)
	svc.On("ListExports", mock.Anything, session).Return([]*processing.Export{}, nil)

	h := NewToolHandler(svc)
	resp, err := h.ExportChart(context.Background(), &models.ChartRequest{Session: session, Tool: tools.CotKey, Graph: "chargeTime", Format: "png"})
	require.NoError(t, err)
	assert.Equal(t, id, resp.Body.Export.ID)
	assert.Equal(t, "https://example.com/x.png", resp.Body.DownloadURL)

	list, err := h.ListExports(context.Background(), &models.ListExportsRequest{Session: session})
	require.NoError(t, err)
	assert.NotNil(t, list.Body.Exports)
	assert.Empty(t, list.Body.Exports)
}

func TestDeleteState(t *testing.T) {
	svc := &MockProcessingService{}
	svc.On("DeleteState", mock.Anything, session, tools.CotKey).Return(nil)
	svc.On("DeleteState", mock.Anything, session, "nope").Return(fmt.Errorf("%w: %q", processing.ErrUnknownTool, "nope"))

	h := NewToolHandler(svc)
	_, err := h.DeleteState(context.Background(), &models.ToolRequest{Session: session, Tool: tools.CotKey})
	require.NoError(t, err)

	_, err = h.DeleteState(context.Background(), &models.ToolRequest{Session: session, Tool: "nope"})
	assert.Equal(t, 404, statusOf(t, err))
	svc.AssertExpectations(t)
}

func TestGetExportContent(t *testing.T) {
	id := uuid.New()
	missing := uuid.New()
	svc := &MockProcessingService{}
	svc.On("ExportContent", mock.Anything, id).Return(
		&models.ChartExport{ID: id, Format: "png", ObjectKey: "charts/x.png"}, []byte("\x89PNG"), nil)
	svc.On("ExportContent", mock.Anything, missing).Return(nil, nil, repository.ErrNotFound)

	h := NewToolHandler(svc)
	resp, err := h.GetExportContent(context.Background(), &models.GetExportRequest{ID: id.String()})
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, []byte("\x89PNG"), resp.Body)

	_, err = h.GetExportContent(context.Background(), &models.GetExportRequest{ID: missing.String()})
	assert.Equal(t, 404, statusOf(t, err))

	_, err = h.GetExportContent(context.Background(), &models.GetExportRequest{ID: "x"})
	assert.Equal(t, 400, statusOf(t, err))
}
