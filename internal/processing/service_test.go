package processing

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ruediste/diy-dc-converter/internal/render"
	"github.com/ruediste/diy-dc-converter/internal/repository"
	"github.com/ruediste/diy-dc-converter/internal/repository/sqlite"
	"github.com/ruediste/diy-dc-converter/internal/storage"
	"github.com/ruediste/diy-dc-converter/internal/tools"
	"github.com/ruediste/diy-dc-converter/pkg/models"
	"github.com/ruediste/diy-dc-converter/pkg/quantity"
	"github.com/ruediste/diy-dc-converter/pkg/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

const session = "6f1c2a8e-3b4d-4c5e-9f60-718293a4b5c6"

// MockRepository implements repository.Repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Load(ctx context.Context, sessionID, tool string) ([]byte, error) {
	args := m.Called(ctx, sessionID, tool)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, sessionID, tool string, data []byte) error {
	args := m.Called(ctx, sessionID, tool, data)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, sessionID, tool string) error {
	args := m.Called(ctx, sessionID, tool)
	return args.Error(0)
}

func (m *MockRepository) CreateExport(ctx context.Context, export *models.ChartExport) error {
	args := m.Called(ctx, export)
	return args.Error(0)
}

func (m *MockRepository) GetExport(ctx context.Context, id uuid.UUID) (*models.ChartExport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChartExport), args.Error(1)
}

func (m *MockRepository) ListExports(ctx context.Context, sessionID string) ([]*models.ChartExport, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]*models.ChartExport), args.Error(1)
}

func (m *MockRepository) Close() error {
	return m.Called().Error(0)
}

// MockObjectStore implements storage.ObjectStore for testing
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

func (m *MockObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// flaky is a tool whose evaluation fails or panics on demand
type flaky struct {
	Fail     bool `json:"fail"`
	Panic    bool `json:"panic"`
	Overflow bool `json:"overflow"`
}

func (f *flaky) Validate() error { return nil }

func (f *flaky) Calculate() (*tools.Report, error) {
	if f.Panic {
		panic("boom")
	}
	if f.Fail {
		return nil, errors.New("calculation failed")
	}
	if f.Overflow {
		return &tools.Report{Readings: []tools.Reading{{Key: "bits", Name: "Bits", Value: math.Inf(1), Display: "+Inf"}}}, nil
	}
	return &tools.Report{Readings: []tools.Reading{{Key: "ok", Name: "OK", Value: 1, Display: "1"}}}, nil
}

func (f *flaky) Graphs(points int) []sweep.Graph {
	y := 1.0
	if f.Fail {
		y = 0
	}
	return []sweep.Graph{{
		Key:   "line",
		Title: "Line",
		X:     sweep.Axis{Label: "Voltage", Kind: quantity.Voltage},
		Y:     sweep.Axis{Label: "Value"},
		Table: sweep.Evaluate(sweep.Sample(0, 1, points), nil,
			sweep.Single(func(x float64) (float64, bool) { return x / y, true }), nil),
	}}
}

type plain struct{}

func (plain) Validate() error                   { return nil }
func (plain) Calculate() (*tools.Report, error) { return &tools.Report{}, nil }

func newTestService(t *testing.T, repo *MockRepository, objects storage.ObjectStore) ProcessingService {
	t.Helper()
	registry, err := tools.NewRegistry(
		tools.Tool{Key: "flaky", Title: "Flaky", New: func() tools.Calculator { return &flaky{} }},
		tools.Tool{Key: "plain", Title: "Plain", New: func() tools.Calculator { return plain{} }},
		tools.Tool{Key: tools.CotKey, Title: "COT", New: func() tools.Calculator { return tools.NewCot() }},
		tools.Tool{Key: tools.AdcCalculatorKey, Title: "ADC", New: func() tools.Calculator { return tools.NewAdcCalculator() }},
	)
	require.NoError(t, err)
	return NewProcessingService(registry, repo, objects, Options{SweepPoints: 20})
}

func TestReport(t *testing.T) {
	tests := []struct {
		name      string
		stored    []byte
		loadErr   error
		wantReset bool
	}{
		{name: "no stored state", loadErr: repository.ErrNotFound},
		{name: "valid state", stored: []byte(`{"fail":false}`)},
		{name: "calculation error resets", stored: []byte(`{"fail":true}`), wantReset: true},
		{name: "panic resets", stored: []byte(`{"panic":true}`), wantReset: true},
		{name: "infinite reading resets", stored: []byte(`{"overflow":true}`), wantReset: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("Load", mock.Anything, session, "flaky").Return(tt.stored, tt.loadErr)
			if tt.wantReset {
				repo.On("Save", mock.Anything, session, "flaky", []byte(`{"fail":false,"panic":false,"overflow":false}`)).Return(nil)
			}

			svc := newTestService(t, repo, nil)
			rep, reset, err := svc.Report(context.Background(), session, "flaky")

			require.NoError(t, err)
			assert.Equal(t, tt.wantReset, reset)
			require.Len(t, rep.Readings, 1)
			assert.Equal(t, "ok", rep.Readings[0].Key)
			repo.AssertExpectations(t)
		})
	}
}

func TestReport_ResetStillRendersWhenSaveFails(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Load", mock.Anything, session, "flaky").Return([]byte(`{"fail":true}`), nil)
	repo.On("Save", mock.Anything, session, "flaky", mock.Anything).Return(errors.New("disk full"))

	svc := newTestService(t, repo, nil)
	rep, reset, err := svc.Report(context.Background(), session, "flaky")

	require.NoError(t, err)
	assert.True(t, reset)
	assert.Len(t, rep.Readings, 1)
}

func TestReport_UnknownTool(t *testing.T) {
	svc := newTestService(t, new(MockRepository), nil)
	_, _, err := svc.Report(context.Background(), session, "nope")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestGraphs(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Load", mock.Anything, session, tools.CotKey).Return(nil, repository.ErrNotFound)

	svc := newTestService(t, repo, nil)
	graphs, reset, err := svc.Graphs(context.Background(), session, tools.CotKey)

	require.NoError(t, err)
	assert.False(t, reset)
	require.Len(t, graphs, 5)
	assert.Len(t, graphs[0].Table.Records, 20)
}

func TestGraphs_InfiniteValuesReset(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Load", mock.Anything, session, "flaky").Return([]byte(`{"fail":true}`), nil)
	repo.On("Save", mock.Anything, session, "flaky", mock.Anything).Return(nil)

	svc := newTestService(t, repo, nil)
	graphs, reset, err := svc.Graphs(context.Background(), session, "flaky")

	require.NoError(t, err)
	assert.True(t, reset)
	require.Len(t, graphs, 1)
	repo.AssertCalled(t, "Save", mock.Anything, session, "flaky", mock.Anything)
}

func TestReport_InfiniteValuesReset(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Load", mock.Anything, session, tools.AdcCalculatorKey).
		Return([]byte(`{"adcCapacitance":{"kind":"capacitance","value":0.1,"unit":"pF"}}`), nil)
	repo.On("Save", mock.Anything, session, tools.AdcCalculatorKey, mock.Anything).Return(nil).Maybe()

	svc := newTestService(t, repo, nil)
	rep, _, err := svc.Report(context.Background(), session, tools.AdcCalculatorKey)
	require.NoError(t, err)
	for _, rd := range rep.Readings {
		assert.False(t, math.IsInf(rd.Value, 0), rd.Key)
	}

	repo = new(MockRepository)
	repo.On("Load", mock.Anything, session, "flaky").Return([]byte(`{"overflow":true}`), nil)
	repo.On("Save", mock.Anything, session, "flaky", mock.Anything).Return(nil)

	svc = newTestService(t, repo, nil)
	rep, reset, err := svc.Report(context.Background(), session, "flaky")

	require.NoError(t, err)
	assert.True(t, reset)
	assert.Equal(t, "ok", rep.Readings[0].Key)
	repo.AssertCalled(t, "Save", mock.Anything, session, "flaky", mock.Anything)
}

func TestGraphs_NotAPlotter(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Load", mock.Anything, session, "plain").Return(nil, repository.ErrNotFound)

	svc := newTestService(t, repo, nil)
	_, reset, err := svc.Graphs(context.Background(), session, "plain")

	assert.ErrorIs(t, err, ErrNoGraphs)
	assert.False(t, reset)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderChart(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Load", mock.Anything, session, tools.CotKey).Return(nil, repository.ErrNotFound)
	svc := newTestService(t, repo, nil)

	png, reset, err := svc.RenderChart(context.Background(), session, tools.CotKey, "maxOutputPower", render.FormatPNG)
	require.NoError(t, err)
	assert.False(t, reset)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	html, _, err := svc.RenderChart(context.Background(), session, tools.CotKey, "chargeTime", render.FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Charge Time")

	_, _, err = svc.RenderChart(context.Background(), session, tools.CotKey, "missing", render.FormatPNG)
	assert.ErrorIs(t, err, ErrUnknownGraph)

	_, _, err = svc.RenderChart(context.Background(), session, tools.CotKey, "chargeTime", "svg")
	assert.ErrorIs(t, err, render.ErrUnknownFormat)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveState(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		saved   bool
	}{
		{
			name:  "partial update keeps defaults",
			data:  `{"inSteps":3,"in":{"kind":"voltage","value":6,"unit":"V"}}`,
			saved: true,
		},
		{name: "unknown field", data: `{"inStep":3}`, wantErr: tools.ErrInvalidInput},
		{name: "not json", data: `[`, wantErr: tools.ErrInvalidInput},
		{name: "invalid value", data: `{"inSteps":0}`, wantErr: tools.ErrInvalidInput},
		{name: "too many series", data: `{"inSteps":100000000}`, wantErr: tools.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.saved {
				repo.On("Save", mock.Anything, session, tools.CotKey, mock.Anything).Return(nil)
			}

			svc := newTestService(t, repo, nil)
			got, err := svc.SaveState(context.Background(), session, tools.CotKey, []byte(tt.data))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			cot := got.(*tools.Cot)
			assert.Equal(t, 3, cot.InSteps)
			assert.Equal(t, 6.0, cot.In.Value)
			assert.Equal(t, 12.0, cot.Out.Value)
			repo.AssertExpectations(t)
		})
	}
}

func TestExportChart(t *testing.T) {
	repo := new(MockRepository)
	objects := new(MockObjectStore)

	repo.On("Load", mock.Anything, session, tools.CotKey).Return(nil, repository.ErrNotFound)
	objects.On("PutObject", mock.Anything,
		mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "charts/"+session+"/cot/chargeTime-") && strings.HasSuffix(key, ".png")
		}),
		"image/png", mock.Anything).Return(nil)
	repo.On("CreateExport", mock.Anything, mock.AnythingOfType("*models.ChartExport")).Return(nil)
	objects.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://example.com/chart.png?sig=1", nil)

	svc := newTestService(t, repo, objects)
	exp, err := svc.ExportChart(context.Background(), session, tools.CotKey, "chargeTime", render.FormatPNG)

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/chart.png?sig=1", exp.DownloadURL)
	assert.Equal(t, session, exp.Record.SessionID)
	assert.Equal(t, "chargeTime", exp.Record.Graph)
	assert.Equal(t, "png", exp.Record.Format)
	assert.Contains(t, exp.Record.ObjectKey, exp.Record.ID.String())
	assert.False(t, exp.Reset)
	repo.AssertExpectations(t)
	objects.AssertExpectations(t)
}

func TestExportChart_RecordFailureRemovesObject(t *testing.T) {
	repo := new(MockRepository)
	objects := new(MockObjectStore)

	repo.On("Load", mock.Anything, session, tools.CotKey).Return(nil, repository.ErrNotFound)
	objects.On("PutObject", mock.Anything, mock.Anything, "image/png", mock.Anything).Return(nil)
	repo.On("CreateExport", mock.Anything, mock.Anything).Return(errors.New("db down"))
	objects.On("DeleteObject", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(t, repo, objects)
	_, err := svc.ExportChart(context.Background(), session, tools.CotKey, "chargeTime", render.FormatPNG)

	assert.Error(t, err)
	objects.AssertCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	objects.AssertNotCalled(t, "GenerateDownloadURL", mock.Anything, mock.Anything)
}

func TestExportChart_StorageDisabled(t *testing.T) {
	svc := newTestService(t, new(MockRepository), nil)

	_, err := svc.ExportChart(context.Background(), session, tools.CotKey, "chargeTime", render.FormatPNG)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.ListExports(context.Background(), session)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestExportContent(t *testing.T) {
	id := uuid.New()
	rec := &models.ChartExport{ID: id, SessionID: session, Format: "png", ObjectKey: "charts/c.png"}

	tests := []struct {
		name   string
		getErr error
	}{
		{name: "stored chart"},
		{name: "object missing", getErr: errors.New("NoSuchKey")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			objects := new(MockObjectStore)
			repo.On("GetExport", mock.Anything, id).Return(rec, nil)
			if tt.getErr != nil {
				objects.On("GetObject", mock.Anything, "charts/c.png").Return(nil, tt.getErr)
			} else {
				objects.On("GetObject", mock.Anything, "charts/c.png").Return([]byte("\x89PNG"), nil)
			}

			svc := newTestService(t, repo, objects)
			got, data, err := svc.ExportContent(context.Background(), id)

			if tt.getErr != nil {
				assert.ErrorContains(t, err, "failed to download export")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, rec, got)
			assert.Equal(t, []byte("\x89PNG"), data)
		})
	}

	repo := new(MockRepository)
	repo.On("GetExport", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	svc := newTestService(t, repo, new(MockObjectStore))
	_, _, err := svc.ExportContent(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = newTestService(t, new(MockRepository), nil).ExportContent(context.Background(), id)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestDeleteState(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Delete", mock.Anything, session, tools.CotKey).Return(nil)

	svc := newTestService(t, repo, nil)
	require.NoError(t, svc.DeleteState(context.Background(), session, tools.CotKey))
	assert.ErrorIs(t, svc.DeleteState(context.Background(), session, "nope"), ErrUnknownTool)
	repo.AssertExpectations(t)
}

func TestListExports(t *testing.T) {
	repo := new(MockRepository)
	objects := new(MockObjectStore)

	recs := []*models.ChartExport{
		{ID: uuid.New(), SessionID: session, ObjectKey: "charts/b.png"},
		{ID: uuid.New(), SessionID: session, ObjectKey: "charts/a.png"},
	}
	repo.On("ListExports", mock.Anything, session).Return(recs, nil)
	objects.On("GenerateDownloadURL", mock.Anything, "charts/b.png").Return("url-b", nil)
	objects.On("GenerateDownloadURL", mock.Anything, "charts/a.png").Return("url-a", nil)

	svc := newTestService(t, repo, objects)
	exps, err := svc.ListExports(context.Background(), session)

	require.NoError(t, err)
	require.Len(t, exps, 2)
	assert.Equal(t, "url-b", exps[0].DownloadURL)
	assert.Equal(t, "url-a", exps[1].DownloadURL)
}

// TestExportPipeline_Integration renders, uploads and records a chart
// against sqlite and a MinIO container
func TestExportPipeline_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := minio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, container.Terminate(ctx))
	}()

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	objects, err := storage.New(ctx, storage.Config{
		Backend:   storage.BackendMinio,
		Bucket:    "charts-" + uuid.New().String()[:8],
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		URLExpiry: time.Hour,
	})
	require.NoError(t, err)

	repo, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "charts.db"))
	require.NoError(t, err)
	defer repo.Close()

	svc := NewProcessingService(tools.DefaultRegistry(), repo, objects, Options{})

	exp, err := svc.ExportChart(ctx, session, tools.CotKey, "maxOutputCurrent", render.FormatPNG)
	require.NoError(t, err)
	assert.NotEmpty(t, exp.DownloadURL)

	rec, data, err := svc.ExportContent(ctx, exp.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "png", rec.Format)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	got, err := svc.GetExport(ctx, exp.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, exp.Record.ObjectKey, got.Record.ObjectKey)

	list, err := svc.ListExports(ctx, session)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, exp.Record.ID, list[0].Record.ID)
}
