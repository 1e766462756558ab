package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/ruediste/diy-dc-converter/internal/render"
	"github.com/ruediste/diy-dc-converter/internal/repository"
	"github.com/ruediste/diy-dc-converter/internal/state"
	"github.com/ruediste/diy-dc-converter/internal/storage"
	"github.com/ruediste/diy-dc-converter/internal/tools"
	"github.com/ruediste/diy-dc-converter/pkg/models"
	"github.com/ruediste/diy-dc-converter/pkg/sweep"
)

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrUnknownGraph = errors.New("unknown graph")
	ErrNoGraphs     = errors.New("tool has no graphs")
	// ErrStorageDisabled is returned by exports when no object store is configured.
	ErrStorageDisabled = errors.New("chart storage is not configured")
)

// ProcessingService evaluates tools against the state stored for a session.
// Report, Graphs, RenderChart and ExportChart reset the stored state to the
// tool defaults when evaluating it fails or panics, and retry once.
type ProcessingService interface {
	Tools() []tools.Tool
	State(ctx context.Context, sessionID, tool string) (tools.Calculator, error)
	SaveState(ctx context.Context, sessionID, tool string, data []byte) (tools.Calculator, error)
	ResetState(ctx context.Context, sessionID, tool string) (tools.Calculator, error)
	DeleteState(ctx context.Context, sessionID, tool string) error
	Report(ctx context.Context, sessionID, tool string) (*tools.Report, bool, error)
	Graphs(ctx context.Context, sessionID, tool string) ([]sweep.Graph, bool, error)
	RenderChart(ctx context.Context, sessionID, tool, graph string, format render.Format) ([]byte, bool, error)
	ExportChart(ctx context.Context, sessionID, tool, graph string, format render.Format) (*Export, error)
	GetExport(ctx context.Context, id uuid.UUID) (*Export, error)
	ListExports(ctx context.Context, sessionID string) ([]*Export, error)
	ExportContent(ctx context.Context, id uuid.UUID) (*models.ChartExport, []byte, error)
}

// Export is a stored chart with a fresh download URL
type Export struct {
	Record      *models.ChartExport
	DownloadURL string
	Reset       bool
}

// Options tune sweeps and chart output
type Options struct {
	SweepPoints int
	Chart       render.Options
}

type processingService struct {
	registry *tools.Registry
	stores   map[string]*state.Store[tools.Calculator]
	repo     repository.ExportRepository
	objects  storage.ObjectStore
	opts     Options
	now      func() time.Time
}

// NewProcessingService wires the tool registry to persistence. objects may
// be nil, in which case exports fail with ErrStorageDisabled.
func NewProcessingService(registry *tools.Registry, repo repository.Repository, objects storage.ObjectStore, opts Options) ProcessingService {
	if opts.SweepPoints <= 0 {
		opts.SweepPoints = tools.DefaultSweepPoints
	}
	if opts.Chart.Width <= 0 || opts.Chart.Height <= 0 {
		opts.Chart = render.DefaultOptions
	}

	stores := make(map[string]*state.Store[tools.Calculator])
	for _, t := range registry.List() {
		stores[t.Key] = state.NewStore[tools.Calculator](repo, t.Key, t.New)
	}

	return &processingService{
		registry: registry,
		stores:   stores,
		repo:     repo,
		objects:  objects,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *processingService) Tools() []tools.Tool {
	return s.registry.List()
}

func (s *processingService) store(tool string) (*state.Store[tools.Calculator], error) {
	st, ok := s.stores[tool]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	return st, nil
}

// State returns the stored state, or the defaults if none is usable.
func (s *processingService) State(ctx context.Context, sessionID, tool string) (tools.Calculator, error) {
	st, err := s.store(tool)
	if err != nil {
		return nil, err
	}
	return st.Load(ctx, sessionID), nil
}

// SaveState decodes data over the tool defaults, validates and stores it.
func (s *processingService) SaveState(ctx context.Context, sessionID, tool string, data []byte) (tools.Calculator, error) {
	st, err := s.store(tool)
	if err != nil {
		return nil, err
	}

	v := st.Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrInvalidInput, err)
	}

	if err := st.Save(ctx, sessionID, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *processingService) ResetState(ctx context.Context, sessionID, tool string) (tools.Calculator, error) {
	st, err := s.store(tool)
	if err != nil {
		return nil, err
	}
	return st.Reset(ctx, sessionID)
}

// DeleteState forgets the stored state of a tool.
func (s *processingService) DeleteState(ctx context.Context, sessionID, tool string) error {
	st, err := s.store(tool)
	if err != nil {
		return err
	}
	return st.Clear(ctx, sessionID)
}

// Report calculates the single-point readings of a tool.
func (s *processingService) Report(ctx context.Context, sessionID, tool string) (*tools.Report, bool, error) {
	var rep *tools.Report
	reset, err := s.evaluate(ctx, sessionID, tool, func(c tools.Calculator) error {
		var err error
		rep, err = c.Calculate()
		if err != nil {
			return err
		}
		return checkReadings(rep)
	})
	return rep, reset, err
}

// Graphs evaluates every sweep of a plotting tool.
func (s *processingService) Graphs(ctx context.Context, sessionID, tool string) ([]sweep.Graph, bool, error) {
	var graphs []sweep.Graph
	reset, err := s.evaluate(ctx, sessionID, tool, func(c tools.Calculator) error {
		p, ok := c.(tools.Plotter)
		if !ok {
			return errNoGraphs(tool)
		}
		graphs = p.Graphs(s.opts.SweepPoints)
		for _, g := range graphs {
			if err := checkFinite(g); err != nil {
				return err
			}
		}
		return nil
	})
	return graphs, reset, err
}

// RenderChart draws one graph of a tool.
func (s *processingService) RenderChart(ctx context.Context, sessionID, tool, graph string, format render.Format) ([]byte, bool, error) {
	r, err := render.New(format, s.opts.Chart)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	reset, err := s.evaluate(ctx, sessionID, tool, func(c tools.Calculator) error {
		g, err := s.findGraph(c, tool, graph)
		if err != nil {
			return err
		}
		buf.Reset()
		return r.Render(&buf, g)
	})
	if err != nil {
		return nil, reset, err
	}
	return buf.Bytes(), reset, nil
}

// ExportChart renders a chart, uploads it and records the export.
func (s *processingService) ExportChart(ctx context.Context, sessionID, tool, graph string, format render.Format) (*Export, error) {
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}

	// Step 1: Render with the stored state
	data, reset, err := s.RenderChart(ctx, sessionID, tool, graph, format)
	if err != nil {
		return nil, err
	}

	// Step 2: Upload to object storage
	id := uuid.New()
	key := fmt.Sprintf("charts/%s/%s/%s-%s.%s", sessionID, tool, graph, id, format)
	if err := s.objects.PutObject(ctx, key, format.ContentType(), data); err != nil {
		return nil, err
	}

	// Step 3: Record the export, removing the object if that fails
	rec := &models.ChartExport{
		ID:        id,
		SessionID: sessionID,
		Tool:      tool,
		Graph:     graph,
		Format:    string(format),
		ObjectKey: key,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateExport(ctx, rec); err != nil {
		if derr := s.objects.DeleteObject(ctx, key); derr != nil {
			log.Error().Err(derr).Str("key", key).Msg("Failed to remove orphaned chart")
		}
		return nil, fmt.Errorf("failed to record export: %w", err)
	}

	log.Info().
		Str("export_id", id.String()).
		Str("session_id", sessionID).
		Str("tool", tool).
		Str("graph", graph).
		Int("bytes", len(data)).
		Msg("Chart exported")

	// Step 4: Sign a download URL
	exp, err := s.withURL(ctx, rec)
	if err != nil {
		return nil, err
	}
	exp.Reset = reset
	return exp, nil
}

func (s *processingService) GetExport(ctx context.Context, id uuid.UUID) (*Export, error) {
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}
	rec, err := s.repo.GetExport(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withURL(ctx, rec)
}

func (s *processingService) ListExports(ctx context.Context, sessionID string) ([]*Export, error) {
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}
	recs, err := s.repo.ListExports(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]*Export, 0, len(recs))
	for _, rec := range recs {
		exp, err := s.withURL(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, nil
}

// ExportContent downloads a stored chart for clients that cannot reach the
// object store directly.
func (s *processingService) ExportContent(ctx context.Context, id uuid.UUID) (*models.ChartExport, []byte, error) {
	if s.objects == nil {
		return nil, nil, ErrStorageDisabled
	}
	rec, err := s.repo.GetExport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.objects.GetObject(ctx, rec.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download export %s: %w", id, err)
	}
	return rec, data, nil
}

func (s *processingService) withURL(ctx context.Context, rec *models.ChartExport) (*Export, error) {
	url, err := s.objects.GenerateDownloadURL(ctx, rec.ObjectKey)
	if err != nil {
		return nil, err
	}
	return &Export{Record: rec, DownloadURL: url}, nil
}

func (s *processingService) findGraph(c tools.Calculator, tool, key string) (sweep.Graph, error) {
	p, ok := c.(tools.Plotter)
	if !ok {
		return sweep.Graph{}, errNoGraphs(tool)
	}
	for _, g := range p.Graphs(s.opts.SweepPoints) {
		if g.Key == key {
			return g, nil
		}
	}
	return sweep.Graph{}, fmt.Errorf("%w: %q", ErrUnknownGraph, key)
}

// evaluate runs fn with the stored state. If that fails, the state is reset
// to the defaults and fn runs again. Lookup errors (unknown tool or graph)
// are returned without touching the state.
func (s *processingService) evaluate(ctx context.Context, sessionID, tool string, fn func(tools.Calculator) error) (bool, error) {
	st, err := s.store(tool)
	if err != nil {
		return false, err
	}

	err = safely(fn, st.Load(ctx, sessionID))
	if err == nil {
		return false, nil
	}
	if errors.Is(err, ErrUnknownGraph) || errors.Is(err, ErrNoGraphs) {
		return false, err
	}

	log.Warn().
		Err(err).
		Str("session_id", sessionID).
		Str("tool", tool).
		Msg("Evaluating stored state failed, resetting to defaults")

	def, rerr := st.Reset(ctx, sessionID)
	if rerr != nil {
		log.Error().Err(rerr).Str("session_id", sessionID).Str("tool", tool).Msg("Failed to persist reset state")
	}
	if err := safely(fn, def); err != nil {
		return true, fmt.Errorf("failed to evaluate defaults of %s: %w", tool, err)
	}
	return true, nil
}

func safely(fn func(tools.Calculator) error, c tools.Calculator) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(c)
}

func errNoGraphs(tool string) error {
	return fmt.Errorf("%w: %q", ErrNoGraphs, tool)
}

// checkReadings rejects readings that cannot be encoded as JSON numbers.
func checkReadings(rep *tools.Report) error {
	for _, rd := range rep.Readings {
		if !finite(rd.Value) {
			return fmt.Errorf("reading %s: non-finite value %g", rd.Key, rd.Value)
		}
		if ind := rd.Indicator; ind != nil && !(finite(ind.Position) && finite(ind.Percent)) {
			return fmt.Errorf("reading %s: non-finite indicator position", rd.Key)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// checkFinite rejects infinite values, which cannot be plotted or encoded.
func checkFinite(g sweep.Graph) error {
	for _, rec := range g.Table.Records {
		if math.IsInf(rec.X, 0) {
			return fmt.Errorf("graph %s: infinite x sample", g.Key)
		}
		for _, v := range rec.Values {
			if math.IsInf(v, 0) {
				return fmt.Errorf("graph %s: infinite value at x=%g", g.Key, rec.X)
			}
		}
	}
	return nil
}
