package authoring

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/kbukum/rendergraph/config"
	"github.com/kbukum/rendergraph/engine"
	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/graph"
	"github.com/kbukum/rendergraph/logger"
	"github.com/kbukum/rendergraph/observability"
	"github.com/kbukum/rendergraph/pass"
)

const meterName = "github.com/kbukum/rendergraph"

// Workspace creates, validates and submits render graphs against one pass
// catalog and one engine.
type Workspace struct {
	Name    string
	Cfg     *config.Config
	Logger  *logger.Logger
	Metrics *observability.Metrics

	catalog  *pass.Catalog
	engine   engine.Engine
	shutdown []func(context.Context) error
}

// New creates a workspace from cfg. It applies defaults, validates the
// config, initializes the logger, loads the configured catalog files and
// starts the enabled exporters.
//
// Without WithEngine, submitted graphs are validated and frozen but nothing
// executes them.
func New(cfg *config.Config, opts ...Option) (*Workspace, error) {
	if cfg == nil {
		return nil, errors.InvalidInput("config", "config is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)

	w := &Workspace{
		Name:    cfg.Name,
		Cfg:     cfg,
		catalog: o.catalog,
	}

	if o.logger != nil {
		w.Logger = o.logger
	} else {
		logger.Init(&cfg.Logging)
		w.Logger = logger.GetGlobalLogger()
	}
	w.Logger = w.Logger.WithComponent("authoring")

	if w.catalog == nil {
		w.catalog = pass.NewCatalog(pass.WithUnknownOptions(cfg.Validation.AllowUnknownOptions))
	}
	if err := w.loadCatalog(); err != nil {
		return nil, err
	}

	if err := w.initObservability(o); err != nil {
		_ = w.Shutdown(context.Background())
		return nil, err
	}

	e := o.engine
	if e == nil {
		e = engine.EngineFunc(func(context.Context, *engine.Snapshot) error { return nil })
	}
	e = engine.WithLogging(e, w.Logger)
	if w.Metrics != nil {
		e = engine.WithMetrics(e, w.Metrics)
	}
	w.engine = engine.WithTracing(e)

	w.Logger.Info("workspace ready", logger.Fields(
		"name", cfg.Name,
		"environment", cfg.Environment,
		"kinds", len(w.catalog.Kinds()),
		"tracing", cfg.Observability.Tracing,
		"metrics", w.Metrics != nil,
	))
	return w, nil
}

// Load reads the configuration of application name with config.LoadConfig,
// from the files and variables selected by WithConfigLoader, and creates a
// workspace from it.
func Load(name string, opts ...Option) (*Workspace, error) {
	var cfg config.Config
	if err := config.LoadConfig(name, &cfg, resolveOptions(opts).loader...); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return New(&cfg, opts...)
}

func (w *Workspace) loadCatalog() error {
	for _, path := range w.Cfg.Catalog.Files {
		file, err := pass.LoadCatalogFile(path)
		if err != nil {
			return fmt.Errorf("loading catalog %s: %w", path, err)
		}
		if err := w.catalog.Load(file); err != nil {
			return fmt.Errorf("loading catalog %s: %w", path, err)
		}
		w.Logger.Debug("catalog loaded", logger.Fields("file", path, "passes", len(file.Passes)))
	}

	if len(w.Cfg.Catalog.Dirs) == 0 {
		return nil
	}
	files, err := pass.NewFileCatalogLoader(w.Cfg.Catalog.Dirs...).LoadAll()
	if err != nil {
		return fmt.Errorf("loading catalog dirs: %w", err)
	}
	for _, file := range files {
		if err := w.catalog.Load(file); err != nil {
			return fmt.Errorf("loading catalog %s: %w", file.Name, err)
		}
		w.Logger.Debug("catalog loaded", logger.Fields("catalog", file.Name, "passes", len(file.Passes)))
	}
	return nil
}

func (w *Workspace) initObservability(o *options) error {
	obs := w.Cfg.Observability
	ctx := context.Background()

	if obs.Tracing {
		tp, err := observability.InitTracer(ctx, &observability.TracerConfig{
			ServiceName:    w.Cfg.Name,
			ServiceVersion: w.Cfg.Version,
			Environment:    w.Cfg.Environment,
			Endpoint:       obs.Endpoint,
			Insecure:       obs.Insecure,
			SampleRate:     obs.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		w.shutdown = append(w.shutdown, tp.Shutdown)
	}

	meter := o.meter
	if meter == nil && obs.Metrics {
		mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
			ServiceName:    w.Cfg.Name,
			ServiceVersion: w.Cfg.Version,
			Environment:    w.Cfg.Environment,
			Endpoint:       obs.Endpoint,
			Insecure:       obs.Insecure,
			Interval:       obs.Interval,
		})
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		w.shutdown = append(w.shutdown, mp.Shutdown)
		meter = observability.Meter(meterName)
	}
	if meter == nil {
		return nil
	}

	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		return err
	}
	w.Metrics = metrics
	return nil
}

// Catalog returns the pass catalog graphs of this workspace resolve against.
func (w *Workspace) Catalog() *pass.Catalog { return w.catalog }

// CreateGraph returns an empty graph using the workspace catalog, logger and
// validation settings.
func (w *Workspace) CreateGraph(name string) *graph.Graph {
	return graph.New(name, w.catalog,
		graph.WithLogger(w.Logger),
		graph.WithAllowUnknownOptions(w.Cfg.Validation.AllowUnknownOptions),
		graph.WithMaxPasses(w.Cfg.Validation.MaxPasses),
	)
}

// Validate runs the validator on g and records the outcome as a span and as
// metrics. The report is returned unchanged.
func (w *Workspace) Validate(ctx context.Context, g *graph.Graph) graph.Report {
	oc := observability.NewOperationContext(g.Name(), "validate", w.Metrics)
	ctx, span := oc.StartSpan(ctx, observability.SpanGraphValidate)

	report := g.Validate()

	codes := make([]string, 0, len(report.Errors)+len(report.Warnings))
	for _, d := range report.All() {
		codes = append(codes, string(d.Code()))
	}
	observability.SetSpanAttribute(ctx, observability.AttrPasses, len(g.Nodes()))
	observability.SetSpanAttribute(ctx, observability.AttrEdges, len(g.Edges()))
	observability.SetSpanAttribute(ctx, observability.AttrOutputs, len(g.MarkedOutputs()))
	observability.SetSpanAttribute(ctx, observability.AttrErrors, len(report.Errors))
	observability.SetSpanAttribute(ctx, observability.AttrWarnings, len(report.Warnings))
	observability.SetSpanAttribute(ctx, observability.AttrCodes, codes)

	status := "ok"
	if !report.OK() {
		status = "rejected"
	}
	oc.End(span, status, nil)

	if w.Metrics != nil {
		w.Metrics.RecordValidation(ctx, g.Name(), len(report.Errors), len(report.Warnings), oc.Duration())
		for _, d := range report.All() {
			w.Metrics.RecordDiagnostic(ctx, string(d.Code()), string(d.Severity))
		}
	}

	fields := logger.Fields(
		logger.FieldGraph, g.Name(),
		"errors", len(report.Errors),
		"warnings", len(report.Warnings),
		logger.FieldDuration, oc.Duration().Milliseconds(),
	)
	if report.OK() {
		w.Logger.Debug("graph validated", fields)
	} else {
		fields["codes"] = codes
		w.Logger.Info("graph not executable", fields)
	}
	return report
}

// Submit validates g and hands it to the workspace engine. See engine.Submit
// for the freezing rules.
func (w *Workspace) Submit(ctx context.Context, g *graph.Graph) (*engine.Snapshot, error) {
	oc := observability.NewOperationContext(g.Name(), "submit", w.Metrics)
	ctx, span := oc.StartSpan(ctx, observability.SpanGraphSubmit)

	snap, err := engine.Submit(ctx, g, w.engine)

	status := "ok"
	if err != nil {
		status = "error"
		observability.SetSpanError(ctx, err)
		w.Logger.Info("graph submission refused", logger.MergeWithError(logger.Fields(
			logger.FieldGraph, g.Name(),
			logger.FieldCode, string(errors.CodeOf(err)),
		), err))
	} else {
		observability.SetSpanAttribute(ctx, observability.AttrSnapshotID, snap.ID.String())
	}
	oc.End(span, status, err)
	return snap, err
}

// Shutdown flushes and stops the exporters started by New, in reverse order.
func (w *Workspace) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(w.shutdown) - 1; i >= 0; i-- {
		if err := w.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	w.shutdown = nil
	if len(errs) > 0 {
		w.Logger.Warn("workspace shutdown incomplete", logger.Fields(logger.FieldError, stderrors.Join(errs...).Error()))
	}
	return stderrors.Join(errs...)
}
