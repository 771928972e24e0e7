package authoring_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/rendergraph/authoring"
	"github.com/kbukum/rendergraph/config"
	"github.com/kbukum/rendergraph/engine/enginetest"
	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/graph"
	"github.com/kbukum/rendergraph/logger"
	"github.com/kbukum/rendergraph/observability"
	"github.com/kbukum/rendergraph/pass"
	"github.com/kbukum/rendergraph/testutil"
)

func newConfig() *config.Config {
	return &config.Config{
		Name:    "studio",
		Catalog: config.CatalogConfig{Files: []string{testutil.FixturePath("standard.yaml")}},
	}
}

func newWorkspace(t *testing.T, cfg *config.Config, opts ...authoring.Option) *authoring.Workspace {
	t.Helper()
	opts = append([]authoring.Option{authoring.WithLogger(logger.Nop())}, opts...)
	ws, err := authoring.New(cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = ws.Shutdown(context.Background()) })
	return ws
}

func buildChain(t *testing.T, g *graph.Graph) {
	t.Helper()
	steps := []error{
		addPass(g, "VBufferRT", testutil.KindVBufferRT),
		addPass(g, "PathTracer", testutil.KindPathTracer),
		addPass(g, "AccumulatePass", testutil.KindAccumulatePass),
		addPass(g, "ToneMapper", testutil.KindToneMapper),
		g.Connect("VBufferRT.vbuffer", "PathTracer.vbuffer"),
		g.Connect("PathTracer.color", "AccumulatePass.input"),
		g.Connect("AccumulatePass.output", "ToneMapper.src"),
		g.MarkOutput(pass.Port("ToneMapper", "dst")),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}
}

func addPass(g *graph.Graph, name, kind string) error {
	_, err := g.AddPass(name, kind, nil)
	return err
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := authoring.New(nil); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"missing name", &config.Config{}},
		{"bad environment", &config.Config{Name: "studio", Environment: "qa"}},
		{"bad sample rate", &config.Config{Name: "studio", Observability: config.ObservabilityConfig{SampleRate: 2}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := authoring.New(tc.cfg, authoring.WithLogger(logger.Nop()))
			if err == nil || !strings.Contains(err.Error(), "config validation") {
				t.Fatalf("expected config validation error, got %v", err)
			}
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg := &config.Config{Name: "studio"}
	newWorkspace(t, cfg)

	if cfg.Environment != "development" || cfg.Logging.Level != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestNewLoadsCatalogFiles(t *testing.T) {
	ws := newWorkspace(t, newConfig())

	for _, kind := range []string{testutil.KindVBufferRT, testutil.KindPathTracer, testutil.KindAccumulatePass, testutil.KindToneMapper} {
		if _, err := ws.Catalog().Describe(kind); err != nil {
			t.Errorf("kind %s not loaded: %v", kind, err)
		}
	}
	if !ws.Catalog().Compatible(pass.KindIllumination, pass.KindColor) {
		t.Error("conversion from the catalog file not loaded")
	}
}

func TestNewLoadsCatalogDirs(t *testing.T) {
	dir := t.TempDir()
	content := `
name: extra
passes:
  - kind: Blit
    inputs:
      - {name: src, resource: color}
    outputs:
      - {name: dst, resource: color}
`
	if err := os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	cfg := newConfig()
	cfg.Catalog.Dirs = []string{dir}
	ws := newWorkspace(t, cfg)

	if _, err := ws.Catalog().Describe("Blit"); err != nil {
		t.Fatalf("Blit not loaded from dir: %v", err)
	}
	if len(ws.Catalog().Kinds()) != 5 {
		t.Errorf("expected 5 kinds, got %v", ws.Catalog().Kinds())
	}
}

func TestNewCatalogErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := &config.Config{Name: "studio", Catalog: config.CatalogConfig{Files: []string{"/nonexistent/catalog.yaml"}}}
		if _, err := authoring.New(cfg, authoring.WithLogger(logger.Nop())); err == nil {
			t.Fatal("expected error for missing catalog file")
		}
	})

	t.Run("duplicate kinds", func(t *testing.T) {
		_, err := authoring.New(newConfig(),
			authoring.WithLogger(logger.Nop()),
			authoring.WithCatalog(testutil.StandardCatalog()),
		)
		if !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
			t.Fatalf("expected ALREADY_EXISTS, got %v", err)
		}
	})
}

func TestLoadFromConfigFile(t *testing.T) {
	for _, key := range config.Keys() {
		t.Setenv(config.EnvVar("", key), "")
	}
	t.Setenv("VALIDATION_MAX_PASSES", "8")

	path := filepath.Join(t.TempDir(), "config.yml")
	content := "name: studio\nenvironment: staging\ncatalog:\n  files:\n    - " + testutil.FixturePath("standard.yaml") + "\nvalidation:\n  max_passes: 2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	rec := enginetest.NewRecorder()
	ws, err := authoring.Load("studio",
		authoring.WithLogger(logger.Nop()),
		authoring.WithEngine(rec),
		authoring.WithConfigLoader(config.WithConfigFile(path)),
	)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	t.Cleanup(func() { _ = ws.Shutdown(context.Background()) })

	if ws.Name != "studio" || ws.Cfg.Environment != "staging" {
		t.Errorf("config not read from file: %+v", ws.Cfg)
	}
	if ws.Cfg.Validation.MaxPasses != 8 {
		t.Errorf("expected env override of max_passes, got %d", ws.Cfg.Validation.MaxPasses)
	}

	g := ws.CreateGraph("PathTracer")
	buildChain(t, g)
	if _, err := ws.Submit(context.Background(), g); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if rec.Calls() != 1 {
		t.Errorf("expected one accepted snapshot, got %d", rec.Calls())
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	for _, key := range config.Keys() {
		t.Setenv(config.EnvVar("", key), "")
	}

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("name: studio\nenvironment: qa\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := authoring.Load("studio",
		authoring.WithLogger(logger.Nop()),
		authoring.WithConfigLoader(config.WithConfigFile(path)),
	)
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("expected config loading error, got %v", err)
	}
}

func TestCreateGraphAppliesValidationConfig(t *testing.T) {
	t.Run("max passes", func(t *testing.T) {
		cfg := newConfig()
		cfg.Validation.MaxPasses = 1
		g := newWorkspace(t, cfg).CreateGraph("Limited")

		if err := addPass(g, "VBufferRT", testutil.KindVBufferRT); err != nil {
			t.Fatalf("first pass failed: %v", err)
		}
		if err := addPass(g, "PathTracer", testutil.KindPathTracer); !errors.HasCode(err, errors.ErrCodeLimitExceeded) {
			t.Fatalf("expected LIMIT_EXCEEDED, got %v", err)
		}
	})

	t.Run("unknown options", func(t *testing.T) {
		strict := newWorkspace(t, newConfig()).CreateGraph("Strict")
		if _, err := strict.AddPass("ToneMapper", testutil.KindToneMapper, pass.Config{"gamma": 2.2}); !errors.HasCode(err, errors.ErrCodeUnknownOption) {
			t.Fatalf("expected UNKNOWN_OPTION, got %v", err)
		}

		cfg := newConfig()
		cfg.Validation.AllowUnknownOptions = true
		lenient := newWorkspace(t, cfg).CreateGraph("Lenient")
		node, err := lenient.AddPass("ToneMapper", testutil.KindToneMapper, pass.Config{"gamma": 2.2})
		if err != nil {
			t.Fatalf("lenient AddPass failed: %v", err)
		}
		if len(node.UnknownOptions()) != 1 {
			t.Errorf("expected one kept unknown option, got %v", node.UnknownOptions())
		}
	})
}

func TestValidateRecordsTelemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	ws := newWorkspace(t, newConfig(), authoring.WithMeter(mp.Meter("test")))
	ctx := context.Background()

	good := ws.CreateGraph("Good")
	buildChain(t, good)
	if report := ws.Validate(ctx, good); !report.OK() {
		t.Fatalf("expected executable graph, got %v", report.All())
	}

	bad := ws.CreateGraph("Bad")
	if err := addPass(bad, "PathTracer", testutil.KindPathTracer); err != nil {
		t.Fatalf("AddPass failed: %v", err)
	}
	report := ws.Validate(ctx, bad)
	if !report.Has(errors.ErrCodeUnconnectedInput) || !report.Has(errors.ErrCodeNoOutput) {
		t.Fatalf("unexpected report: %v", report.All())
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, span := range spans {
		if span.Name() != observability.SpanGraphValidate {
			t.Errorf("unexpected span %q", span.Name())
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	if totals["graph.validation.total"] != 2 {
		t.Errorf("graph.validation.total = %d, want 2", totals["graph.validation.total"])
	}
	if totals["graph.diagnostic.total"] != int64(len(report.All())) {
		t.Errorf("graph.diagnostic.total = %d, want %d", totals["graph.diagnostic.total"], len(report.All()))
	}
}

func TestSubmit(t *testing.T) {
	rec := enginetest.NewRecorder()
	ws := newWorkspace(t, newConfig(), authoring.WithEngine(rec))
	ctx := context.Background()

	g := ws.CreateGraph("PathTracer")
	buildChain(t, g)

	snap, err := ws.Submit(ctx, g)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if rec.Calls() != 1 || rec.Last() != snap {
		t.Fatal("engine did not receive the snapshot")
	}
	if !g.Frozen() {
		t.Error("graph must be frozen after submission")
	}
	if got := snap.Order(); len(got) != 4 || got[0] != "VBufferRT" || got[3] != "ToneMapper" {
		t.Errorf("unexpected order %v", got)
	}

	if _, err := ws.Submit(ctx, g); !errors.HasCode(err, errors.ErrCodeGraphFrozen) {
		t.Errorf("expected GRAPH_FROZEN on resubmission, got %v", err)
	}
}

func TestSubmitRefusesInvalidGraph(t *testing.T) {
	rec := enginetest.NewRecorder()
	ws := newWorkspace(t, newConfig(), authoring.WithEngine(rec))

	g := ws.CreateGraph("Empty")
	_, err := ws.Submit(context.Background(), g)
	if !errors.HasCode(err, errors.ErrCodeNotExecutable) {
		t.Fatalf("expected NOT_EXECUTABLE, got %v", err)
	}
	if rec.Calls() != 0 {
		t.Error("engine must not see a refused graph")
	}
	if g.Frozen() {
		t.Error("refused graph must stay mutable")
	}
}

func TestSubmitWithoutEngine(t *testing.T) {
	ws := newWorkspace(t, newConfig())

	g := ws.CreateGraph("PathTracer")
	buildChain(t, g)
	if _, err := ws.Submit(context.Background(), g); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !g.Frozen() {
		t.Error("graph must be frozen after submission")
	}
}

func TestShutdownWithoutExporters(t *testing.T) {
	ws, err := authoring.New(newConfig(), authoring.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := ws.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
	if err := ws.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown must be a no-op, got %v", err)
	}
}
