package authoring

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/rendergraph/config"
	"github.com/kbukum/rendergraph/engine"
	"github.com/kbukum/rendergraph/logger"
	"github.com/kbukum/rendergraph/pass"
)

// Option configures the Workspace during creation.
type Option func(*options)

type options struct {
	logger  *logger.Logger
	engine  engine.Engine
	catalog *pass.Catalog
	meter   metric.Meter
	loader  []config.LoaderOption
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the workspace.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEngine sets the engine that receives submitted graphs.
func WithEngine(e engine.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithCatalog uses c instead of an empty catalog. Catalog files named in the
// config are still loaded into it.
func WithCatalog(c *pass.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithMeter records graph metrics on m instead of an OTLP meter provider.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		o.meter = m
	}
}

// WithConfigLoader passes options to config.LoadConfig when the workspace is
// created by Load. New ignores them.
func WithConfigLoader(opts ...config.LoaderOption) Option {
	return func(o *options) {
		o.loader = append(o.loader, opts...)
	}
}
