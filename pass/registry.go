package pass

import "context"

// Handle is a runtime pass object created by a registry factory. It is opaque
// to the graph and handed straight to the engine.
type Handle any

// Factory creates a runtime pass from a resolved config.
type Factory func(ctx context.Context, cfg Config) (Handle, error)

// Registry is the capability contract a pass catalog offers the graph and the
// validator. It is injected rather than discovered.
type Registry interface {
	// Describe returns the descriptor of kind, or an UNKNOWN_KIND error.
	Describe(kind string) (Descriptor, error)
	// Instantiate creates a runtime pass of kind from cfg.
	Instantiate(ctx context.Context, kind string, cfg Config) (Handle, error)
	// Compatible reports whether an output carrying from may feed an input
	// expecting to.
	Compatible(from, to ResourceKind) bool
}
