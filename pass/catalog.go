package pass

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/rendergraph/errors"
)

// Catalog is an in-memory Registry. It is safe for concurrent use, so one
// catalog can serve many single-owner graphs.
type Catalog struct {
	mu           sync.RWMutex
	entries      map[string]*entry
	conversions  map[conversion]bool
	allowUnknown bool
}

type entry struct {
	desc    Descriptor
	factory Factory
}

type conversion struct {
	from ResourceKind
	to   ResourceKind
}

var _ Registry = (*Catalog)(nil)

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithUnknownOptions lets Instantiate accept config keys a kind does not declare.
func WithUnknownOptions(allow bool) CatalogOption {
	return func(c *Catalog) { c.allowUnknown = allow }
}

// NewCatalog creates a new empty Catalog.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		entries:     make(map[string]*entry),
		conversions: make(map[conversion]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a pass kind. The factory may be nil and bound later with
// BindFactory; such kinds can be used in graphs but not instantiated.
func (c *Catalog) Register(desc Descriptor, factory Factory) error {
	desc = desc.Clone()
	desc.normalize()
	if err := desc.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[desc.Kind]; exists {
		return errors.AlreadyExists("pass kind", desc.Kind)
	}
	c.entries[desc.Kind] = &entry{desc: desc, factory: factory}
	return nil
}

// MustRegister is Register that panics on error, for static catalogs.
func (c *Catalog) MustRegister(desc Descriptor, factory Factory) {
	if err := c.Register(desc, factory); err != nil {
		panic(err)
	}
}

// BindFactory sets the runtime factory of an already registered kind.
func (c *Catalog) BindFactory(kind string, factory Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[kind]
	if !ok {
		return errors.UnknownKind(kind)
	}
	e.factory = factory
	return nil
}

// AllowConversion declares that outputs of kind from may feed inputs of kind
// to. The relation is directed.
func (c *Catalog) AllowConversion(from, to ResourceKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversions[conversion{from: from, to: to}] = true
}

// Describe returns a copy of the descriptor of kind.
func (c *Catalog) Describe(kind string) (Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[kind]
	if !ok {
		return Descriptor{}, errors.UnknownKind(kind)
	}
	return e.desc.Clone(), nil
}

// Instantiate resolves cfg against the kind's schema and calls its factory.
func (c *Catalog) Instantiate(ctx context.Context, kind string, cfg Config) (Handle, error) {
	c.mu.RLock()
	e, ok := c.entries[kind]
	var (
		desc    Descriptor
		factory Factory
	)
	if ok {
		desc, factory = e.desc, e.factory
	}
	allowUnknown := c.allowUnknown
	c.mu.RUnlock()

	if !ok {
		return nil, errors.UnknownKind(kind)
	}
	if factory == nil {
		return nil, errors.NotInstantiable(kind)
	}

	resolved, _, err := ResolveConfig(desc, cfg, allowUnknown)
	if err != nil {
		return nil, err
	}

	handle, err := factory(ctx, resolved)
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.NotInstantiable(kind).WithCause(err)
	}
	return handle, nil
}

// Compatible reports whether from equals to or a conversion was declared.
func (c *Catalog) Compatible(from, to ResourceKind) bool {
	if from == to {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conversions[conversion{from: from, to: to}]
}

// Kinds returns sorted names of all registered pass kinds.
func (c *Catalog) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kinds := make([]string, 0, len(c.entries))
	for kind := range c.entries {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Load registers every pass and conversion of a catalog file. Every pass is
// checked before any is registered, so a file with an invalid or duplicate
// pass leaves the catalog unchanged.
func (c *Catalog) Load(file *CatalogFile) error {
	descs := make([]Descriptor, 0, len(file.Passes))
	inFile := make(map[string]bool, len(file.Passes))
	for _, def := range file.Passes {
		desc, err := def.Descriptor()
		if err != nil {
			return err
		}
		desc = desc.Clone()
		desc.normalize()
		if err := desc.Validate(); err != nil {
			return err
		}
		if inFile[desc.Kind] {
			return errors.AlreadyExists("pass kind", desc.Kind).WithDetail("catalog", file.Name)
		}
		inFile[desc.Kind] = true
		descs = append(descs, desc)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, desc := range descs {
		if _, exists := c.entries[desc.Kind]; exists {
			return errors.AlreadyExists("pass kind", desc.Kind).WithDetail("catalog", file.Name)
		}
	}
	for _, desc := range descs {
		c.entries[desc.Kind] = &entry{desc: desc}
	}
	for _, conv := range file.Conversions {
		c.conversions[conversion{from: conv.From, to: conv.To}] = true
	}
	return nil
}
