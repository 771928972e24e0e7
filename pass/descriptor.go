package pass

import (
	"fmt"

	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/validation"
)

// Descriptor is the contract a pass kind publishes to the graph: its ports and
// its option schema. The graph never looks past it into pass internals.
type Descriptor struct {
	Kind        string           `yaml:"kind" validate:"required,identifier"`
	Description string           `yaml:"description,omitempty"`
	Inputs      []PortDescriptor `yaml:"inputs,omitempty" validate:"dive"`
	Outputs     []PortDescriptor `yaml:"outputs,omitempty" validate:"dive"`
	Options     []OptionSpec     `yaml:"options,omitempty" validate:"dive"`
	// ScratchOnly passes produce intermediates only; none of their outputs may
	// be marked as a graph output.
	ScratchOnly bool `yaml:"scratch_only,omitempty"`
}

// Input looks up an input port by name.
func (d Descriptor) Input(name string) (PortDescriptor, bool) {
	return findPort(d.Inputs, name)
}

// Output looks up an output port by name.
func (d Descriptor) Output(name string) (PortDescriptor, bool) {
	return findPort(d.Outputs, name)
}

// RequiredInputs returns the names of inputs that must be connected.
func (d Descriptor) RequiredInputs() []string {
	var names []string
	for _, p := range d.Inputs {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Option looks up an option spec by name.
func (d Descriptor) Option(name string) (OptionSpec, bool) {
	for _, o := range d.Options {
		if o.Name == name {
			return o, true
		}
	}
	return OptionSpec{}, false
}

// Clone returns a deep copy so registries can hand out descriptors without
// sharing their backing arrays.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Inputs = append([]PortDescriptor(nil), d.Inputs...)
	out.Outputs = append([]PortDescriptor(nil), d.Outputs...)
	out.Options = cloneOptions(d.Options)
	return out
}

func cloneOptions(specs []OptionSpec) []OptionSpec {
	if specs == nil {
		return nil
	}
	out := make([]OptionSpec, len(specs))
	for i, s := range specs {
		out[i] = s
		out[i].Default = cloneValue(s.Default)
		out[i].Enum = append([]string(nil), s.Enum...)
		out[i].Fields = cloneOptions(s.Fields)
	}
	return out
}

// normalize fills in port directions from the list a port is declared in.
func (d *Descriptor) normalize() {
	for i := range d.Inputs {
		if d.Inputs[i].Direction == "" {
			d.Inputs[i].Direction = Input
		}
	}
	for i := range d.Outputs {
		if d.Outputs[i].Direction == "" {
			d.Outputs[i].Direction = Output
		}
	}
}

// Validate checks the descriptor is well formed: struct tags first, then port
// name uniqueness, direction consistency, and option defaults.
func (d Descriptor) Validate() error {
	if err := validation.Validate(d); err != nil {
		return err
	}

	v := validation.New()
	names := make([]string, 0, len(d.Inputs)+len(d.Outputs))
	for i, p := range d.Inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		v.Custom(p.Direction == Input, field, "is declared as an input but has direction "+string(p.Direction))
		names = append(names, p.Name)
	}
	for i, p := range d.Outputs {
		field := fmt.Sprintf("outputs[%d]", i)
		v.Custom(p.Direction == Output, field, "is declared as an output but has direction "+string(p.Direction))
		v.Custom(!p.Required, field, "outputs cannot be required")
		names = append(names, p.Name)
	}
	v.Unique("ports", names)
	validateOptionSpecs(v, "options", d.Options)

	if appErr := v.Validate(); appErr != nil {
		return appErr.WithDetail("kind", d.Kind)
	}

	if _, _, err := ResolveConfig(d, nil, false); err != nil {
		return errors.Validation(fmt.Sprintf("pass kind %s declares an invalid option default", d.Kind)).WithCause(err)
	}
	return nil
}

func validateOptionSpecs(v *validation.Validator, field string, specs []OptionSpec) {
	names := make([]string, 0, len(specs))
	for i, s := range specs {
		path := fmt.Sprintf("%s[%d]", field, i)
		names = append(names, s.Name)
		v.Custom(s.Type != OptionEnum || len(s.Enum) > 0, path, "enum options must list their values")
		v.Custom(s.Type == OptionObject || len(s.Fields) == 0, path, "only object options may declare fields")
		if s.Min != nil && s.Max != nil {
			v.Custom(*s.Min <= *s.Max, path, "min must not exceed max")
		}
		validateOptionSpecs(v, path+".fields", s.Fields)
	}
	v.Unique(field, names)
}

func findPort(ports []PortDescriptor, name string) (PortDescriptor, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortDescriptor{}, false
}
