package pass

import (
	"fmt"
	"math"
	"sort"

	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/validation"
)

// OptionType is the value type of a pass option.
type OptionType string

const (
	OptionBool   OptionType = "bool"
	OptionInt    OptionType = "int"
	OptionFloat  OptionType = "float"
	OptionString OptionType = "string"
	OptionEnum   OptionType = "enum"
	// OptionObject holds a nested option set described by Fields. An object
	// without Fields accepts any mapping.
	OptionObject OptionType = "object"
)

// OptionSpec documents one recognized configuration key of a pass kind.
// An object option left out of a config is filled from the defaults of its
// Fields.
type OptionSpec struct {
	Name        string       `yaml:"name" validate:"required,identifier"`
	Type        OptionType   `yaml:"type" validate:"required,oneof=bool int float string enum object"`
	Description string       `yaml:"description,omitempty"`
	Default     any          `yaml:"default,omitempty"`
	Enum        []string     `yaml:"enum,omitempty"`
	Min         *float64     `yaml:"min,omitempty"`
	Max         *float64     `yaml:"max,omitempty"`
	Fields      []OptionSpec `yaml:"fields,omitempty" validate:"dive"`
}

// Config holds the option values of one pass instance.
type Config map[string]any

// Clone returns a deep copy of the config, including nested objects.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Config:
		return t.Clone()
	case map[string]any:
		return Config(t).Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Has reports whether key is set.
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Keys returns the set keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bool returns the bool value of key, or false.
func (c Config) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// Int returns the integer value of key, or 0.
func (c Config) Int(key string) int {
	if n, ok := toInt(c[key]); ok {
		return n
	}
	return 0
}

// Float returns the numeric value of key, or 0.
func (c Config) Float(key string) float64 {
	if f, ok := toFloat(c[key]); ok {
		return f
	}
	return 0
}

// String returns the string value of key, or "".
func (c Config) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Object returns the nested option set stored under key, or nil.
func (c Config) Object(key string) Config {
	switch t := c[key].(type) {
	case Config:
		return t
	case map[string]any:
		return Config(t)
	default:
		return nil
	}
}

// ResolveConfig checks cfg against the option schema of desc and returns a new
// config with normalized values and defaults filled in.
//
// Keys the schema does not declare fail with UNKNOWN_OPTION unless allowUnknown
// is set, in which case they are copied through and listed in unknown.
// Values of the wrong type or outside the declared range fail with INVALID_OPTION.
func ResolveConfig(desc Descriptor, cfg Config, allowUnknown bool) (resolved Config, unknown []string, err error) {
	r := &resolver{kind: desc.Kind, allowUnknown: allowUnknown, v: validation.New()}
	resolved = r.resolve("", desc.Options, cfg)

	if len(r.unknown) > 0 && !allowUnknown {
		return nil, nil, errors.UnknownOption(desc.Kind, r.unknown[0]).
			WithDetail("options", r.unknown)
	}
	if r.v.HasErrors() {
		first := r.v.Errors()[0]
		return nil, nil, errors.InvalidOption(desc.Kind, first.Field, first.Message).
			WithDetail("fields", r.v.Errors())
	}
	return resolved, r.unknown, nil
}

type resolver struct {
	kind         string
	allowUnknown bool
	v            *validation.Validator
	unknown      []string
}

func (r *resolver) resolve(prefix string, specs []OptionSpec, cfg Config) Config {
	byName := make(map[string]*OptionSpec, len(specs))
	for i := range specs {
		byName[specs[i].Name] = &specs[i]
	}

	out := make(Config, len(cfg)+len(specs))
	for _, key := range cfg.Keys() {
		path := prefix + key
		spec, ok := byName[key]
		if !ok {
			r.unknown = append(r.unknown, path)
			out[key] = cloneValue(cfg[key])
			continue
		}
		if value, ok := r.coerce(path, spec, cfg[key]); ok {
			out[key] = value
		}
	}

	for i := range specs {
		spec := &specs[i]
		if _, set := cfg[spec.Name]; set {
			continue
		}
		if spec.Default == nil {
			// An absent object still carries the defaults of its fields.
			if spec.Type == OptionObject && len(spec.Fields) > 0 {
				if nested := r.resolve(prefix+spec.Name+".", spec.Fields, nil); len(nested) > 0 {
					out[spec.Name] = nested
				}
			}
			continue
		}
		if value, ok := r.coerce(prefix+spec.Name, spec, spec.Default); ok {
			out[spec.Name] = value
		}
	}
	return out
}

func (r *resolver) coerce(path string, spec *OptionSpec, value any) (any, bool) {
	before := len(r.v.Errors())

	var out any
	switch spec.Type {
	case OptionBool:
		b, ok := value.(bool)
		r.v.Custom(ok, path, "must be a bool")
		out = b
	case OptionInt:
		n, ok := toInt(value)
		r.v.Custom(ok, path, "must be an integer")
		if ok {
			r.v.Range(path, float64(n), spec.Min, spec.Max)
		}
		out = n
	case OptionFloat:
		f, ok := toFloat(value)
		r.v.Custom(ok, path, "must be a number")
		if ok {
			r.v.Range(path, f, spec.Min, spec.Max)
		}
		out = f
	case OptionString:
		s, ok := value.(string)
		r.v.Custom(ok, path, "must be a string")
		out = s
	case OptionEnum:
		s, ok := value.(string)
		r.v.Custom(ok, path, "must be a string")
		if ok {
			r.v.OneOf(path, s, spec.Enum)
		}
		out = s
	case OptionObject:
		var nested Config
		switch t := value.(type) {
		case Config:
			nested = t
		case map[string]any:
			nested = Config(t)
		default:
			r.v.AddError(path, "must be a mapping")
			return nil, false
		}
		if len(spec.Fields) == 0 {
			out = nested.Clone()
		} else {
			out = r.resolve(path+".", spec.Fields, nested)
		}
	default:
		r.v.AddError(path, fmt.Sprintf("has unsupported option type %q", spec.Type))
	}

	return out, len(r.v.Errors()) == before
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		if uint64(n) > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return toInt(float64(n))
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		if i, ok := toInt(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}
