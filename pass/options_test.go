package pass

import (
	"testing"

	"github.com/kbukum/rendergraph/errors"
)

func f64(v float64) *float64 { return &v }

func optionsDescriptor() Descriptor {
	return Descriptor{
		Kind: "PathTracer",
		Options: []OptionSpec{
			{Name: "samplesPerPixel", Type: OptionInt, Default: 1, Min: f64(1)},
			{Name: "useReSTIR", Type: OptionBool, Default: false},
			{Name: "emissiveSampler", Type: OptionEnum, Enum: []string{"Uniform", "LightBVH", "Power"}, Default: "LightBVH"},
			{Name: "exposure", Type: OptionFloat, Min: f64(-12), Max: f64(12)},
			{Name: "label", Type: OptionString},
			{Name: "ReSTIRGDIOptions", Type: OptionObject, Fields: []OptionSpec{
				{Name: "useTemporalResampling", Type: OptionBool, Default: true},
				{Name: "temporalMode", Type: OptionString},
			}},
			{Name: "extra", Type: OptionObject},
		},
	}
}

func TestResolveConfig_Defaults(t *testing.T) {
	got, unknown, err := ResolveConfig(optionsDescriptor(), nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unexpected unknown keys: %v", unknown)
	}
	if got.Int("samplesPerPixel") != 1 {
		t.Errorf("samplesPerPixel = %v", got["samplesPerPixel"])
	}
	if got.String("emissiveSampler") != "LightBVH" {
		t.Errorf("emissiveSampler = %v", got["emissiveSampler"])
	}
	if !got.Has("useReSTIR") || got.Bool("useReSTIR") {
		t.Errorf("useReSTIR = %v", got["useReSTIR"])
	}
	if got.Has("exposure") {
		t.Error("options without default must stay unset")
	}
	if nested := got.Object("ReSTIRGDIOptions"); nested == nil || !nested.Bool("useTemporalResampling") || nested.Has("temporalMode") {
		t.Errorf("ReSTIRGDIOptions = %v, want field defaults only", got["ReSTIRGDIOptions"])
	}
	if got.Has("extra") {
		t.Error("free-form object without default must stay unset")
	}
}

func TestResolveConfig_Coercion(t *testing.T) {
	cfg := Config{
		"samplesPerPixel": 4.0,
		"exposure":        2,
		"ReSTIRGDIOptions": map[string]any{
			"temporalMode": "Reservoir",
		},
	}
	got, _, err := ResolveConfig(optionsDescriptor(), cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, ok := got["samplesPerPixel"].(int); !ok || n != 4 {
		t.Errorf("samplesPerPixel = %#v", got["samplesPerPixel"])
	}
	if f, ok := got["exposure"].(float64); !ok || f != 2 {
		t.Errorf("exposure = %#v", got["exposure"])
	}
	nested := got.Object("ReSTIRGDIOptions")
	if nested.String("temporalMode") != "Reservoir" {
		t.Errorf("temporalMode = %v", nested["temporalMode"])
	}
	if !nested.Bool("useTemporalResampling") {
		t.Error("nested default not applied")
	}
	if _, set := cfg["ReSTIRGDIOptions"].(map[string]any)["useTemporalResampling"]; set {
		t.Error("input config was modified")
	}
}

func TestResolveConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{name: "wrong type", cfg: Config{"useReSTIR": "yes"}, field: "useReSTIR"},
		{name: "fractional int", cfg: Config{"samplesPerPixel": 1.5}, field: "samplesPerPixel"},
		{name: "uint64 above max int", cfg: Config{"samplesPerPixel": uint64(1<<63 + 5)}, field: "samplesPerPixel"},
		{name: "float above int range", cfg: Config{"samplesPerPixel": 1e20}, field: "samplesPerPixel"},
		{name: "float below int range", cfg: Config{"samplesPerPixel": -1e20}, field: "samplesPerPixel"},
		{name: "below min", cfg: Config{"samplesPerPixel": 0}, field: "samplesPerPixel"},
		{name: "above max", cfg: Config{"exposure": 13.0}, field: "exposure"},
		{name: "enum value", cfg: Config{"emissiveSampler": "Random"}, field: "emissiveSampler"},
		{name: "object", cfg: Config{"extra": 3}, field: "extra"},
		{name: "nested", cfg: Config{"ReSTIRGDIOptions": Config{"temporalMode": 1}}, field: "ReSTIRGDIOptions.temporalMode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ResolveConfig(optionsDescriptor(), tt.cfg, false)
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeInvalidOption {
				t.Fatalf("expected INVALID_OPTION, got %v", err)
			}
			if appErr.Details["option"] != tt.field {
				t.Errorf("option = %v, want %s", appErr.Details["option"], tt.field)
			}
		})
	}
}

func TestResolveConfig_UnknownOptions(t *testing.T) {
	cfg := Config{"samplesPerPixel": 2, "bogus": true, "ReSTIRGDIOptions": Config{"nope": 1}}

	_, _, err := ResolveConfig(optionsDescriptor(), cfg, false)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeUnknownOption {
		t.Fatalf("expected UNKNOWN_OPTION, got %v", err)
	}
	keys, _ := appErr.Details["options"].([]string)
	if len(keys) != 2 {
		t.Fatalf("expected 2 unknown keys, got %v", keys)
	}

	got, unknown, err := ResolveConfig(optionsDescriptor(), cfg, true)
	if err != nil {
		t.Fatalf("lenient resolve failed: %v", err)
	}
	if len(unknown) != 2 || unknown[0] != "ReSTIRGDIOptions.nope" || unknown[1] != "bogus" {
		t.Errorf("unknown = %v", unknown)
	}
	if !got.Bool("bogus") {
		t.Error("unknown key was not kept")
	}
}

func TestResolveConfig_FreeFormObject(t *testing.T) {
	cfg := Config{"extra": map[string]any{"anything": []any{1, "two"}}}
	got, _, err := ResolveConfig(optionsDescriptor(), cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.Object("extra")["anything"].([]any)[0] = 9
	if cfg["extra"].(map[string]any)["anything"].([]any)[0] != 1 {
		t.Error("free-form object shares storage with input")
	}
}

func TestConfig_Accessors(t *testing.T) {
	c := Config{"b": true, "i": 3, "f": 1.5, "s": "x", "o": map[string]any{"k": 1}}
	if !c.Bool("b") || c.Int("i") != 3 || c.Float("f") != 1.5 || c.String("s") != "x" {
		t.Errorf("accessors returned wrong values: %v", c)
	}
	if c.Float("i") != 3 {
		t.Error("Float should accept integers")
	}
	if c.Int("missing") != 0 || c.Object("s") != nil {
		t.Error("expected zero values")
	}
	keys := c.Keys()
	if len(keys) != 5 || keys[0] != "b" || keys[4] != "s" {
		t.Errorf("Keys() = %v", keys)
	}
	clone := c.Clone()
	clone.Object("o")["k"] = 2
	if c.Object("o").Int("k") != 1 {
		t.Error("Clone is not deep")
	}
	if Config(nil).Clone() != nil {
		t.Error("nil clone should be nil")
	}
}
