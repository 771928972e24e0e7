package pass

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/rendergraph/errors"
)

func blitDescriptor() Descriptor {
	return Descriptor{
		Kind:    "Blit",
		Inputs:  []PortDescriptor{{Name: "src", Kind: KindColor, Required: true}},
		Outputs: []PortDescriptor{{Name: "dst", Kind: KindColor}},
		Options: []OptionSpec{{Name: "filter", Type: OptionEnum, Enum: []string{"Linear", "Point"}, Default: "Linear"}},
	}
}

type recordedHandle struct {
	cfg Config
}

func recordingFactory(_ context.Context, cfg Config) (Handle, error) {
	return &recordedHandle{cfg: cfg}, nil
}

func TestDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Descriptor)
	}{
		{name: "empty kind", mutate: func(d *Descriptor) { d.Kind = "" }},
		{name: "kind with dot", mutate: func(d *Descriptor) { d.Kind = "Blit.v2" }},
		{name: "port without resource", mutate: func(d *Descriptor) { d.Inputs[0].Kind = "" }},
		{name: "duplicate port", mutate: func(d *Descriptor) { d.Outputs[0].Name = "src" }},
		{name: "required output", mutate: func(d *Descriptor) { d.Outputs[0].Required = true }},
		{name: "input declared as output", mutate: func(d *Descriptor) { d.Inputs[0].Direction = Output }},
		{name: "enum without values", mutate: func(d *Descriptor) { d.Options[0].Enum = nil }},
		{name: "bad default", mutate: func(d *Descriptor) { d.Options[0].Default = "Cubic" }},
		{name: "fields on scalar", mutate: func(d *Descriptor) {
			d.Options[0].Fields = []OptionSpec{{Name: "x", Type: OptionInt}}
		}},
		{name: "min above max", mutate: func(d *Descriptor) {
			d.Options = append(d.Options, OptionSpec{Name: "n", Type: OptionInt, Min: f64(2), Max: f64(1)})
		}},
		{name: "duplicate option", mutate: func(d *Descriptor) { d.Options = append(d.Options, d.Options[0]) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := blitDescriptor()
			d.normalize()
			tt.mutate(&d)
			if err := d.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	d := blitDescriptor()
	d.normalize()
	if err := d.Validate(); err != nil {
		t.Fatalf("valid descriptor rejected: %v", err)
	}
}

func TestDescriptor_Lookups(t *testing.T) {
	d := blitDescriptor()
	if _, ok := d.Input("src"); !ok {
		t.Error("expected input src")
	}
	if _, ok := d.Input("dst"); ok {
		t.Error("dst is an output")
	}
	if _, ok := d.Output("dst"); !ok {
		t.Error("expected output dst")
	}
	if req := d.RequiredInputs(); len(req) != 1 || req[0] != "src" {
		t.Errorf("RequiredInputs() = %v", req)
	}
	if o, ok := d.Option("filter"); !ok || o.Type != OptionEnum {
		t.Errorf("Option(filter) = %+v, %v", o, ok)
	}
}

func TestCatalog_Register(t *testing.T) {
	cat := NewCatalog()
	if err := cat.Register(blitDescriptor(), recordingFactory); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := cat.Register(blitDescriptor(), nil)
	if !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}

	desc, err := cat.Describe("Blit")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if desc.Inputs[0].Direction != Input || desc.Outputs[0].Direction != Output {
		t.Errorf("directions not normalized: %+v", desc)
	}

	desc.Inputs[0].Name = "changed"
	again, _ := cat.Describe("Blit")
	if again.Inputs[0].Name != "src" {
		t.Error("Describe must return a copy")
	}

	if _, err := cat.Describe("Nope"); !errors.HasCode(err, errors.ErrCodeUnknownKind) {
		t.Fatalf("expected UNKNOWN_KIND, got %v", err)
	}
}

func TestCatalog_RegisterInvalid(t *testing.T) {
	cat := NewCatalog()
	d := blitDescriptor()
	d.Inputs[0].Name = "bad name"
	if err := cat.Register(d, nil); err == nil {
		t.Fatal("expected error for invalid port name")
	}
	if len(cat.Kinds()) != 0 {
		t.Error("invalid descriptor must not be registered")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustRegister should panic")
		}
	}()
	cat.MustRegister(d, nil)
}

func TestCatalog_Instantiate(t *testing.T) {
	cat := NewCatalog()
	cat.MustRegister(blitDescriptor(), recordingFactory)
	ctx := context.Background()

	h, err := cat.Instantiate(ctx, "Blit", nil)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	rec, ok := h.(*recordedHandle)
	if !ok {
		t.Fatalf("unexpected handle %T", h)
	}
	if rec.cfg.String("filter") != "Linear" {
		t.Errorf("factory got unresolved config: %v", rec.cfg)
	}

	if _, err := cat.Instantiate(ctx, "Nope", nil); !errors.HasCode(err, errors.ErrCodeUnknownKind) {
		t.Errorf("expected UNKNOWN_KIND, got %v", err)
	}
	if _, err := cat.Instantiate(ctx, "Blit", Config{"filter": "Cubic"}); !errors.HasCode(err, errors.ErrCodeInvalidOption) {
		t.Errorf("expected INVALID_OPTION, got %v", err)
	}
	if _, err := cat.Instantiate(ctx, "Blit", Config{"scale": 2}); !errors.HasCode(err, errors.ErrCodeUnknownOption) {
		t.Errorf("expected UNKNOWN_OPTION, got %v", err)
	}
}

func TestCatalog_InstantiateLenient(t *testing.T) {
	cat := NewCatalog(WithUnknownOptions(true))
	cat.MustRegister(blitDescriptor(), recordingFactory)

	h, err := cat.Instantiate(context.Background(), "Blit", Config{"scale": 2})
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	if h.(*recordedHandle).cfg.Int("scale") != 2 {
		t.Error("unknown key should pass through")
	}
}

func TestCatalog_Factories(t *testing.T) {
	cat := NewCatalog()
	cat.MustRegister(blitDescriptor(), nil)
	ctx := context.Background()

	if _, err := cat.Instantiate(ctx, "Blit", nil); !errors.HasCode(err, errors.ErrCodeNotInstantiable) {
		t.Fatalf("expected NOT_INSTANTIABLE, got %v", err)
	}

	boom := stderrors.New("no device")
	if err := cat.BindFactory("Blit", func(context.Context, Config) (Handle, error) { return nil, boom }); err != nil {
		t.Fatalf("BindFactory failed: %v", err)
	}
	_, err := cat.Instantiate(ctx, "Blit", nil)
	if !errors.HasCode(err, errors.ErrCodeNotInstantiable) || !stderrors.Is(err, boom) {
		t.Fatalf("expected wrapped factory error, got %v", err)
	}

	if err := cat.BindFactory("Nope", recordingFactory); !errors.HasCode(err, errors.ErrCodeUnknownKind) {
		t.Fatalf("expected UNKNOWN_KIND, got %v", err)
	}
}

func TestCatalog_Compatible(t *testing.T) {
	cat := NewCatalog()
	if !cat.Compatible(KindColor, KindColor) {
		t.Error("equal kinds must be compatible")
	}
	if cat.Compatible(KindIllumination, KindColor) {
		t.Error("undeclared conversion must be incompatible")
	}
	cat.AllowConversion(KindIllumination, KindColor)
	if !cat.Compatible(KindIllumination, KindColor) {
		t.Error("declared conversion must be compatible")
	}
	if cat.Compatible(KindColor, KindIllumination) {
		t.Error("conversions are directed")
	}
}

func TestCatalog_Kinds(t *testing.T) {
	cat := NewCatalog()
	for _, kind := range []string{"ToneMapper", "Accumulate", "Blit"} {
		d := blitDescriptor()
		d.Kind = kind
		cat.MustRegister(d, nil)
	}
	kinds := cat.Kinds()
	want := []string{"Accumulate", "Blit", "ToneMapper"}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("Kinds() = %v, want %v", kinds, want)
		}
	}
}

const catalogYAML = `name: test
conversions:
  - {from: illumination, to: color}
passes:
  - kind: Blit
    inputs:
      - {name: src, resource: color}
      - {name: mask, resource: color, optional: true}
    outputs:
      - {name: dst, resource: color, format: bgra8unorm}
    options:
      - {name: filter, type: enum, enum: [Linear, Point], default: Linear}
      - {name: scale, type: float, default: 1.0, min: 0}
`

func writeCatalog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalogFile(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), "test.yaml", catalogYAML)

	f, err := LoadCatalogFile(path)
	if err != nil {
		t.Fatalf("LoadCatalogFile failed: %v", err)
	}
	cat := NewCatalog()
	if err := cat.Load(f); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	desc, err := cat.Describe("Blit")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	src, _ := desc.Input("src")
	mask, _ := desc.Input("mask")
	if !src.Required || mask.Required {
		t.Errorf("required flags wrong: src=%v mask=%v", src.Required, mask.Required)
	}
	dst, _ := desc.Output("dst")
	if dst.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("dst format = %v", dst.Format)
	}
	if !cat.Compatible(KindIllumination, KindColor) {
		t.Error("conversion not loaded")
	}
	if _, err := cat.Instantiate(context.Background(), "Blit", nil); !errors.HasCode(err, errors.ErrCodeNotInstantiable) {
		t.Errorf("loaded kinds have no factory, got %v", err)
	}
}

func TestLoadCatalogFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadCatalogFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeCatalog(t, dir, "bad.yaml", "passes: [")
	if _, err := LoadCatalogFile(bad); err == nil {
		t.Error("expected parse error")
	}

	format := writeCatalog(t, dir, "format.yaml", `passes:
  - kind: Blit
    outputs:
      - {name: dst, resource: color, format: rgb565}
`)
	f, err := LoadCatalogFile(format)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := NewCatalog().Load(f); !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}
}

func TestCatalog_LoadIsAtomic(t *testing.T) {
	tests := []struct {
		name string
		file *CatalogFile
		code errors.ErrorCode
	}{
		{
			name: "invalid later pass",
			file: &CatalogFile{
				Name:        "broken",
				Conversions: []ConversionDef{{From: KindIllumination, To: KindColor}},
				Passes: []PassDef{
					{Kind: "Blit", Inputs: []PortDef{{Name: "src", Resource: KindColor}}},
					{Kind: "Bad Kind"},
				},
			},
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "duplicate within file",
			file: &CatalogFile{
				Name:        "dup",
				Conversions: []ConversionDef{{From: KindIllumination, To: KindColor}},
				Passes:      []PassDef{{Kind: "Blit"}, {Kind: "Blit"}},
			},
			code: errors.ErrCodeAlreadyExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := NewCatalog()
			if err := cat.Load(tt.file); !errors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if kinds := cat.Kinds(); len(kinds) != 0 {
				t.Errorf("failed load registered %v", kinds)
			}
			if cat.Compatible(KindIllumination, KindColor) {
				t.Error("failed load declared a conversion")
			}
		})
	}

	t.Run("clash with registered kind", func(t *testing.T) {
		cat := NewCatalog()
		cat.MustRegister(blitDescriptor(), nil)
		file := &CatalogFile{Passes: []PassDef{{Kind: "ToneMapper"}, {Kind: "Blit"}}}
		if err := cat.Load(file); !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
			t.Fatalf("expected ALREADY_EXISTS, got %v", err)
		}
		if _, err := cat.Describe("ToneMapper"); err == nil {
			t.Error("ToneMapper registered by a failed load")
		}
	})
}

func TestFileCatalogLoader(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "base.yaml", catalogYAML)
	writeCatalog(t, dir, "post/post.yml", `name: post
passes:
  - kind: ToneMapper
    inputs: [{name: src, resource: color}]
    outputs: [{name: dst, resource: color}]
`)
	loader := NewFileCatalogLoader(dir)

	f, err := loader.Load("base")
	if err != nil || f.Name != "test" {
		t.Fatalf("Load(base) = %v, %v", f, err)
	}
	f, err = loader.Load("post")
	if err != nil || f.Name != "post" {
		t.Fatalf("Load(post) from subdirectory = %v, %v", f, err)
	}
	if _, err := loader.Load("missing"); err == nil {
		t.Error("expected error for missing catalog")
	}

	all, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("LoadAll reads only the top level, got %d files", len(all))
	}
}

func TestLoadCatalog_Paths(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, "one.yaml", catalogYAML)

	f, err := LoadCatalog("test", filepath.Join(dir, "nope.yaml"), path)
	if err != nil || len(f.Passes) != 1 {
		t.Fatalf("LoadCatalog = %v, %v", f, err)
	}
	if _, err := LoadCatalog("test", filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("expected error when no path loads")
	}
}
