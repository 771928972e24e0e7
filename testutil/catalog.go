package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/rendergraph/pass"
)

// Kind names of the standard catalog.
const (
	KindVBufferRT      = "VBufferRT"
	KindPathTracer     = "PathTracer"
	KindReSTIRGDIPass  = "ReSTIRGDIPass"
	KindAccumulatePass = "AccumulatePass"
	KindToneMapper     = "ToneMapper"
	KindBlit           = "Blit"
	KindDepthPrepass   = "DepthPrepass"
)

func ptr(f float64) *float64 { return &f }

func in(name string, kind pass.ResourceKind, required bool) pass.PortDescriptor {
	return pass.PortDescriptor{Name: name, Direction: pass.Input, Kind: kind, Required: required}
}

func out(name string, kind pass.ResourceKind) pass.PortDescriptor {
	return pass.PortDescriptor{Name: name, Direction: pass.Output, Kind: kind}
}

// StandardDescriptors returns the descriptors of the standard catalog.
func StandardDescriptors() []pass.Descriptor {
	depth := out("depth", pass.KindDepth)
	depth.Format = gputypes.TextureFormatDepth24PlusStencil8
	dst := out("dst", pass.KindColor)
	dst.Format = gputypes.TextureFormatRGBA8Unorm

	bounces := func(name string) pass.OptionSpec {
		return pass.OptionSpec{Name: name, Type: pass.OptionInt, Default: 3, Min: ptr(0), Max: ptr(254)}
	}

	return []pass.Descriptor{
		{
			Kind:        KindVBufferRT,
			Description: "Ray traced visibility buffer",
			Outputs: []pass.PortDescriptor{
				out("vbuffer", pass.KindVisibilityBuffer),
				depth,
				out("mvec", pass.KindMotionVectors),
				out("viewW", pass.KindViewDirection),
			},
			Options: []pass.OptionSpec{
				{Name: "samplePattern", Type: pass.OptionEnum, Enum: []string{"Center", "DirectX", "Halton", "Stratified"}, Default: "Center"},
				{Name: "sampleCount", Type: pass.OptionInt, Default: 16, Min: ptr(1)},
				{Name: "useAlphaTest", Type: pass.OptionBool, Default: true},
				{Name: "subPixelRandom", Type: pass.OptionString},
				{Name: "useDOF", Type: pass.OptionBool, Default: true},
			},
		},
		{
			Kind:        KindPathTracer,
			Description: "Reference path tracer",
			Inputs: []pass.PortDescriptor{
				in("vbuffer", pass.KindVisibilityBuffer, true),
				in("viewW", pass.KindViewDirection, false),
				in("depth", pass.KindDepth, false),
				in("mvec", pass.KindMotionVectors, false),
			},
			Outputs: []pass.PortDescriptor{out("color", pass.KindColor)},
			Options: []pass.OptionSpec{
				{Name: "samplesPerPixel", Type: pass.OptionInt, Default: 1, Min: ptr(1)},
				{Name: "useReSTIR", Type: pass.OptionBool, Default: false},
				{Name: "emissiveSampler", Type: pass.OptionEnum, Enum: []string{"Uniform", "LightBVH", "Power"}, Default: "LightBVH"},
				bounces("maxSurfaceBounces"),
				bounces("maxDiffuseBounces"),
				bounces("maxSpecularBounces"),
				bounces("maxTransmissionBounces"),
				{Name: "disableCaustics", Type: pass.OptionBool, Default: false},
				{Name: "ReSTIRGDIOptions", Type: pass.OptionObject, Fields: []pass.OptionSpec{
					{Name: "resampleEmissionMode", Type: pass.OptionString},
					{Name: "useTemporalResampling", Type: pass.OptionBool},
					{Name: "useSpatialResampling", Type: pass.OptionBool},
					{Name: "temporalMode", Type: pass.OptionString},
					{Name: "temporalShiftMappingModeRIS1", Type: pass.OptionString},
					{Name: "temporalShiftMappingModeRIS2", Type: pass.OptionString},
					{Name: "spatialShiftMappingMode", Type: pass.OptionString},
					{Name: "optimizeShift2RIS", Type: pass.OptionBool},
				}},
			},
		},
		{
			Kind:        KindReSTIRGDIPass,
			Description: "Direct illumination with spatiotemporal reservoir resampling",
			Inputs: []pass.PortDescriptor{
				in("vbuffer", pass.KindVisibilityBuffer, true),
				in("texGrads", pass.KindTextureGradients, false),
				in("mvec", pass.KindMotionVectors, false),
			},
			Outputs: []pass.PortDescriptor{
				out("color", pass.KindColor),
				out("emission", pass.KindEmission),
				out("diffuseIllumination", pass.KindIllumination),
				out("diffuseReflectance", pass.KindReflectance),
				out("specularIllumination", pass.KindIllumination),
				out("specularReflectance", pass.KindReflectance),
			},
			Options: []pass.OptionSpec{
				{Name: "options", Type: pass.OptionObject},
			},
		},
		{
			Kind:        KindAccumulatePass,
			Description: "Temporal accumulation",
			Inputs:      []pass.PortDescriptor{in("input", pass.KindColor, true)},
			Outputs:     []pass.PortDescriptor{out("output", pass.KindColor)},
			Options: []pass.OptionSpec{
				{Name: "enabled", Type: pass.OptionBool, Default: true},
				{Name: "precisionMode", Type: pass.OptionEnum, Enum: []string{"Double", "Single", "SingleCompensated"}, Default: "Single"},
			},
		},
		{
			Kind:        KindToneMapper,
			Description: "HDR to LDR tone mapping",
			Inputs:      []pass.PortDescriptor{in("src", pass.KindColor, true)},
			Outputs:     []pass.PortDescriptor{dst},
			Options: []pass.OptionSpec{
				{Name: "autoExposure", Type: pass.OptionBool, Default: false},
				{Name: "exposureCompensation", Type: pass.OptionFloat, Default: 0.0, Min: ptr(-12), Max: ptr(12)},
			},
		},
		{
			Kind:    KindBlit,
			Inputs:  []pass.PortDescriptor{in("src", pass.KindColor, true)},
			Outputs: []pass.PortDescriptor{out("dst", pass.KindColor)},
		},
		{
			Kind:        KindDepthPrepass,
			Description: "Depth-only raster prepass",
			Outputs:     []pass.PortDescriptor{out("depth", pass.KindDepth)},
			ScratchOnly: true,
		},
	}
}

// StandardCatalog returns a catalog holding StandardDescriptors, with an
// illumination -> color conversion and a StubFactory bound to every kind.
func StandardCatalog(opts ...pass.CatalogOption) *pass.Catalog {
	cat := pass.NewCatalog(opts...)
	for _, desc := range StandardDescriptors() {
		cat.MustRegister(desc, StubFactory(desc.Kind))
	}
	cat.AllowConversion(pass.KindIllumination, pass.KindColor)
	return cat
}

// StubPass is the runtime handle StubFactory creates.
type StubPass struct {
	Kind   string
	Config pass.Config
}

// StubFactory returns a factory producing *StubPass values.
func StubFactory(kind string) pass.Factory {
	return func(_ context.Context, cfg pass.Config) (pass.Handle, error) {
		return &StubPass{Kind: kind, Config: cfg}, nil
	}
}

// CountingFactory wraps a factory and counts its calls.
type CountingFactory struct {
	mu    sync.Mutex
	calls map[string]int
	inner func(kind string) pass.Factory
}

// NewCountingFactory creates a CountingFactory around StubFactory.
func NewCountingFactory() *CountingFactory {
	return &CountingFactory{calls: make(map[string]int), inner: StubFactory}
}

// For returns the counting factory for kind.
func (f *CountingFactory) For(kind string) pass.Factory {
	next := f.inner(kind)
	return func(ctx context.Context, cfg pass.Config) (pass.Handle, error) {
		f.mu.Lock()
		f.calls[kind]++
		f.mu.Unlock()
		return next(ctx, cfg)
	}
}

// Calls returns how many times kind was instantiated.
func (f *CountingFactory) Calls(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

// FixturePath returns the absolute path of a file under testutil/fixtures.
func FixturePath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "fixtures", name)
}
