package pass

import (
	"sort"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/rendergraph/errors"
)

// textureFormats maps catalog format names to GPU texture formats.
var textureFormats = map[string]gputypes.TextureFormat{
	"":                     gputypes.TextureFormatUndefined,
	"rgba8unorm":           gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm":           gputypes.TextureFormatBGRA8Unorm,
	"r8unorm":              gputypes.TextureFormatR8Unorm,
	"depth24plus-stencil8": gputypes.TextureFormatDepth24PlusStencil8,
}

// ParseTextureFormat resolves a catalog format name. The empty string means
// the engine picks the format.
func ParseTextureFormat(name string) (gputypes.TextureFormat, error) {
	f, ok := textureFormats[strings.ToLower(name)]
	if !ok {
		return gputypes.TextureFormatUndefined, errors.InvalidFormat("format", strings.Join(TextureFormatNames(), ", ")).
			WithDetail("value", name)
	}
	return f, nil
}

// TextureFormatNames returns the accepted non-empty format names, sorted.
func TextureFormatNames() []string {
	names := make([]string, 0, len(textureFormats))
	for name := range textureFormats {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
