package pass

import (
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/rendergraph/errors"
)

// Direction is the data-flow direction of a port.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// ResourceKind is the semantic type of the data a port carries.
// Edges may only join equal kinds unless the registry declares a conversion.
type ResourceKind string

// Well-known resource kinds. Registries may use any other non-empty tag.
const (
	KindColor            ResourceKind = "color"
	KindDepth            ResourceKind = "depth"
	KindMotionVectors    ResourceKind = "motion-vectors"
	KindVisibilityBuffer ResourceKind = "visibility-buffer"
	KindViewDirection    ResourceKind = "view-direction"
	KindNormals          ResourceKind = "normals"
	KindTextureGradients ResourceKind = "texture-gradients"
	KindEmission         ResourceKind = "emission"
	KindIllumination     ResourceKind = "illumination"
	KindReflectance      ResourceKind = "reflectance"
)

// PortDescriptor declares one named data channel of a pass kind.
type PortDescriptor struct {
	Name      string       `yaml:"name" validate:"required,identifier"`
	Direction Direction    `yaml:"direction" validate:"required,oneof=input output"`
	Kind      ResourceKind `yaml:"resource" validate:"required"`
	// Required is only meaningful on inputs: a required input must be fed by
	// exactly one edge before the graph can execute.
	Required bool `yaml:"required"`
	// Format is an allocation hint for the engine; TextureFormatUndefined lets
	// the engine choose.
	Format      gputypes.TextureFormat `yaml:"-"`
	Description string                 `yaml:"description,omitempty"`
}

// PortID addresses a port within a graph.
type PortID struct {
	Pass string
	Port string
}

// Port is shorthand for PortID{Pass: passName, Port: portName}.
func Port(passName, portName string) PortID {
	return PortID{Pass: passName, Port: portName}
}

// String renders the id in the "Pass.port" form accepted by ParsePortID.
func (id PortID) String() string {
	return id.Pass + "." + id.Port
}

// IsZero reports whether the id is unset.
func (id PortID) IsZero() bool {
	return id.Pass == "" && id.Port == ""
}

// ParsePortID parses "Pass.port". The pass name ends at the first dot.
func ParsePortID(s string) (PortID, error) {
	passName, portName, ok := strings.Cut(s, ".")
	if !ok || passName == "" || portName == "" {
		return PortID{}, errors.UnknownPort(s, `expected the form "pass.port"`)
	}
	return PortID{Pass: passName, Port: portName}, nil
}
