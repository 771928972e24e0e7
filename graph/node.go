package graph

import "github.com/kbukum/rendergraph/pass"

// Node is a named instance of a pass kind inside a graph. Its ports are copied
// from the registry descriptor when the pass is added.
type Node struct {
	Name        string
	Kind        string
	Config      pass.Config
	Inputs      []pass.PortDescriptor
	Outputs     []pass.PortDescriptor
	ScratchOnly bool

	unknownOptions []string
}

// Input looks up an input port by name.
func (n *Node) Input(name string) (pass.PortDescriptor, bool) {
	return findPort(n.Inputs, name)
}

// Output looks up an output port by name.
func (n *Node) Output(name string) (pass.PortDescriptor, bool) {
	return findPort(n.Outputs, name)
}

// UnknownOptions lists config keys the kind does not declare. It is only
// non-empty on graphs that allow unknown options.
func (n *Node) UnknownOptions() []string {
	return append([]string(nil), n.unknownOptions...)
}

func (n *Node) clone() *Node {
	return &Node{
		Name:           n.Name,
		Kind:           n.Kind,
		Config:         n.Config.Clone(),
		Inputs:         append([]pass.PortDescriptor(nil), n.Inputs...),
		Outputs:        append([]pass.PortDescriptor(nil), n.Outputs...),
		ScratchOnly:    n.ScratchOnly,
		unknownOptions: append([]string(nil), n.unknownOptions...),
	}
}

func findPort(ports []pass.PortDescriptor, name string) (pass.PortDescriptor, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return pass.PortDescriptor{}, false
}
