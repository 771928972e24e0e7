package graph

import "github.com/kbukum/rendergraph/pass"

// Edge connects an output port to an input port.
type Edge struct {
	From pass.PortID
	To   pass.PortID
}

// String renders the edge as "A.out -> B.in".
func (e Edge) String() string {
	return e.From.String() + " -> " + e.To.String()
}
