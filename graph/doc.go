// Package graph assembles render graphs and checks whether they can run.
//
// A Graph is a single-owner builder. Passes are added by kind from a
// pass.Registry, which supplies their ports and option schema; edges join an
// output port to an input port; marked outputs name the results the engine
// must keep. Structural mistakes that are cheap to detect (unknown names,
// wrong port direction, a second edge into an input) reject the offending call
// and leave the graph as it was. Global properties are checked by Validate,
// which never fails and returns every diagnostic at once:
//
//	g := graph.New("PathTracer", cat)
//	_, _ = g.AddPass("VBufferRT", "VBufferRT", pass.Config{"samplePattern": "Stratified"})
//	_, _ = g.AddPass("PathTracer", "PathTracer", nil)
//	_ = g.Connect("VBufferRT.vbuffer", "PathTracer.vbuffer")
//	_ = g.MarkOutput(pass.Port("PathTracer", "color"))
//
//	report := g.Validate()
//	if !report.OK() {
//	    return report.Err()
//	}
//
// Graphs carry no locks. Once Freeze is called, typically by engine.Submit,
// every mutation fails with GRAPH_FROZEN.
package graph
