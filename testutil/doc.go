// Package testutil provides shared fixtures for testing code built on the
// render graph packages: a catalog of standard render passes with realistic
// ports and option schemas, the same catalog as a YAML file, and small helpers
// for building graphs in tests.
//
//	cat := testutil.StandardCatalog()
//	g := graph.New("PathTracer", cat)
package testutil
