// Package pass defines what a render pass looks like from the outside: its
// typed input and output ports, its option schema, and the Registry contract
// through which graphs look pass kinds up and engines instantiate them.
//
// Catalog is the in-memory Registry. Kinds are registered from Go code or
// loaded from YAML catalog files:
//
//	cat := pass.NewCatalog()
//	f, err := pass.LoadCatalogFile("passes/standard.yaml")
//	if err == nil {
//	    err = cat.Load(f)
//	}
//
// Ports are addressed as PortID{Pass, Port}, written "Pass.port".
package pass
