// Package authoring wires the render graph packages into one Workspace.
//
// A Workspace is built from a config.Config, either given to New or read by
// Load from config.yml, .env and the environment. It owns the pass catalog, the
// logger, the engine and the optional OpenTelemetry exporters, and it creates
// graphs that inherit the configured validation settings.
//
//	ws, err := authoring.Load("studio", authoring.WithEngine(myEngine))
//	if err != nil {
//		return err
//	}
//	defer ws.Shutdown(ctx)
//
//	g := ws.CreateGraph("PathTracer")
//	// add passes, connect ports, mark outputs
//	if report := ws.Validate(ctx, g); !report.OK() {
//		return report.Err()
//	}
//	snap, err := ws.Submit(ctx, g)
package authoring
