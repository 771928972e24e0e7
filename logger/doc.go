// Package logger provides structured logging for the render graph packages
// using zerolog.
//
// It supports JSON and console output, level configuration, and component-scoped
// loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("rendergraph").WithComponent("graph")
//	log.Debug("edge added", logger.Fields("from", "A.color", "to", "B.src"))
package logger
