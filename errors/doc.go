// Package errors provides the structured error type shared by the render graph
// packages. Every failure carries a machine-readable ErrorCode so callers can
// branch on the condition (fan-in conflict, unknown port, cycle) without parsing
// messages, and validation diagnostics reuse the same type.
package errors
