package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the unified error type for graph construction, validation and handoff.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Graph construction ---

// DuplicateName creates an error for a pass name that is already taken.
func DuplicateName(pass string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateName, Message: fmt.Sprintf("pass %q already exists in the graph", pass),
		Details: map[string]any{"pass": pass},
	}
}

// UnknownKind creates an error for a pass kind the registry does not know.
func UnknownKind(kind string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownKind, Message: fmt.Sprintf("pass kind %q is not registered", kind),
		Details: map[string]any{"kind": kind},
	}
}

// UnknownPort creates an error for a port that cannot be resolved.
// The reason says which part of the address failed.
func UnknownPort(port, reason string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownPort, Message: fmt.Sprintf("port %q: %s", port, reason),
		Details: map[string]any{"port": port, "reason": reason},
	}
}

// FanInConflict creates an error for an input that already has an incoming edge.
func FanInConflict(to, existingFrom string) *AppError {
	return &AppError{
		Code: ErrCodeFanInConflict,
		Message: fmt.Sprintf("input %q is already connected to %q; remove that edge first", to, existingFrom),
		Details: map[string]any{"to": to, "existing_from": existingFrom},
	}
}

// NotMarkable creates an error for an output of a pass that cannot be a graph output.
func NotMarkable(port, kind string) *AppError {
	return &AppError{
		Code: ErrCodeNotMarkable, Message: fmt.Sprintf("port %q belongs to a %s pass, which cannot produce graph outputs", port, kind),
		Details: map[string]any{"port": port, "kind": kind},
	}
}

// GraphFrozen creates an error for a mutation attempted after handoff.
func GraphFrozen(graph string) *AppError {
	return &AppError{
		Code: ErrCodeGraphFrozen, Message: fmt.Sprintf("graph %q was submitted and is read-only", graph),
		Details: map[string]any{"graph": graph},
	}
}

// LimitExceeded creates an error for a configured limit that was reached.
func LimitExceeded(what string, limit int) *AppError {
	return &AppError{
		Code: ErrCodeLimitExceeded, Message: fmt.Sprintf("%s limit of %d reached", what, limit),
		Details: map[string]any{"limit": limit, "resource": what},
	}
}

// --- Pass configuration ---

// UnknownOption creates an error for a config key the pass kind does not declare.
func UnknownOption(kind, key string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownOption, Message: fmt.Sprintf("unknown option %q for pass kind %s", key, kind),
		Details: map[string]any{"kind": kind, "option": key},
	}
}

// InvalidOption creates an error for a config value that violates the option schema.
func InvalidOption(kind, key, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidOption, Message: fmt.Sprintf("option %q for pass kind %s %s", key, kind, reason),
		Details: map[string]any{"kind": kind, "option": key, "reason": reason},
	}
}

// --- Validation diagnostics ---

// TypeMismatch creates an error for an edge joining incompatible resource kinds.
func TypeMismatch(from, to, fromKind, toKind string) *AppError {
	return &AppError{
		Code: ErrCodeTypeMismatch,
		Message: fmt.Sprintf("edge %s -> %s carries %s into an input expecting %s", from, to, fromKind, toKind),
		Details: map[string]any{"from": from, "to": to, "from_kind": fromKind, "to_kind": toKind},
	}
}

// UnconnectedInput creates an error for a required input with no incoming edge.
func UnconnectedInput(port string) *AppError {
	return &AppError{
		Code: ErrCodeUnconnectedInput, Message: fmt.Sprintf("required input %q is not connected", port),
		Details: map[string]any{"port": port},
	}
}

// Cycle creates an error for a cycle through the given passes.
// The path lists each pass once; the message closes the loop.
func Cycle(path []string) *AppError {
	closed := append(append([]string(nil), path...), path[0])
	return &AppError{
		Code: ErrCodeCycle, Message: fmt.Sprintf("cycle detected: %s", strings.Join(closed, " -> ")),
		Details: map[string]any{"path": path},
	}
}

// NoOutput creates an error for a graph without marked outputs.
func NoOutput(graph string) *AppError {
	return &AppError{
		Code: ErrCodeNoOutput, Message: fmt.Sprintf("graph %q has no marked outputs", graph),
		Details: map[string]any{"graph": graph},
	}
}

// UnreachableNode creates a warning for a pass that feeds no marked output.
func UnreachableNode(pass string) *AppError {
	return &AppError{
		Code: ErrCodeUnreachableNode, Message: fmt.Sprintf("pass %q does not contribute to any marked output", pass),
		Details: map[string]any{"pass": pass},
	}
}

// NotExecutable creates an error summarising a failed validation.
func NotExecutable(graph string, errs []error) *AppError {
	return &AppError{
		Code: ErrCodeNotExecutable, Message: fmt.Sprintf("graph %q is not executable: %d error(s)", graph, len(errs)),
		Details: map[string]any{"graph": graph, "errors": len(errs)},
		Cause:   stderrors.Join(errs...),
	}
}

// --- Registry ---

// NotInstantiable creates an error for a pass kind without a runtime factory.
func NotInstantiable(kind string) *AppError {
	return &AppError{
		Code: ErrCodeNotInstantiable, Message: fmt.Sprintf("pass kind %s has no factory bound", kind),
		Details: map[string]any{"kind": kind},
	}
}

// NotFound creates an error for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, id),
		Details: details,
	}
}

// AlreadyExists creates an error for a resource that already exists.
func AlreadyExists(resource, id string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("%s %q already exists", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// --- Input ---

// InvalidInput creates an error for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates an error for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// InvalidFormat creates an error for an invalid field format.
func InvalidFormat(field, expectedFormat string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("invalid format for %s, expected: %s", field, expectedFormat),
		Details: map[string]any{"field": field, "expected_format": expectedFormat},
	}
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause,
	}
}
