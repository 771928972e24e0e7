package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph construction errors (rejected at mutation time)
const (
	// ErrCodeDuplicateName indicates a pass name is already used in the graph.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"
	// ErrCodeUnknownKind indicates the pass kind is not known to the registry.
	ErrCodeUnknownKind ErrorCode = "UNKNOWN_KIND"
	// ErrCodeUnknownPort indicates a port does not exist or has the wrong direction.
	ErrCodeUnknownPort ErrorCode = "UNKNOWN_PORT"
	// ErrCodeFanInConflict indicates an input port already has an incoming edge.
	ErrCodeFanInConflict ErrorCode = "FAN_IN_CONFLICT"
	// ErrCodeNotMarkable indicates the pass does not allow its outputs to be marked.
	ErrCodeNotMarkable ErrorCode = "NOT_MARKABLE"
	// ErrCodeGraphFrozen indicates the graph was handed off and is read-only.
	ErrCodeGraphFrozen ErrorCode = "GRAPH_FROZEN"
	// ErrCodeLimitExceeded indicates a configured size limit was reached.
	ErrCodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"
)

// Pass configuration errors
const (
	// ErrCodeUnknownOption indicates a config key the pass kind does not declare.
	ErrCodeUnknownOption ErrorCode = "UNKNOWN_OPTION"
	// ErrCodeInvalidOption indicates a config value of the wrong type or range.
	ErrCodeInvalidOption ErrorCode = "INVALID_OPTION"
)

// Validation diagnostics
const (
	// ErrCodeTypeMismatch indicates an edge joins incompatible resource kinds.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeUnconnectedInput indicates a required input has no incoming edge.
	ErrCodeUnconnectedInput ErrorCode = "UNCONNECTED_INPUT"
	// ErrCodeCycle indicates the pass graph contains a cycle.
	ErrCodeCycle ErrorCode = "CYCLE"
	// ErrCodeNoOutput indicates no port is marked as a graph output.
	ErrCodeNoOutput ErrorCode = "NO_OUTPUT"
	// ErrCodeUnreachableNode indicates a pass that contributes to no marked output.
	ErrCodeUnreachableNode ErrorCode = "UNREACHABLE_NODE"
	// ErrCodeNotExecutable summarises a failed validation.
	ErrCodeNotExecutable ErrorCode = "NOT_EXECUTABLE"
)

// Registry errors
const (
	// ErrCodeNotInstantiable indicates a pass kind has no runtime factory.
	ErrCodeNotInstantiable ErrorCode = "NOT_INSTANTIABLE"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// informationalCodes never block execution on their own.
var informationalCodes = map[ErrorCode]bool{
	ErrCodeUnreachableNode: true,
}

// IsFatalCode returns true if a diagnostic with this code blocks execution.
func IsFatalCode(code ErrorCode) bool {
	return !informationalCodes[code]
}
