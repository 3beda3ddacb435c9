package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Client input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Backend availability errors (retryable)
const (
	// ErrCodeBackendLoading indicates the model backend has not finished loading.
	ErrCodeBackendLoading ErrorCode = "BACKEND_LOADING"
	// ErrCodeBackendUnavailable indicates the model backend cannot serve requests.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
)

// Inference errors
const (
	// ErrCodeInference indicates the model failed to produce a transcript.
	ErrCodeInference ErrorCode = "INFERENCE_FAILED"
)

// Operational errors
const (
	// ErrCodeTimeout indicates an operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExternalTool indicates an external tool or subprocess failed.
	ErrCodeExternalTool ErrorCode = "EXTERNAL_TOOL_ERROR"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeBackendLoading:     true,
	ErrCodeBackendUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeInference:          false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
