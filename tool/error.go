package tool

import (
	"errors"
	"fmt"
	"strings"
)

// Machine-readable failure codes carried by every Failure result.
const (
	// CodeUnknownTool is returned when the caller names an unregistered tool.
	CodeUnknownTool = "UNKNOWN_TOOL"
	// CodeInvalidArguments is returned on schema validation failure.
	CodeInvalidArguments = "INVALID_ARGUMENTS"
	// CodeUpstreamTimeout is returned when the upstream call exceeds its deadline.
	CodeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	// CodeUpstreamHTTPError is returned for non-2xx upstream responses.
	CodeUpstreamHTTPError = "UPSTREAM_HTTP_ERROR"
	// CodeUpstreamInvalidResponse is returned when the upstream body does not parse.
	CodeUpstreamInvalidResponse = "UPSTREAM_INVALID_RESPONSE"
	// CodeInternalError is the fallback for unexpected handler failures.
	CodeInternalError = "INTERNAL_ERROR"
)

// Registry sentinel errors.
var (
	ErrUnknownTool   = errors.New("tool: unknown tool")
	ErrDuplicateName = errors.New("tool: duplicate tool name")
	ErrFrozen        = errors.New("tool: registry is frozen")
)

// ToolError is a structured invocation failure that flows from handlers and
// the upstream client to the dispatcher without losing its machine code.
type ToolError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	msg := strings.TrimSpace(e.Message)
	switch {
	case code == "" && msg == "":
		return CodeInternalError
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return fmt.Sprintf("%s: %s", code, msg)
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewToolError builds a ToolError, defaulting the code and borrowing the
// cause's message when none is given.
func NewToolError(code, message string, cause error) *ToolError {
	cleanCode := strings.TrimSpace(code)
	if cleanCode == "" {
		cleanCode = CodeInternalError
	}
	cleanMsg := strings.TrimSpace(message)
	if cleanMsg == "" && cause != nil {
		cleanMsg = cause.Error()
	}
	return &ToolError{
		Code:    cleanCode,
		Message: cleanMsg,
		Cause:   cause,
	}
}

// AsToolError unwraps err into a *ToolError if one is present in its chain.
func AsToolError(err error) (*ToolError, bool) {
	if err == nil {
		return nil, false
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}

// ErrorCode returns the machine code for err, or fallback when err carries none.
func ErrorCode(err error, fallback string) string {
	if toolErr, ok := AsToolError(err); ok && strings.TrimSpace(toolErr.Code) != "" {
		return toolErr.Code
	}
	if strings.TrimSpace(fallback) == "" {
		return CodeInternalError
	}
	return fallback
}
