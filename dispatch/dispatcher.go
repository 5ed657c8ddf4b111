// Package dispatch routes invocation requests to registered tool handlers.
// It is the single transport-agnostic layer between the adapters and the
// tool handlers: registry lookup, strict argument validation, handler
// invocation, and normalization of every lower-layer failure into the
// uniform result envelope all happen here and nowhere else.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/findata-labs/finmcp/fin"
	"github.com/findata-labs/finmcp/tool"
)

// DefaultTimeout bounds handler execution when a spec declares none.
const DefaultTimeout = 30 * time.Second

// Request is the transport-agnostic invocation payload.
type Request struct {
	Tool      string         `json:"name"`
	Args      map[string]any `json:"arguments,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// Result is the uniform invocation envelope. Exactly one of Payload or Err is
// populated.
type Result struct {
	Payload any             `json:"payload,omitempty"`
	Err     *tool.ToolError `json:"error,omitempty"`
}

// IsError reports whether the result is the failure variant.
func (r Result) IsError() bool { return r.Err != nil }

// Failure builds the failure variant of a Result.
func Failure(code, message string, cause error) Result {
	return Result{Err: tool.NewToolError(code, message, cause)}
}

// Success builds the success variant of a Result.
func Success(payload any) Result {
	return Result{Payload: payload}
}

// Dispatcher resolves, validates, and executes invocation requests.
//
// Validation is strict: unknown argument names are rejected alongside missing
// required fields and type mismatches. The generated handlers this server
// grew out of silently dropped extras; rejecting them instead catches
// caller/schema drift at the boundary.
type Dispatcher struct {
	registry  *tool.Registry
	transport string
	timeout   time.Duration
	logger    *slog.Logger
}

// Config configures a Dispatcher.
type Config struct {
	Registry *tool.Registry
	// Transport tags observations with the adapter that carried the request.
	Transport string
	// Timeout bounds handler execution for specs without their own timeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

// New creates a Dispatcher over a frozen registry.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, errors.New("dispatch: registry is nil")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry:  cfg.Registry,
		transport: cfg.Transport,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// WithTransport returns a shallow copy tagged with another transport name.
// Adapters sharing one dispatcher use this so observations stay attributable.
func (d *Dispatcher) WithTransport(transport string) *Dispatcher {
	clone := *d
	clone.transport = transport
	return &clone
}

// Registry exposes the underlying registry for the introspection endpoints.
func (d *Dispatcher) Registry() *tool.Registry { return d.registry }

// Dispatch executes one invocation request and always returns a result
// envelope; no error or panic from a handler escapes to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	start := time.Now()
	result := d.dispatch(ctx, req)

	observation := tool.InvokeObservation{
		ToolName:   req.Tool,
		Transport:  d.transport,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    !result.IsError(),
	}
	if result.IsError() {
		observation.ErrorCode = result.Err.Code
		d.logger.Warn("dispatch failed",
			"tool", req.Tool,
			"transport", d.transport,
			"code", result.Err.Code,
			"request_id", req.RequestID,
		)
	} else {
		d.logger.Debug("dispatch ok",
			"tool", req.Tool,
			"transport", d.transport,
			"elapsed_ms", observation.DurationMS,
			"request_id", req.RequestID,
		)
	}
	tool.EmitInvokeObservation(observation)
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) Result {
	spec, err := d.registry.Lookup(req.Tool)
	if err != nil {
		return Failure(tool.CodeUnknownTool, fmt.Sprintf("no tool named %q", req.Tool), err)
	}

	args, err := tool.ValidateArgs(spec, req.Args)
	if err != nil {
		return normalize(err)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = d.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := d.invoke(callCtx, spec, args)
	if err != nil {
		return normalize(err)
	}
	return Success(payload)
}

// invoke runs the handler with panic containment. A panicking handler must
// not tear down sibling in-flight requests on the same transport.
func (d *Dispatcher) invoke(ctx context.Context, spec tool.Spec, args map[string]any) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = tool.NewToolError(tool.CodeInternalError, fmt.Sprintf("tool %q panicked: %v", spec.Name, r), nil)
		}
	}()
	return spec.Handler(ctx, args)
}

// normalize maps heterogeneous handler and upstream failures onto the
// machine-readable taxonomy carried by the failure envelope.
func normalize(err error) Result {
	if toolErr, ok := tool.AsToolError(err); ok {
		return Result{Err: toolErr}
	}

	var upstreamErr *fin.Error
	if errors.As(err, &upstreamErr) {
		switch upstreamErr.Kind {
		case fin.ErrTimeout:
			return Failure(tool.CodeUpstreamTimeout, upstreamErr.Error(), err)
		case fin.ErrHTTPStatus:
			result := Failure(tool.CodeUpstreamHTTPError, upstreamErr.Error(), err)
			result.Err.Details = map[string]any{
				"status": upstreamErr.Status,
				"body":   upstreamErr.BodyExcerpt,
			}
			return result
		case fin.ErrInvalidResponse:
			return Failure(tool.CodeUpstreamInvalidResponse, upstreamErr.Error(), err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Failure(tool.CodeUpstreamTimeout, "upstream call timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return Failure(tool.CodeInternalError, "request canceled", err)
	}
	return Failure(tool.CodeInternalError, err.Error(), err)
}
