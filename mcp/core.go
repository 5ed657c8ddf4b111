package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/findata-labs/finmcp/dispatch"
)

// Core handles decoded JSON-RPC messages independent of the wire they arrived
// on. Both the stdio and event-stream adapters delegate here, so dispatch
// semantics cannot drift between transports.
type Core struct {
	dispatcher *dispatch.Dispatcher
	info       ServerInfo
	logger     *slog.Logger
}

// NewCore creates a protocol core over a dispatcher.
func NewCore(dispatcher *dispatch.Dispatcher, info ServerInfo, logger *slog.Logger) *Core {
	if logger == nil {
		logger = slog.Default()
	}
	if info.Name == "" {
		info.Name = "finmcp"
	}
	return &Core{
		dispatcher: dispatcher,
		info:       info,
		logger:     logger,
	}
}

// Handle processes one message and returns the response, or nil for
// notifications. It never returns a Go error: every failure is expressed as
// a JSON-RPC error response so the transport only frames bytes.
func (c *Core) Handle(ctx context.Context, msg Message) *Message {
	if msg.IsNotification() {
		// notifications/initialized and friends need no reply.
		return nil
	}

	switch msg.Method {
	case "initialize":
		return c.handleInitialize(msg)
	case "ping":
		return response(msg.ID, map[string]any{})
	case "tools/list":
		return c.handleToolsList(msg)
	case "tools/call":
		return c.handleToolsCall(ctx, msg)
	default:
		return errorResponse(msg.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", msg.Method))
	}
}

func (c *Core) handleInitialize(msg Message) *Message {
	var params InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return errorResponse(msg.ID, CodeInvalidParams, "malformed initialize params")
		}
	}
	c.logger.Info("client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
	)
	return response(msg.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo:      c.info,
	})
}

func (c *Core) handleToolsList(msg Message) *Message {
	specs := c.dispatcher.Registry().Specs()
	tools := make([]Tool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema(),
		})
	}
	return response(msg.ID, ToolsListResult{Tools: tools})
}

func (c *Core) handleToolsCall(ctx context.Context, msg Message) *Message {
	var params ToolsCallParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return errorResponse(msg.ID, CodeInvalidParams, "malformed tools/call params")
	}
	if params.Name == "" {
		return errorResponse(msg.ID, CodeInvalidParams, "tool name is required")
	}

	result := c.dispatcher.Dispatch(ctx, dispatch.Request{
		Tool:      params.Name,
		Args:      params.Arguments,
		RequestID: string(msg.ID),
	})
	return response(msg.ID, toCallResult(result))
}

// toCallResult maps the uniform dispatch envelope into MCP content blocks.
func toCallResult(result dispatch.Result) ToolsCallResult {
	if result.IsError() {
		return ToolsCallResult{
			IsError: true,
			Content: []ContentBlock{{
				Type: "text",
				Text: result.Err.Error(),
			}},
		}
	}

	text, err := json.Marshal(result.Payload)
	if err != nil {
		return ToolsCallResult{
			IsError: true,
			Content: []ContentBlock{{Type: "text", Text: "unencodable tool payload"}},
		}
	}
	out := ToolsCallResult{
		Content: []ContentBlock{{Type: "text", Text: string(text)}},
	}
	if obj, ok := result.Payload.(map[string]any); ok {
		out.StructuredContent = obj
	}
	return out
}

func response(id json.RawMessage, result any) *Message {
	data, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, CodeInternalError, "unencodable result")
	}
	return &Message{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  data,
	}
}

func errorResponse(id json.RawMessage, code int, message string) *Message {
	return &Message{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}
