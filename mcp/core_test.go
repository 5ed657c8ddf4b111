package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/findata-labs/finmcp/dispatch"
	"github.com/findata-labs/finmcp/tool"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	reg := tool.NewRegistry()
	err := reg.Register(tool.Spec{
		Name:        "get_company_info",
		Description: "Company profile",
		Params:      []tool.Param{{Name: "ticker", Type: tool.TypeString, Required: true}},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"name": "IBM Corp"}, nil
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	reg.Freeze()

	d, err := dispatch.New(dispatch.Config{Registry: reg, Transport: "test"})
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	return NewCore(d, ServerInfo{Name: "finmcp", Version: "test"}, nil)
}

func request(t *testing.T, id string, method string, params any) Message {
	t.Helper()
	msg := Message{
		JSONRPC: JSONRPCVersion,
		ID:      json.RawMessage(id),
		Method:  method,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		msg.Params = data
	}
	return msg
}

func TestHandleInitialize(t *testing.T) {
	core := newTestCore(t)
	resp := core.Handle(context.Background(), request(t, "1", "initialize", InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      ClientInfo{Name: "test-client"},
	}))
	if resp == nil || resp.Error != nil {
		t.Fatalf("Handle(initialize) = %+v, want result", resp)
	}

	var result InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.ProtocolVersion != ProtocolVersion {
		t.Fatalf("protocolVersion = %q, want %q", result.ProtocolVersion, ProtocolVersion)
	}
	if result.ServerInfo.Name != "finmcp" {
		t.Fatalf("serverInfo.name = %q, want finmcp", result.ServerInfo.Name)
	}
	if _, ok := result.Capabilities["tools"]; !ok {
		t.Fatal("capabilities missing tools")
	}
}

func TestHandlePing(t *testing.T) {
	core := newTestCore(t)
	resp := core.Handle(context.Background(), request(t, "7", "ping", nil))
	if resp == nil || resp.Error != nil {
		t.Fatalf("Handle(ping) = %+v, want empty result", resp)
	}
	if string(resp.ID) != "7" {
		t.Fatalf("id = %s, want 7", resp.ID)
	}
}

func TestHandleToolsList(t *testing.T) {
	core := newTestCore(t)
	resp := core.Handle(context.Background(), request(t, "2", "tools/list", nil))
	if resp == nil || resp.Error != nil {
		t.Fatalf("Handle(tools/list) = %+v, want result", resp)
	}

	var result ToolsListResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result.Tools) != 1 {
		t.Fatalf("tools = %d, want 1", len(result.Tools))
	}
	listed := result.Tools[0]
	if listed.Name != "get_company_info" {
		t.Fatalf("tool name = %q, want get_company_info", listed.Name)
	}
	if listed.InputSchema["type"] != "object" {
		t.Fatalf("inputSchema.type = %v, want object", listed.InputSchema["type"])
	}
}

func TestHandleToolsCall(t *testing.T) {
	core := newTestCore(t)
	resp := core.Handle(context.Background(), request(t, "3", "tools/call", ToolsCallParams{
		Name:      "get_company_info",
		Arguments: map[string]any{"ticker": "IBM"},
	}))
	if resp == nil || resp.Error != nil {
		t.Fatalf("Handle(tools/call) = %+v, want result", resp)
	}

	var result ToolsCallResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.IsError {
		t.Fatalf("isError = true, content = %+v", result.Content)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("content = %+v, want one text block", result.Content)
	}
	if result.StructuredContent["name"] != "IBM Corp" {
		t.Fatalf("structuredContent = %v, want name=IBM Corp", result.StructuredContent)
	}
}

func TestHandleToolsCallFailureStaysInBand(t *testing.T) {
	core := newTestCore(t)
	resp := core.Handle(context.Background(), request(t, "4", "tools/call", ToolsCallParams{
		Name: "get_unknown",
	}))
	if resp == nil {
		t.Fatal("Handle(tools/call) = nil, want response")
	}
	// Dispatch failures are tool results, not protocol errors.
	if resp.Error != nil {
		t.Fatalf("rpc error = %+v, want in-band tool error", resp.Error)
	}
	var result ToolsCallResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !result.IsError {
		t.Fatal("isError = false, want true")
	}
}

func TestHandleMethodNotFound(t *testing.T) {
	core := newTestCore(t)
	resp := core.Handle(context.Background(), request(t, "5", "resources/list", nil))
	if resp == nil || resp.Error == nil {
		t.Fatalf("Handle(resources/list) = %+v, want rpc error", resp)
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("code = %d, want %d", resp.Error.Code, CodeMethodNotFound)
	}
}

func TestHandleMalformedCallParams(t *testing.T) {
	core := newTestCore(t)
	msg := request(t, "6", "tools/call", nil)
	msg.Params = json.RawMessage(`{"name": 42}`)
	resp := core.Handle(context.Background(), msg)
	if resp == nil || resp.Error == nil {
		t.Fatalf("Handle() = %+v, want rpc error", resp)
	}
	if resp.Error.Code != CodeInvalidParams {
		t.Fatalf("code = %d, want %d", resp.Error.Code, CodeInvalidParams)
	}
}

func TestHandleNotificationReturnsNil(t *testing.T) {
	core := newTestCore(t)
	msg := Message{JSONRPC: JSONRPCVersion, Method: "notifications/initialized"}
	if resp := core.Handle(context.Background(), msg); resp != nil {
		t.Fatalf("Handle(notification) = %+v, want nil", resp)
	}
}

func TestHandleEchoesNonNumericIDs(t *testing.T) {
	core := newTestCore(t)
	resp := core.Handle(context.Background(), request(t, `"abc-123"`, "ping", nil))
	if resp == nil {
		t.Fatal("Handle() = nil, want response")
	}
	if string(resp.ID) != `"abc-123"` {
		t.Fatalf("id = %s, want \"abc-123\"", resp.ID)
	}
}
