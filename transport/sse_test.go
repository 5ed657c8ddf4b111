package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/findata-labs/finmcp/mcp"
)

func newSSETestServer(t *testing.T) *httptest.Server {
	t.Helper()
	d := newTestDispatcher(t)
	core := mcp.NewCore(d.WithTransport(NameSSE), mcp.ServerInfo{Name: "finmcp", Version: "test"}, nil)

	adapter, err := NewSSE(SSEConfig{Core: core, Registry: d.Registry()})
	if err != nil {
		t.Fatalf("NewSSE() error = %v", err)
	}

	// Same routes Serve installs, hosted on a test listener.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /tools/list", adapter.toolsList)
	mux.HandleFunc("GET /sse", adapter.handleStream)
	mux.HandleFunc("POST /messages", adapter.handleMessage)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data string
}

// readEvent reads the next non-comment event from the stream.
func readEvent(t *testing.T, reader *bufio.Reader) sseEvent {
	t.Helper()
	var event sseEvent
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, ":"):
			// heartbeat comment
		case strings.HasPrefix(line, "event: "):
			event.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			event.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if event.name != "" || event.data != "" {
				return event
			}
		}
	}
}

func openStream(t *testing.T, serverURL string) (*bufio.Reader, string, func()) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, serverURL+"/sse", nil)
	if err != nil {
		t.Fatalf("build stream request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q, want text/event-stream", got)
	}

	reader := bufio.NewReader(resp.Body)
	endpoint := readEvent(t, reader)
	if endpoint.name != "endpoint" {
		t.Fatalf("first event = %q, want endpoint", endpoint.name)
	}
	const prefix = "/messages?session_id="
	if !strings.HasPrefix(endpoint.data, prefix) {
		t.Fatalf("endpoint data = %q, want %s prefix", endpoint.data, prefix)
	}
	sessionID := strings.TrimPrefix(endpoint.data, prefix)
	return reader, sessionID, func() { _ = resp.Body.Close() }
}

func TestSSESessionRoundTrip(t *testing.T) {
	server := newSSETestServer(t)
	reader, sessionID, closeStream := openStream(t, server.URL)
	defer closeStream()

	call, _ := json.Marshal(mcp.Message{
		JSONRPC: mcp.JSONRPCVersion,
		ID:      json.RawMessage("11"),
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"get_company_info","arguments":{"ticker":"IBM"}}`),
	})
	resp, err := http.Post(server.URL+"/messages?session_id="+sessionID, "application/json", bytes.NewReader(call))
	if err != nil {
		t.Fatalf("POST /messages error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST status = %d, want 202", resp.StatusCode)
	}

	event := readEvent(t, reader)
	if event.name != "message" {
		t.Fatalf("event = %q, want message", event.name)
	}

	var msg mcp.Message
	if err := json.Unmarshal([]byte(event.data), &msg); err != nil {
		t.Fatalf("unmarshal streamed message: %v", err)
	}
	if string(msg.ID) != "11" {
		t.Fatalf("streamed id = %s, want 11", msg.ID)
	}

	var result mcp.ToolsCallResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		t.Fatalf("unmarshal call result: %v", err)
	}
	if result.IsError {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.StructuredContent["name"] != "IBM Corp" {
		t.Fatalf("structuredContent = %v, want name=IBM Corp", result.StructuredContent)
	}
}

func TestSSEUnknownSession(t *testing.T) {
	server := newSSETestServer(t)
	resp, err := http.Post(server.URL+"/messages?session_id=not-a-session", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	if err != nil {
		t.Fatalf("POST /messages error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body apiError
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "UNKNOWN_SESSION" {
		t.Fatalf("code = %q, want UNKNOWN_SESSION", body.Error.Code)
	}
}

func TestSSEBadMessageBody(t *testing.T) {
	server := newSSETestServer(t)
	_, sessionID, closeStream := openStream(t, server.URL)
	defer closeStream()

	resp, err := http.Post(server.URL+"/messages?session_id="+sessionID, "application/json",
		strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST /messages error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSSEConcurrentCallsCorrelateByID(t *testing.T) {
	server := newSSETestServer(t)
	reader, sessionID, closeStream := openStream(t, server.URL)
	defer closeStream()

	ids := []string{"21", "22", "23"}
	for _, id := range ids {
		call := `{"jsonrpc":"2.0","id":` + id + `,"method":"tools/call","params":{"name":"get_company_info","arguments":{"ticker":"IBM"}}}`
		resp, err := http.Post(server.URL+"/messages?session_id="+sessionID, "application/json", strings.NewReader(call))
		if err != nil {
			t.Fatalf("POST /messages error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("POST status = %d, want 202", resp.StatusCode)
		}
	}

	// Responses may arrive in any order; collect and match by id.
	got := make(map[string]bool)
	deadline := time.After(5 * time.Second)
	for len(got) < len(ids) {
		select {
		case <-deadline:
			t.Fatalf("timed out, received %v", got)
		default:
		}
		event := readEvent(t, reader)
		if event.name != "message" {
			continue
		}
		var msg mcp.Message
		if err := json.Unmarshal([]byte(event.data), &msg); err != nil {
			t.Fatalf("unmarshal streamed message: %v", err)
		}
		got[string(msg.ID)] = true
	}
	for _, id := range ids {
		if !got[id] {
			t.Fatalf("no response for id %s: %v", id, got)
		}
	}
}

func TestSSESessionRemovedOnDisconnect(t *testing.T) {
	d := newTestDispatcher(t)
	core := mcp.NewCore(d.WithTransport(NameSSE), mcp.ServerInfo{Name: "finmcp"}, nil)
	adapter, err := NewSSE(SSEConfig{Core: core, Registry: d.Registry()})
	if err != nil {
		t.Fatalf("NewSSE() error = %v", err)
	}

	session := adapter.addSession(context.Background())
	if _, ok := adapter.session(session.id); !ok {
		t.Fatal("session not registered")
	}
	adapter.removeSession(session.id)
	if _, ok := adapter.session(session.id); ok {
		t.Fatal("session still registered after removal")
	}
	select {
	case <-session.ctx.Done():
	default:
		t.Fatal("session context not canceled on removal")
	}
}
