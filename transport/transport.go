// Package transport provides the interchangeable front ends of the server:
// a stdio message loop, a Server-Sent-Events endpoint, and a plain HTTP/JSON
// endpoint. Adapters differ only in framing; every invocation flows through
// the same dispatcher, and the HTTP-based adapters share the introspection
// handlers below.
package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/findata-labs/finmcp/tool"
)

// Adapter is one serving front end, selected once at startup.
type Adapter interface {
	// Serve blocks until ctx is canceled or the adapter fails.
	Serve(ctx context.Context) error
}

// Transport names used for observability attribution.
const (
	NameStdio = "stdio"
	NameSSE   = "sse"
	NameHTTP  = "http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: apiErrorBody{Code: code, Message: message}})
}

// handleHealth reports process liveness. It touches neither the registry nor
// the upstream API: it must succeed while upstream is down.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "finmcp",
	})
}

type toolListing struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// toolsListHandler serializes the registry in registration order. Read-only;
// repeated calls return identical output since the registry is frozen.
func toolsListHandler(registry *tool.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		specs := registry.Specs()
		tools := make([]toolListing, 0, len(specs))
		for _, spec := range specs {
			tools = append(tools, toolListing{
				Name:        spec.Name,
				Description: spec.Description,
				InputSchema: spec.InputSchema(),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
	}
}

func corsMiddleware(next http.Handler, origin string) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func maxBodyMiddleware(next http.Handler, maxBody int64) http.Handler {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		next.ServeHTTP(w, r)
	})
}
