package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/findata-labs/finmcp/dispatch"
	"github.com/findata-labs/finmcp/tool"
)

// HTTPConfig configures the request/response adapter.
type HTTPConfig struct {
	Dispatcher   *dispatch.Dispatcher
	Host         string
	Port         int
	CORSOrigin   string
	MaxBody      int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TLSCert      string
	TLSKey       string
	Logger       *slog.Logger
}

// HTTP is the stateless request/response adapter: one dispatcher call per
// inbound request, encoded to and from a JSON envelope.
type HTTP struct {
	dispatcher   *dispatch.Dispatcher
	host         string
	port         int
	corsOrigin   string
	maxBody      int64
	readTimeout  time.Duration
	writeTimeout time.Duration
	tlsCert      string
	tlsKey       string
	logger       *slog.Logger
}

// NewHTTP creates the request/response adapter.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.Dispatcher == nil {
		return nil, errors.New("transport: http dispatcher is nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	return &HTTP{
		dispatcher:   cfg.Dispatcher,
		host:         cfg.Host,
		port:         cfg.Port,
		corsOrigin:   cfg.CORSOrigin,
		maxBody:      cfg.MaxBody,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		tlsCert:      cfg.TLSCert,
		tlsKey:       cfg.TLSKey,
		logger:       logger,
	}, nil
}

// Handler returns the adapter's routes with middleware wired, usable without
// a listening server (tests drive it through httptest).
func (h *HTTP) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /tools/list", toolsListHandler(h.dispatcher.Registry()))
	mux.HandleFunc("POST /call", h.handleCall)

	var handler http.Handler = mux
	handler = corsMiddleware(handler, h.corsOrigin)
	handler = maxBodyMiddleware(handler, h.maxBody)
	return handler
}

// Serve runs the HTTP server until ctx is canceled.
func (h *HTTP) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(h.host, fmt.Sprintf("%d", h.port))
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Handler(),
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("http transport listening", "addr", addr, "tls", h.tlsCert != "")
		if h.tlsCert != "" && h.tlsKey != "" {
			errCh <- server.ListenAndServeTLS(h.tlsCert, h.tlsKey)
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// callEnvelope is the request body of POST /call.
type callEnvelope struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// callResponse is the uniform response envelope. Dispatch failures are
// expressed in-band with HTTP 200; only transport-level problems (bad JSON,
// oversized body) produce non-2xx statuses.
type callResponse struct {
	Status  string          `json:"status"`
	Payload any             `json:"payload,omitempty"`
	Error   *tool.ToolError `json:"error,omitempty"`
}

func (h *HTTP) handleCall(w http.ResponseWriter, r *http.Request) {
	var req callEnvelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not a call envelope")
		return
	}

	result := h.dispatcher.Dispatch(r.Context(), dispatch.Request{
		Tool: req.Name,
		Args: req.Arguments,
	})
	if result.IsError() {
		writeJSON(w, http.StatusOK, callResponse{Status: "error", Error: result.Err})
		return
	}
	writeJSON(w, http.StatusOK, callResponse{Status: "success", Payload: result.Payload})
}
