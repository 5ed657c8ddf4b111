package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/findata-labs/finmcp/mcp"
	"github.com/findata-labs/finmcp/tool"
)

// HeartbeatInterval is the interval between SSE heartbeat comments.
const HeartbeatInterval = 15 * time.Second

const sessionQueueSize = 64

// SSEConfig configures the event-stream adapter.
type SSEConfig struct {
	Core       *mcp.Core
	Registry   *tool.Registry
	Host       string
	Port       int
	CORSOrigin string
	MaxBody    int64
	Logger     *slog.Logger
}

// SSE is the event-stream adapter: a long-lived per-connection channel on
// which the server pushes results as they complete. Multiple invocations per
// session may be in flight concurrently, each correlated by the JSON-RPC id
// echoed back on the stream.
type SSE struct {
	core       *mcp.Core
	toolsList  http.HandlerFunc
	host       string
	port       int
	corsOrigin string
	maxBody    int64
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sseSession
}

// NewSSE creates the event-stream adapter.
func NewSSE(cfg SSEConfig) (*SSE, error) {
	if cfg.Core == nil {
		return nil, errors.New("transport: sse core is nil")
	}
	if cfg.Registry == nil {
		return nil, errors.New("transport: sse registry is nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SSE{
		core:       cfg.Core,
		toolsList:  toolsListHandler(cfg.Registry),
		host:       cfg.Host,
		port:       cfg.Port,
		corsOrigin: cfg.CORSOrigin,
		maxBody:    cfg.MaxBody,
		logger:     logger,
		sessions:   make(map[string]*sseSession),
	}, nil
}

type sseSession struct {
	id     string
	out    chan *mcp.Message
	ctx    context.Context
	cancel context.CancelFunc
}

// Serve runs the HTTP server hosting the event stream until ctx is canceled.
func (s *SSE) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /tools/list", s.toolsList)
	mux.HandleFunc("GET /sse", s.handleStream)
	mux.HandleFunc("POST /messages", s.handleMessage)

	handler := corsMiddleware(mux, s.corsOrigin)
	handler = maxBodyMiddleware(handler, s.maxBody)

	addr := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: the event stream stays open indefinitely.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sse transport listening", "addr", addr)
		errCh <- server.ListenAndServe()
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

// handleStream opens a session and streams responses to the client.
//
// SSE format:
//
//	event: endpoint   (once, the POST target including the session id)
//	event: message    (one per JSON-RPC response)
//	: ping            (heartbeat comment every 15 seconds)
func (s *SSE) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	session := s.addSession(r.Context())
	defer s.removeSession(session.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: /messages?session_id=%s\n\n", session.id)
	flusher.Flush()

	s.logger.Info("sse session opened", "session_id", session.id)
	defer s.logger.Info("sse session closed", "session_id", session.id)

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-session.ctx.Done():
			return
		case msg := <-session.out:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleMessage accepts one JSON-RPC message for a session, dispatches it
// asynchronously, and pushes the response onto that session's stream. The
// POST itself only acknowledges receipt.
func (s *SSE) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	session, ok := s.session(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_SESSION", "no open stream for session_id")
		return
	}

	var msg mcp.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not a JSON-RPC message")
		return
	}

	go func() {
		// The dispatch is bound to the stream's lifetime, not the POST's:
		// if the client disconnects, in-flight upstream calls are abandoned.
		resp := s.core.Handle(session.ctx, msg)
		if resp == nil {
			return
		}
		select {
		case session.out <- resp:
		case <-session.ctx.Done():
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":     "accepted",
		"session_id": session.id,
	})
}

func (s *SSE) addSession(parent context.Context) *sseSession {
	ctx, cancel := context.WithCancel(parent)
	session := &sseSession{
		id:     uuid.NewString(),
		out:    make(chan *mcp.Message, sessionQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()
	return session
}

func (s *SSE) removeSession(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		session.cancel()
	}
}

func (s *SSE) session(id string) (*sseSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}
