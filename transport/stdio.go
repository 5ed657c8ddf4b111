package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/findata-labs/finmcp/mcp"
)

// stdio messages can carry sizeable argument payloads; one line per message.
const stdioMaxLine = 4 << 20

// StdioConfig configures a stdio adapter.
type StdioConfig struct {
	Core   *mcp.Core
	Reader io.Reader
	Writer io.Writer
	Logger *slog.Logger
}

// Stdio is the message-loop adapter: line-delimited JSON-RPC messages on an
// ordered stream, one in flight at a time, responses written in receive
// order. It terminates cleanly when the stream closes.
type Stdio struct {
	core   *mcp.Core
	reader io.Reader
	writer io.Writer
	logger *slog.Logger
}

// NewStdio creates a stdio adapter.
func NewStdio(cfg StdioConfig) (*Stdio, error) {
	if cfg.Core == nil {
		return nil, errors.New("transport: stdio core is nil")
	}
	if cfg.Reader == nil || cfg.Writer == nil {
		return nil, errors.New("transport: stdio reader and writer are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Stdio{
		core:   cfg.Core,
		reader: cfg.Reader,
		writer: cfg.Writer,
		logger: logger,
	}, nil
}

// Serve runs the message loop until the input stream closes or ctx is
// canceled.
func (s *Stdio) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 64*1024), stdioMaxLine)
	out := bufio.NewWriter(s.writer)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg mcp.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			if err := writeMessage(out, &mcp.Message{
				JSONRPC: mcp.JSONRPCVersion,
				Error:   &mcp.RPCError{Code: mcp.CodeParseError, Message: "parse error"},
			}); err != nil {
				return err
			}
			continue
		}

		resp := s.core.Handle(ctx, msg)
		if resp == nil {
			continue
		}
		if err := writeMessage(out, resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("transport: stdio read: %w", err)
	}
	s.logger.Info("stdio stream closed")
	return nil
}

func writeMessage(out *bufio.Writer, msg *mcp.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("transport: encode response: %w", err)
	}
	data = append(data, '\n')
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("transport: write response: %w", err)
	}
	return out.Flush()
}
