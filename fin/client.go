// Package fin provides the HTTP client for the upstream Tsanghi finance API.
// All registered tools ultimately call through here; the client owns token
// injection and keeps the token out of every error and log line.
package fin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultBaseURL is the upstream API root.
	DefaultBaseURL = "https://tsanghi.com/api/fin"
	// DefaultTimeout bounds one upstream call when the config declares none.
	DefaultTimeout = 30 * time.Second
	// MaskedTokenValue replaces the token wherever it would otherwise leak.
	MaskedTokenValue = "**********"

	maxBodyExcerpt = 256
	tokenParam     = "token"
)

// ErrorKind classifies an upstream failure.
type ErrorKind string

const (
	ErrTimeout         ErrorKind = "timeout"
	ErrHTTPStatus      ErrorKind = "http_status"
	ErrInvalidResponse ErrorKind = "invalid_response"
)

// Error is a typed upstream failure. The dispatcher maps it onto the result
// envelope taxonomy; nothing below the dispatcher retries it.
type Error struct {
	Kind        ErrorKind
	Status      int
	BodyExcerpt string
	Message     string
	Cause       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ErrHTTPStatus:
		if e.BodyExcerpt != "" {
			return fmt.Sprintf("fin: upstream returned status %d: %s", e.Status, e.BodyExcerpt)
		}
		return fmt.Sprintf("fin: upstream returned status %d", e.Status)
	case ErrTimeout:
		return "fin: upstream call timed out"
	case ErrInvalidResponse:
		if e.Message != "" {
			return "fin: invalid upstream response: " + e.Message
		}
		return "fin: invalid upstream response"
	default:
		return "fin: upstream call failed"
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Config is the immutable upstream configuration. It is constructed once at
// startup; the token is read-only afterwards and never serialized.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client issues GET requests against the upstream API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

// New creates a Client. A nil httpClient falls back to a dedicated client so
// the per-call timeout is enforced through the request context alone.
func New(cfg Config, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: baseURL,
		token:   cfg.Token,
		timeout: timeout,
		http:    httpClient,
	}
}

// Get issues one GET against {base}/{endpoint} with the given query
// parameters and returns the decoded JSON body. The shared token is always
// attached by the client; a caller-supplied "token" parameter is discarded,
// never forwarded. Responses shaped {"data": ...} are unwrapped to the inner
// value, matching what the upstream returns for every data endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]any) (any, error) {
	// The dispatcher owns the per-call deadline; the client timeout only
	// bounds callers that arrive without one, so a longer per-tool deadline
	// is honored rather than clipped to the config default.
	callCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqURL, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidResponse, Message: c.scrub(err.Error()), Cause: err}
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidResponse, Message: c.scrub(err.Error()), Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(callCtx, err) {
			return nil, &Error{Kind: ErrTimeout, Cause: err}
		}
		return nil, &Error{Kind: ErrInvalidResponse, Message: c.scrub(err.Error()), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(callCtx, err) {
			return nil, &Error{Kind: ErrTimeout, Cause: err}
		}
		return nil, &Error{Kind: ErrInvalidResponse, Message: c.scrub(err.Error()), Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{
			Kind:        ErrHTTPStatus,
			Status:      resp.StatusCode,
			BodyExcerpt: c.scrub(excerpt(body)),
		}
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &Error{
			Kind:        ErrInvalidResponse,
			Message:     c.scrub(excerpt(body)),
			BodyExcerpt: c.scrub(excerpt(body)),
			Cause:       err,
		}
	}

	if obj, ok := decoded.(map[string]any); ok {
		if data, ok := obj["data"]; ok {
			return data, nil
		}
	}
	return decoded, nil
}

func (c *Client) buildURL(endpoint string, params map[string]any) (string, error) {
	clean := strings.TrimLeft(strings.TrimSpace(endpoint), "/")
	if clean == "" {
		return "", errors.New("endpoint is required")
	}
	u, err := url.Parse(c.baseURL + "/" + clean)
	if err != nil {
		return "", err
	}

	query := u.Query()
	for key, value := range params {
		if key == tokenParam || value == nil {
			continue
		}
		query.Set(key, fmt.Sprintf("%v", value))
	}
	query.Set(tokenParam, c.token)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// scrub removes the token value from any string that may reach a caller.
func (c *Client) scrub(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, MaskedTokenValue)
}

func excerpt(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) <= maxBodyExcerpt {
		return trimmed
	}
	// Back up to a rune boundary so the cut never yields invalid UTF-8.
	cut := maxBodyExcerpt
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut]
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
