package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StateClient defines the two remote calls the sync engine depends on.
// It is implemented by *Client and by test fakes.
type StateClient interface {
	FetchState(ctx context.Context) (*StateSnapshot, error)
	InvokeAction(ctx context.Context, action string, payload map[string]any) (*ActionResult, error)
}

// Ensure Client implements StateClient at compile time.
var _ StateClient = (*Client)(nil)

// TokenSource supplies the current bearer token for outgoing requests.
// Returning "" sends the request unauthenticated.
type TokenSource func() string

// Client talks to the Mineworks HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     TokenSource
	userAgent string
	log       zerolog.Logger
}

const (
	defaultUserAgent = "minedeck/0.1"
	defaultTimeout   = 10 * time.Second
)

// Error is a server-reported rejection: the call completed but the server
// refused the request. Error() returns the server's human-readable message
// so callers (notably auth-failure detection) can match on its text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return e.Message
}

// NewClient builds a Client for the given base URL. The token source is
// consulted per request, so a session change takes effect immediately.
func NewClient(rawURL string, token TokenSource, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	base, err := parseBaseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		token:     token,
		userAgent: defaultUserAgent,
		log:       log.With().Str("component", "api").Logger(),
	}, nil
}

// WithToken returns a shallow copy of the client that authenticates with the
// fixed token instead of the configured source. Used to probe candidate
// tokens during sign-in.
func (c *Client) WithToken(token string) *Client {
	dup := *c
	dup.token = func() string { return token }
	return &dup
}

// FetchState retrieves the full canonical snapshot of the player's world.
func (c *Client) FetchState(ctx context.Context) (*StateSnapshot, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload StateSnapshot
	if err := c.do(ctx, http.MethodGet, "/v1/state", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// InvokeAction submits one mutating command and returns the partial
// canonical update it produced.
func (c *Client) InvokeAction(ctx context.Context, action string, payload map[string]any) (*ActionResult, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(action) == "" {
		return nil, fmt.Errorf("action is required")
	}
	body := map[string]any{"action": action}
	if len(payload) > 0 {
		body["payload"] = payload
	}
	var result ActionResult
	if err := c.do(ctx, http.MethodPost, "/v1/action", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	reqURL := *c.baseURL
	reqURL.Path = c.baseURL.Path + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("request_id", requestID).Str("path", path).Err(err).Msg("request failed")
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		apiErr := decodeError(resp)
		c.log.Debug().Str("request_id", requestID).Str("path", path).
			Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("request rejected")
		return apiErr
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError extracts the server's message from a non-2xx response body.
// The API reports rejections as {"error": "..."}; anything else falls back
// to the raw body or the status line.
func decodeError(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
			return apiErr
		}
		if payload.Message != "" {
			apiErr.Message = payload.Message
			return apiErr
		}
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("api url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
