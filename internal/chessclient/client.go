// Package chessclient talks to a running chess server over fasthttp and
// follows a game's live feed over a websocket.
package chessclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/hotseat-chess/pkg/chessdto"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	chessdto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chess api error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

type retryPolicy int

const (
	noRetry retryPolicy = iota
	// retryIdempotent resends after transport errors and server-side failures.
	retryIdempotent
	// retryRejected resends only answers the server marks retryable, which
	// are refused before anything is written.
	retryRejected
)

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) CreateGame(ctx context.Context, req chessdto.CreateGameRequest) (*chessdto.GameState, error) {
	var st chessdto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/games", req, &st, noRetry); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Get(ctx context.Context, id string) (*chessdto.GameState, error) {
	var st chessdto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodGet, gamePath(id, ""), nil, &st, retryIdempotent); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Select(ctx context.Context, id, square string) (*chessdto.Selection, error) {
	var sel chessdto.Selection
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(id, "/select"), chessdto.SelectRequest{Square: square}, &sel, retryIdempotent); err != nil {
		return nil, err
	}
	return &sel, nil
}

// Move submits a move. A lost response may hide an applied move, so only
// answers rejected before commit are resent.
func (c *Client) Move(ctx context.Context, id string, req chessdto.MoveRequest) (*chessdto.MoveSummary, error) {
	var out chessdto.MoveSummary
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(id, "/moves"), req, &out, retryRejected); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Undo(ctx context.Context, id string) (*chessdto.GameState, error) {
	return c.stateCall(ctx, fasthttp.MethodPost, gamePath(id, "/undo"), nil)
}

func (c *Client) NewGame(ctx context.Context, id string) (*chessdto.GameState, error) {
	return c.stateCall(ctx, fasthttp.MethodPost, gamePath(id, "/new"), nil)
}

func (c *Client) Flip(ctx context.Context, id string) (*chessdto.GameState, error) {
	return c.stateCall(ctx, fasthttp.MethodPost, gamePath(id, "/flip"), nil)
}

func (c *Client) SetHints(ctx context.Context, id string, enabled bool) (*chessdto.GameState, error) {
	return c.stateCall(ctx, fasthttp.MethodPut, gamePath(id, "/hints"), chessdto.ToggleRequest{Enabled: enabled})
}

func (c *Client) SetClock(ctx context.Context, id string, enabled bool) (*chessdto.GameState, error) {
	return c.stateCall(ctx, fasthttp.MethodPut, gamePath(id, "/clock"), chessdto.ToggleRequest{Enabled: enabled})
}

func (c *Client) PGN(ctx context.Context, id string) (string, error) {
	body, err := c.doRaw(ctx, gamePath(id, "/pgn"))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Board fetches the rendered PNG, highlighting selected when set.
func (c *Client) Board(ctx context.Context, id, selected string) ([]byte, error) {
	path := gamePath(id, "/board.png")
	if selected != "" {
		path += "?selected=" + url.QueryEscape(selected)
	}
	return c.doRaw(ctx, path)
}

func (c *Client) History(ctx context.Context, limit int) ([]*chessdto.ArchivedGame, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out chessdto.HistoryResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out, retryIdempotent); err != nil {
		return nil, err
	}
	return out.Games, nil
}

func (c *Client) Archived(ctx context.Context, archiveID string) (*chessdto.ArchivedGame, error) {
	var g chessdto.ArchivedGame
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/history/"+url.PathEscape(archiveID), nil, &g, retryIdempotent); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) stateCall(ctx context.Context, method, path string, in any) (*chessdto.GameState, error) {
	var st chessdto.GameState
	if err := c.doJSON(ctx, method, path, in, &st, noRetry); err != nil {
		return nil, err
	}
	return &st, nil
}

func gamePath(id, suffix string) string {
	return "/api/games/" + url.PathEscape(id) + suffix
}

func (c *Client) prepare(req *fasthttp.Request, method, path string) {
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, policy retryPolicy) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	c.prepare(req, method, path)
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	body, err := c.do(ctx, req, resp, policy)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, path string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	c.prepare(req, fasthttp.MethodGet, path)
	return c.do(ctx, req, resp, retryIdempotent)
}

// do runs req, retrying with backoff as policy allows.
// The returned body is a copy that outlives resp.
func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response, policy retryPolicy) ([]byte, error) {
	attempts := 1
	if policy != noRetry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || policy != retryIdempotent {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := decodeError(status, resp.Body())
			if attempt == attempts || !shouldRetry(policy, apiErr) {
				return nil, apiErr
			}
			lastErr = apiErr
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}
		return append([]byte(nil), resp.Body()...), nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func decodeError(status int, body []byte) *APIError {
	var er chessdto.ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error.Code == "" {
		return &APIError{Status: status, DomainError: chessdto.DomainError{
			Code:    chessdto.CodeInternal,
			Message: truncate(strings.TrimSpace(string(body)), 512),
		}}
	}
	return &APIError{Status: status, DomainError: er.Error}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetry(policy retryPolicy, e *APIError) bool {
	if policy == retryRejected {
		return e.Retryable
	}
	if policy != retryIdempotent {
		return false
	}
	if e.Retryable {
		return true
	}
	switch e.Status {
	case 500, 502, 503, 504:
		return e.Code != chessdto.CodeInvariant
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
