// Package apiclient talks to a remote adaptive-chess server.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/adaptive-chess/pkg/chessdto"
)

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// bot moves at depth 8 can take a while
		http:           &fasthttp.Client{ReadTimeout: 60 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 60 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) CreateSession(ctx context.Context, id string, depth *int) (*chessdto.SessionView, error) {
	var out chessdto.SessionView
	req := chessdto.CreateSessionRequest{SessionID: id, Depth: depth}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/session", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*chessdto.SessionView, error) {
	var out chessdto.SessionView
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/session/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitMove(ctx context.Context, id, move string) (*chessdto.MoveResponse, error) {
	var out chessdto.MoveResponse
	path := "/session/" + url.PathEscape(id) + "/move"
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, chessdto.MoveRequest{Move: move}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TriggerBotMove(ctx context.Context, id string) (*chessdto.BotMoveResponse, error) {
	var out chessdto.BotMoveResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/session/"+url.PathEscape(id)+"/bot", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LegalMoves(ctx context.Context, id string) (*chessdto.LegalMoves, error) {
	var out chessdto.LegalMoves
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/session/"+url.PathEscape(id)+"/legal", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Hint(ctx context.Context, id string) (*chessdto.HintResponse, error) {
	var out chessdto.HintResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/session/"+url.PathEscape(id)+"/hint", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, "/session/"+url.PathEscape(id), nil, nil)
}

func (c *Client) RecentGames(ctx context.Context, limit int) ([]*chessdto.GameRecord, error) {
	var out chessdto.GameList
	path := "/games"
	if limit > 0 {
		path = fmt.Sprintf("/games?limit=%d", limit)
	}
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Games, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, fasthttp.MethodGet, "/health", nil, nil)
}

// doJSON sends one request. Only GETs are retried, and only on transport
// errors and 5xx responses.
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	retry := method == fasthttp.MethodGet
	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts || !retry {
				return lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = decodeError(status, resp.Body())
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeError(status int, body []byte) error {
	var er chessdto.ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Code == "" {
		return chessdto.DomainError{
			Status:    status,
			Code:      "http_error",
			Message:   fmt.Sprintf("status=%d body=%s", status, truncate(string(body), 512)),
			Retryable: shouldRetryStatus(status),
		}
	}
	return chessdto.DomainError{
		Status:    status,
		Code:      er.Code,
		Message:   er.Message,
		Retryable: shouldRetryStatus(status),
	}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
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
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
