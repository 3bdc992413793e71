package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/types"
)

// httpClient talks to the grid API.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type actionRequest struct {
	ActionID string `json:"action_id,omitempty"`
	grid.Action
}

type actionResponse struct {
	types.GridView
	Duplicate bool `json:"duplicate"`
}

type shareResponse struct {
	Query string `json:"query"`
}

// Rate limited requests are retried after this pause, at most maxRetries
// times.
const (
	retryPause = 250 * time.Millisecond
	maxRetries = 40
)

// do sends body as JSON and decodes a response with status want into out.
func (c *httpClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		payload = data
	}

	for attempt := 0; ; attempt++ {
		status, data, err := c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
		if status == http.StatusTooManyRequests && attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryPause):
			}
			continue
		}
		if status != want {
			return fmt.Errorf("%w: %s %s: status %d: %s", ErrRemote, method, path, status, bytes.TrimSpace(data))
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode %s: %w", ErrRemote, path, err)
		}
		return nil
	}
}

func (c *httpClient) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrRemote, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read %s: %w", ErrRemote, path, err)
	}
	return resp.StatusCode, data, nil
}

func (c *httpClient) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

func (c *httpClient) putFeed(ctx context.Context, f catalog.Feed) error {
	return c.do(ctx, http.MethodPut, "/webcasts", f, http.StatusOK, nil)
}

func (c *httpClient) createSession(ctx context.Context) (string, error) {
	var v types.GridView
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, http.StatusCreated, &v); err != nil {
		return "", err
	}
	return v.SessionID, nil
}

func (c *httpClient) apply(ctx context.Context, sessionID, actionID string, a grid.Action) (actionResponse, error) {
	var out actionResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/actions"
	err := c.do(ctx, http.MethodPost, path, actionRequest{ActionID: actionID, Action: a}, http.StatusOK, &out)
	return out, err
}

func (c *httpClient) share(ctx context.Context, sessionID string) (string, error) {
	var out shareResponse
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/share", nil, http.StatusOK, &out)
	return out.Query, err
}

func (c *httpClient) deleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), nil, http.StatusNoContent, nil)
}
