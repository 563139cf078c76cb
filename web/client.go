package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"focuswatch/tracker"
)

// Client talks to a running tracker's control API.
type Client struct {
	base string
	http *http.Client
}

func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: 5 * time.Second}}
}

func (c *Client) Status(ctx context.Context) (tracker.Status, error) {
	var st tracker.Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &st)
	return st, err
}

func (c *Client) Start(ctx context.Context) (tracker.Status, error) {
	var st tracker.Status
	err := c.do(ctx, http.MethodPost, "/api/start", nil, &st)
	return st, err
}

func (c *Client) Stop(ctx context.Context) (tracker.Status, error) {
	var st tracker.Status
	err := c.do(ctx, http.MethodPost, "/api/stop", nil, &st)
	return st, err
}

func (c *Client) Summary(ctx context.Context, period string) (SummaryResponse, error) {
	var resp SummaryResponse
	err := c.do(ctx, http.MethodGet, "/api/summary", url.Values{"period": {period}}, &resp)
	return resp, err
}

func (c *Client) Recent(ctx context.Context, limit int) (RecentResponse, error) {
	var resp RecentResponse
	err := c.do(ctx, http.MethodGet, "/api/recent", url.Values{"limit": {fmt.Sprint(limit)}}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, out any) error {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tracker not reachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, e.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
