// Package remote is the desk's REST client for the backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"quality-desk/internal/areas"
	"quality-desk/internal/campaign"
	"quality-desk/internal/complaints"
	"quality-desk/internal/desk"
)

// StatusError is a 4xx answer. It is not retryable as is.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend answered %d: %s", e.Status, e.Message)
}

// Client logs in on first use and reuses the access token until the
// backend rejects it.
type Client struct {
	BaseURL  string
	Username string
	Password string

	http *http.Client

	mu    sync.Mutex
	token string
}

func New(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		Password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

var _ desk.Remote = (*Client)(nil)

// Health is the backend's connectivity report.
type Health struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
	Redis    bool   `json:"redis"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, "health", http.MethodGet, "/healthz", nil, &h, false)
	var te *desk.TransportError
	if errors.As(err, &te) && te.Status == http.StatusServiceUnavailable {
		return Health{Status: "degraded"}, nil
	}
	return h, err
}

func (c *Client) CreateComplaint(ctx context.Context, rec complaints.Complaint) error {
	return c.authed(ctx, "create complaint", http.MethodPost, "/v1/complaints", rec, nil)
}

func (c *Client) UpdateComplaint(ctx context.Context, id string, r complaints.Resolution) error {
	return c.authed(ctx, "update complaint", http.MethodPatch, "/v1/complaints/"+url.PathEscape(id), r, nil)
}

func (c *Client) ListComplaints(ctx context.Context, r complaints.Range) ([]complaints.Complaint, error) {
	var out []complaints.Complaint
	err := c.authed(ctx, "list complaints", http.MethodGet, "/v1/complaints"+rangeQuery(r), nil, &out)
	return out, err
}

func (c *Client) RecordCampaign(ctx context.Context, d campaign.DailyStats) error {
	return c.authed(ctx, "record campaign", http.MethodPost, "/v1/campaign/stats", d, nil)
}

func (c *Client) ListAreas(ctx context.Context) ([]areas.Assignment, error) {
	var out []areas.Assignment
	err := c.authed(ctx, "list areas", http.MethodGet, "/v1/areas", nil, &out)
	return out, err
}

func (c *Client) ReassignArea(ctx context.Context, area, manager string) error {
	body := map[string]string{"manager": manager}
	return c.authed(ctx, "reassign area", http.MethodPut, "/v1/areas/"+url.PathEscape(area)+"/manager", body, nil)
}

func rangeQuery(r complaints.Range) string {
	q := url.Values{}
	if r.From != "" {
		q.Set("from", r.From)
	}
	if r.To != "" {
		q.Set("to", r.To)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) login(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"username": c.Username, "password": c.Password}
	if err := c.send(ctx, "login", http.MethodPost, "/v1/auth/login", "", body, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &desk.TransportError{Op: "login", Err: errors.New("no access token in response")}
	}
	c.token = out.AccessToken
	return c.token, nil
}

// authed sends with a bearer token and logs in again once on 401.
func (c *Client) authed(ctx context.Context, op, method, path string, in, out any) error {
	return c.do(ctx, op, method, path, in, out, true)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any, auth bool) error {
	if !auth {
		return c.send(ctx, op, method, path, "", in, out)
	}
	tok, err := c.login(ctx)
	if err != nil {
		return err
	}
	err = c.send(ctx, op, method, path, tok, in, out)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
		c.mu.Lock()
		if c.token == tok {
			c.token = ""
		}
		c.mu.Unlock()
		if tok, err = c.login(ctx); err != nil {
			return err
		}
		return c.send(ctx, op, method, path, tok, in, out)
	}
	return err
}

func (c *Client) send(ctx context.Context, op, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote: %s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote: %s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &desk.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return &desk.TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(errorMessage(raw))}
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &desk.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func errorMessage(raw []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "empty response"
	}
	return s
}
