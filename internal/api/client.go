package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stillmind-app/stillmind/internal/models"
)

// Client talks to the stillmind backend REST API. It owns the wire format;
// the engine only sees typed results.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client for the given base URL, e.g.
// "https://api.stillmind.app/api".
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Credentials is the authenticated payload returned by the auth endpoints.
type Credentials struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// apiError is the backend's error envelope.
type apiError struct {
	Message string `json:"message"`
}

// do issues one JSON request. A non-2xx status decodes the backend's
// message envelope into the returned error.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Message)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Login authenticates with the backend.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	var creds Credentials
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, name, email, password string) (Credentials, error) {
	var creds Credentials
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", body, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// FetchStats reads the authoritative aggregates and raw history.
func (c *Client) FetchStats(ctx context.Context, token string) (models.RemoteStats, error) {
	var remote models.RemoteStats
	if err := c.do(ctx, http.MethodGet, "/meditation/stats", token, nil, &remote); err != nil {
		return models.RemoteStats{}, err
	}
	return remote, nil
}

// AddSession appends one completed session to the remote history.
func (c *Client) AddSession(ctx context.Context, token string, rec models.SessionRecord) error {
	body := map[string]any{
		"minutes":      rec.Minutes,
		"meditationId": rec.MeditationID,
	}
	if rec.Title != "" {
		body["title"] = rec.Title
	}
	return c.do(ctx, http.MethodPost, "/meditation/add", token, body, nil)
}

// Wake nudges the backend awake before auth calls; free-tier hosts spin
// down when idle. Errors are irrelevant and dropped.
func (c *Client) Wake(ctx context.Context) {
	body := map[string]string{"email": "", "password": ""}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, nil); err != nil {
		c.logger.Debug("wake request", "error", err)
	}
}
