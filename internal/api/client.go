// Package api contains clients for the remote maintenance, inspection,
// auth and upload-broker APIs.
package api

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
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrSessionExpired is returned when a 401 could not be fixed by refreshing the token.
	ErrSessionExpired = errors.New("session expired, please login again")
	// ErrNoToken is returned when an authenticated call has no access token.
	ErrNoToken = errors.New("no access token available, please login again")
)

// StatusError is a non-2xx response from a remote API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// TokenSource supplies bearer tokens for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Refresh obtains a new access token after the current one was rejected.
	Refresh(ctx context.Context) (string, error)
}

// Client performs JSON requests against one remote base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *log.Entry
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("component", "api"),
	}
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.do(ctx, method, path, query, body, out, "")
}

// DoAuthed is Do with a bearer token. A 401 triggers one refresh and one retry;
// if the refresh fails the session is treated as expired.
func (c *Client) DoAuthed(ctx context.Context, ts TokenSource, method, path string, query url.Values, body, out any) error {
	if ts == nil {
		return ErrNoToken
	}
	token, err := ts.Token(ctx)
	if err != nil || token == "" {
		return ErrNoToken
	}

	err = c.do(ctx, method, path, query, body, out, token)
	if !IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	c.log.WithField("path", path).Debug("access token rejected, refreshing")
	token, rerr := ts.Refresh(ctx)
	if rerr != nil || token == "" {
		c.log.WithError(rerr).Warn("token refresh failed")
		return ErrSessionExpired
	}
	return c.do(ctx, method, path, query, body, out, token)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, token string) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(log.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("remote call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError builds a StatusError from the server's detail or error field.
func decodeError(resp *http.Response) error {
	msg := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		var detail string
		// detail may be a validation error list instead of a string
		if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
			msg = detail
		} else if payload.Error != "" {
			msg = payload.Error
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
