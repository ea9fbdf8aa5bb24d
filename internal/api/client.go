// Package api is the REST client for the school ERP backend. Every call is
// bearer-token authenticated; a 401 anywhere fires the unauthorized hook so
// the session layer can clear persisted credentials.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pushkargithub0611/comm-module-goa/internal/demo"
	"github.com/pushkargithub0611/comm-module-goa/internal/log"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
var ErrUnauthorized = errors.New("api: unauthorized")

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zerolog.Logger
	// OnUnauthorized runs once per 401 response, before the call returns
	// ErrUnauthorized. Typically wired to session.Store.Clear.
	OnUnauthorized func()
	// Demo enables the degraded read path: when a fetch fails, the demo
	// dataset is served with Degraded=true instead of an error. Nil
	// disables the fallback.
	Demo *demo.Dataset
}

// Client talks to the backend REST API.
type Client struct {
	base           string
	http           *http.Client
	log            *zerolog.Logger
	token          string
	onUnauthorized func()
	demo           *demo.Dataset
}

// NewClient constructs a Client. The base URL includes the /api prefix.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{
		base:           opts.BaseURL,
		http:           &http.Client{Timeout: timeout},
		log:            logger,
		onUnauthorized: opts.OnUnauthorized,
		demo:           opts.Demo,
	}
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.token = ""
}

type errorResponse struct {
	Error string `json:"error"`
}

// do performs one JSON request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Warn().Str("path", path).Msg("unauthorized response, clearing session")
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
