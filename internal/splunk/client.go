// Package splunk is a small client for the splunkd saved search REST API.
package splunk

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultOwner is the namespace owner used for app-shared saved searches.
	DefaultOwner = "nobody"
	// DefaultTimeout bounds every splunkd round trip.
	DefaultTimeout = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL is the splunkd management URI, e.g. https://localhost:8089.
	BaseURL string
	App     string
	Owner   string

	// Token is a splunkd authentication token sent as a Bearer credential.
	// SessionKey is used when Token is empty.
	Token      string
	SessionKey string

	// Insecure skips TLS verification for self-signed splunkd certificates.
	Insecure bool
	Timeout  time.Duration

	// HTTPClient overrides the transport; Insecure and Timeout are ignored when set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one app namespace of a splunkd instance.
type Client struct {
	baseURL    string
	app        string
	owner      string
	token      string
	sessionKey string
	httpClient *http.Client
	logger     *slog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("splunk: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("splunk: parse base URL: %w", err)
	}
	if cfg.App == "" {
		return nil, fmt.Errorf("splunk: app is required")
	}

	owner := cfg.Owner
	if owner == "" {
		owner = DefaultOwner
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.Insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed splunkd
		}
		hc = &http.Client{Timeout: timeout, Transport: transport}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    base,
		app:        cfg.App,
		owner:      owner,
		token:      cfg.Token,
		sessionKey: cfg.SessionKey,
		httpClient: hc,
		logger:     logger,
	}, nil
}

// App returns the app namespace the client is scoped to.
func (c *Client) App() string {
	return c.app
}

// SessionKey returns the session key in use, if any.
func (c *Client) SessionKey() string {
	return c.sessionKey
}

// Login exchanges a username and password for a session key and keeps it
// for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/services/auth/login", form, &out, false); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if out.SessionKey == "" {
		return "", fmt.Errorf("login: session key not found in response")
	}

	c.sessionKey = out.SessionKey
	return out.SessionKey, nil
}

func (c *Client) authorize(req *http.Request) error {
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.sessionKey != "":
		req.Header.Set("Authorization", "Splunk "+c.sessionKey)
	default:
		return ErrNoCredentials
	}
	return nil
}

// do sends one request. path must already be escaped. Form values are sent
// as the body for POST and ignored otherwise.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any, auth bool) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	q := u.Query()
	q.Set("output_mode", "json")
	if method == http.MethodGet {
		for k, vs := range form {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if method == http.MethodPost && form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		if err := c.authorize(req); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("splunkd request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var errBody feed
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Messages = errBody.Messages
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
