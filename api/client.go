// Package api makes requests to the hide-and-seek HTTP server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jacobpatterson1549/hide-and-seek/log"
)

type (
	// Client makes requests to the server.
	Client struct {
		httpClient *http.Client
		baseURL    *url.URL
		Config
	}

	// Config contains fields which describe a Client.
	Config struct {
		// BaseURL is the scheme and host of the server, such as http://localhost:4000
		BaseURL string
		// Log is used to log errors and other information.
		Log log.Logger
		// Debug causes each request and its response status to be logged.
		Debug bool
		// ConnectTimeout is the longest time that can be spent opening a connection to the server.
		ConnectTimeout time.Duration
		// RequestTimeout is the longest time a whole request, including reading the response, can take.
		RequestTimeout time.Duration
		// IdleTimeout is the longest time to wait for the server to start responding after the request is sent.
		IdleTimeout time.Duration
	}

	// RequestError is returned for all failed requests: network errors, timeouts, unwanted status codes, and unreadable responses.
	RequestError struct {
		// Err is the cause of the failure.
		Err error
	}

	// StatusError is the cause of a RequestError when the server responds with a status code that is not 2xx.
	StatusError struct {
		// Code is the HTTP status code.
		Code int
		// Message is the start of the response body, if any.
		Message string
	}
)

// maxErrorMessageLength is the most bytes of an error response body that are kept.
const maxErrorMessageLength = 256

var errMissingData = errors.New("response missing data")

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

// Unwrap returns the cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	status := fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	if len(e.Message) == 0 {
		return "unwanted status " + status
	}
	return fmt.Sprintf("unwanted status %v: %v", status, e.Message)
}

// NewClient creates a Client from the Config.
func (cfg Config) NewClient() (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("creating api client: validation: %w", err)
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating api client: parsing base url: %w", err)
	}
	dialer := net.Dialer{
		Timeout: cfg.ConnectTimeout,
	}
	transport := http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.IdleTimeout,
		IdleConnTimeout:       cfg.IdleTimeout,
	}
	c := Client{
		httpClient: &http.Client{
			Transport: &transport,
			Timeout:   cfg.RequestTimeout,
		},
		baseURL: baseURL,
		Config:  cfg,
	}
	return &c, nil
}

// validate ensures the configuration has no errors.
func (cfg Config) validate() error {
	switch {
	case cfg.Log == nil:
		return fmt.Errorf("log required")
	case len(cfg.BaseURL) == 0:
		return fmt.Errorf("base url required")
	case !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://"):
		return fmt.Errorf("base url must be http or https: %q", cfg.BaseURL)
	case cfg.ConnectTimeout <= 0:
		return fmt.Errorf("positive connect timeout required")
	case cfg.RequestTimeout <= 0:
		return fmt.Errorf("positive request timeout required")
	case cfg.IdleTimeout <= 0:
		return fmt.Errorf("positive idle timeout required")
	}
	return nil
}

// BaseURL returns the scheme and host of the server.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// get requests the path and reads the json response into dest.
func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

// post sends the body as json to the path and reads the json response into dest.
func (c *Client) post(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dest)
}

// do makes the request, returning a RequestError for any failure.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	if err := c.doRequest(ctx, method, path, query, body, dest); err != nil {
		var re *RequestError
		if !errors.As(err, &re) {
			err = &RequestError{Err: err}
		}
		c.Log.Printf("api %v %v: %v", method, path, err)
		return err
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if c.Debug {
		c.Log.Printf("api %v %v -> %v", method, u.Path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorMessageLength))
		return &StatusError{
			Code:    resp.StatusCode,
			Message: errorMessage(b),
		}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorMessage reads the error from a json error response, falling back to the plain text of the body.
func errorMessage(body []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &m); err == nil {
		switch {
		case len(m.Error) != 0:
			return m.Error
		case len(m.Message) != 0:
			return m.Message
		}
	}
	return strings.TrimSpace(string(body))
}
