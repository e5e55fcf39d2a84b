package control

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/server"
	"github.com/muurk/musikremote/internal/settings"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the delay before the first retry; it doubles after each attempt
	DefaultRetryDelay = 200 * time.Millisecond

	// ConnectTimeout covers Connect, which waits for the daemon to dial and
	// authenticate with the server
	ConnectTimeout = 20 * time.Second
)

// Client talks to a running musikremote daemon. It implements
// settings.VolumeControl, settings.StreamingProxy and
// settings.ConnectionService so that a reconciler in another process can
// notify the daemon's collaborators.
type Client struct {
	// BaseURL is the daemon address, e.g. "http://127.0.0.1:7910"
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for retryable failures
	MaxRetries int

	// RetryDelay is the initial delay between attempts
	RetryDelay time.Duration
}

var (
	_ settings.VolumeControl     = (*Client)(nil)
	_ settings.StreamingProxy    = (*Client)(nil)
	_ settings.ConnectionService = (*Client)(nil)
)

// NewClient creates a client for the daemon at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetVolume implements settings.VolumeControl
func (c *Client) SetVolume(level float64) error {
	_, err := c.post("volume", "/control/volume", server.VolumeRequest{Level: level})
	return err
}

// Reload implements settings.StreamingProxy
func (c *Client) Reload() error {
	_, err := c.post("reload", "/control/reload", nil)
	return err
}

// Disconnect implements settings.ConnectionService
func (c *Client) Disconnect() error {
	_, err := c.post("disconnect", "/control/disconnect", nil)
	return err
}

// Connect asks the daemon to dial and authenticate now
func (c *Client) Connect() (*server.Status, error) {
	return c.post("connect", "/control/connect", nil)
}

// Status returns the daemon status
func (c *Client) Status() (*server.Status, error) {
	return c.do("status", http.MethodGet, "/status", nil)
}

func (c *Client) post(op, path string, body any) (*server.Status, error) {
	return c.do(op, http.MethodPost, path, body)
}

// do runs one request with retries and decodes the status body
func (c *Client) do(op, method, path string, body any) (*server.Status, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
	}

	var lastErr error
	delay := c.RetryDelay
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying control request",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			time.Sleep(delay)
			delay *= 2
		}

		st, err := c.attempt(op, method, path, payload)
		if err == nil {
			return st, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(op, method, path string, payload []byte) (*server.Status, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er server.ErrorResponse
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return nil, newHTTPError(op, resp.StatusCode, msg)
	}

	var st server.Status
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, newParseError(op, err)
	}
	return &st, nil
}
