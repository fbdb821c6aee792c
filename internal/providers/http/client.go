package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/justchokingaround/mangadl/internal/config"
)

// Client wraps resty.Client with retry logic and timeout handling
type Client struct {
	resty      *resty.Client
	maxRetries int
	timeout    time.Duration
	debug      bool
	logger     *slog.Logger
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RetryWait is the initial backoff; it doubles up to five times its value
	RetryWait time.Duration
	UserAgent string
	Debug     bool
	Logger    *slog.Logger
}

// DefaultClientConfig returns sensible defaults for HTTP client
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryWait:  time.Second,
		UserAgent:  config.DefaultUserAgent,
	}
}

// ConfigFromNetwork builds a client configuration from the network section
func ConfigFromNetwork(cfg config.NetworkConfig, debug bool, logger *slog.Logger) ClientConfig {
	c := DefaultClientConfig()
	c.BaseURL = cfg.BaseURL
	c.Timeout = cfg.Timeout
	c.MaxRetries = cfg.MaxRetries
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.Debug = debug
	c.Logger = logger
	return c
}

// NewClient creates a new HTTP client with the given configuration.
// MaxRetries of zero disables retries.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(5*cfg.RetryWait).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json, text/html, */*").
		SetHeader("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	if cfg.BaseURL != "" {
		restyClient.SetBaseURL(cfg.BaseURL)
	}

	// Retry on network errors, 5xx and 429
	restyClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500 || r.StatusCode() == 429
	})

	client := &Client{
		resty:      restyClient,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
		debug:      cfg.Debug,
		logger:     cfg.Logger,
	}

	if cfg.Debug && cfg.Logger != nil {
		restyClient.OnBeforeRequest(func(c *resty.Client, r *resty.Request) error {
			client.logRequest(r)
			return nil
		})
		restyClient.OnAfterResponse(func(c *resty.Client, r *resty.Response) error {
			client.logResponse(r)
			return nil
		})
	}

	return client
}

// Get performs a GET request with context support
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	req := c.resty.R().SetContext(ctx).SetHeaders(headers)

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET request failed for %s: %w", url, err)
	}

	return checkStatus(resp, url)
}

// Post performs a POST request with context support
func (c *Client) Post(ctx context.Context, url string, body interface{}, headers map[string]string) (*resty.Response, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetBody(body).
		SetHeaders(headers)

	resp, err := req.Post(url)
	if err != nil {
		return nil, fmt.Errorf("POST request failed for %s: %w", url, err)
	}

	return checkStatus(resp, url)
}

// PostForm posts form as application/x-www-form-urlencoded. Repeated keys
// are kept.
func (c *Client) PostForm(ctx context.Context, url string, form url.Values, headers map[string]string) (*resty.Response, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetHeaders(headers)

	resp, err := req.Post(url)
	if err != nil {
		return nil, fmt.Errorf("POST request failed for %s: %w", url, err)
	}

	return checkStatus(resp, url)
}

// Download fetches url and returns the raw body
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func checkStatus(resp *resty.Response, url string) (*resty.Response, error) {
	if resp.StatusCode() >= 400 {
		body := resp.String()
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		return resp, &StatusError{URL: url, Code: resp.StatusCode(), Body: body}
	}
	return resp, nil
}

// StatusError reports a response with a 4xx or 5xx status
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d for %s: %s", e.Code, e.URL, e.Body)
}

// SetHeader sets a default header for all requests
func (c *Client) SetHeader(key, value string) {
	c.resty.SetHeader(key, value)
}

// SetHeaders sets multiple default headers
func (c *Client) SetHeaders(headers map[string]string) {
	c.resty.SetHeaders(headers)
}

// BaseURL returns the URL relative request paths resolve against
func (c *Client) BaseURL() string {
	return c.resty.BaseURL
}

// GetTimeout returns the configured timeout
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// GetMaxRetries returns the configured max retries
func (c *Client) GetMaxRetries() int {
	return c.maxRetries
}

// logRequest logs HTTP request details
func (c *Client) logRequest(r *resty.Request) {
	if c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Request",
		"method", r.Method,
		"url", r.URL,
		"headers", r.Header,
	)

	if len(r.FormData) > 0 {
		c.logger.Debug("Request Form", "form", r.FormData.Encode())
	}
}

// logResponse logs HTTP response details
func (c *Client) logResponse(r *resty.Response) {
	if c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Response",
		"status", r.StatusCode(),
		"url", r.Request.URL,
		"content_type", r.Header().Get("Content-Type"),
		"size", len(r.Body()),
		"time", r.Time(),
	)
}
