package backend

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
	"time"

	"github.com/mikey/email-verifier/internal/core"
	"github.com/mikey/email-verifier/internal/utils"
	"go.uber.org/zap"
)

const (
	checkEmailPath = "/v0/check_email"
	healthPath     = "/health"

	// maxLoggedBody caps how much of an error body goes into a log line
	maxLoggedBody = 512
)

// CheckEmailRequest is the JSON body of a verification request
type CheckEmailRequest struct {
	ToEmail   string                `json:"to_email"`
	FromEmail string                `json:"from_email,omitempty"`
	HelloName string                `json:"hello_name,omitempty"`
	Proxy     *core.ProxyDescriptor `json:"proxy,omitempty"`
}

// Client is an implementation of the BackendClient interface over HTTP
type Client struct {
	checkURL      string
	healthURL     string
	httpClient    *http.Client
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClient creates a new backend client for the given base URL
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger, textProcessor *utils.TextProcessor) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported backend URL scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("backend URL %q has no host", baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{
		checkURL:      base.ResolveReference(&url.URL{Path: checkEmailPath}).String(),
		healthURL:     base.ResolveReference(&url.URL{Path: healthPath}).String(),
		httpClient:    httpClient,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// CheckEmail issues a single verification request for item
func (c *Client) CheckEmail(ctx context.Context, item core.WorkItem, timeout time.Duration) (core.Payload, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	address := item.Address
	if address == "" {
		address = item.Email
	}

	body, err := json.Marshal(CheckEmailRequest{
		ToEmail:   address,
		FromEmail: item.FromEmail,
		HelloName: item.HelloName,
		Proxy:     item.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.checkURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyError("check email", timeout, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError("read verification response", timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("Backend rejected verification request",
			zap.String("email", address),
			zap.Int("status", resp.StatusCode),
			zap.String("body", c.textProcessor.TruncateText(string(data), maxLoggedBody)))
		return nil, &core.BackendError{
			Email:      address,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(data),
		}
	}

	var payload core.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode verification response for %q: %w", address, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("empty verification response for %q", address)
	}

	return payload, nil
}

// CheckHealth issues a single health probe
func (c *Client) CheckHealth(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyError("health check", timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		return &core.BackendError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(data),
		}
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classifyError separates deadline expiry from other transport failures
func classifyError(op string, timeout time.Duration, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &core.TimeoutError{Op: op, After: timeout, Err: err}
	}
	return &core.TransportError{Op: op, Err: err}
}
