// Package octopus is the HTTP adapter for the Octopus Energy REST and GraphQL APIs.
package octopus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/septivank/octobot/internal/config"
	"github.com/septivank/octobot/internal/domain"
	"go.uber.org/zap"
)

const maxResponseBytes = 8 << 20

// Client talks to the provider on behalf of the single configured account
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      config.Octopus
	logger     *zap.Logger
}

// NewClient creates a provider client from the account configuration
func NewClient(creds config.Octopus, logger *zap.Logger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: creds.HTTPTimeout}, creds, logger)
}

// NewClientWithHTTP creates a provider client using httpClient for transport
func NewClientWithHTTP(httpClient *http.Client, creds config.Octopus, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(creds.BaseURL, "/"),
		creds:      creds,
		logger:     logger.With(zap.String("component", "octopus")),
	}
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "octobot")
	return req, nil
}

// do executes req and decodes a 2xx JSON body into out. A 404 maps to
// domain.ErrNotFound; transport failures, other statuses and undecodable
// bodies map to domain.ErrUpstreamUnavailable.
func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUpstreamUnavailable, req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", domain.ErrUpstreamUnavailable, req.URL.Path, err)
	}

	c.logger.Debug("octopus request completed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s returned status %d", domain.ErrNotFound, req.URL.Path, resp.StatusCode)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s returned status %d: %s",
			domain.ErrUpstreamUnavailable, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrUpstreamUnavailable, req.URL.Path, err)
	}
	return nil
}
