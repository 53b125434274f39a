// Package client provides the outbound HTTP client shared by all forward attempts.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"fanout-proxy-go/internal/config"
	"fanout-proxy-go/internal/metrics"
	"fanout-proxy-go/internal/model"
	"fanout-proxy-go/internal/target"
)

// UpstreamClient sends requests to forward targets over a pooled transport.
type UpstreamClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient with connection pooling.
// The client timeout defaults to disabled (forward.timeout_seconds = 0); the
// forwarding layer itself never imposes a deadline on an attempt.
// The metrics parameter is optional; pass nil to disable forward metrics.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Forward.IdleConnections,
		MaxIdleConnsPerHost: cfg.Forward.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &UpstreamClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Forward.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Do issues one outbound request to origin+path and returns the fully
// buffered response. Any HTTP status is a success; only transport-level
// failures (dial, DNS, protocol) return an error. header is cloned before use
// so callers may share one header map across concurrent attempts.
func (c *UpstreamClient) Do(ctx context.Context, origin target.Origin, method, path string, header http.Header, body io.Reader) (*model.ForwardResult, error) {
	rawURL := origin.String() + path

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build forward request: %w", err)
	}
	req.Header = header.Clone()

	c.logger.Debug("forward request",
		"method", method,
		"url", rawURL,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.ForwardDuration.WithLabelValues(origin.String()).Observe(duration)
	}

	if err != nil {
		if c.metrics != nil {
			c.metrics.ForwardAttempts.WithLabelValues(origin.String(), metrics.OutcomeError).Inc()
		}
		return nil, fmt.Errorf("forward request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ForwardAttempts.WithLabelValues(origin.String(), metrics.OutcomeError).Inc()
		}
		return nil, fmt.Errorf("read forward response: %w", err)
	}

	if c.metrics != nil {
		c.metrics.ForwardAttempts.WithLabelValues(origin.String(), metrics.OutcomeSuccess).Inc()
	}

	return &model.ForwardResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
