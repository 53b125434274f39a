// Package service implements the fan-out and reconciliation engine.
package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"fanout-proxy-go/internal/client"
	"fanout-proxy-go/internal/config"
	"fanout-proxy-go/internal/model"
	"fanout-proxy-go/internal/target"
)

// Fanout replicates one inbound request to every configured target and
// reconciles the outcomes into a single response. The target list, header
// allowlist and policy are fixed at construction and shared read-only by all
// requests.
type Fanout struct {
	client    *client.UpstreamClient
	targets   []target.Origin
	allowlist map[string]bool
	policy    Policy
	logger    *slog.Logger
}

// NewFanout creates the fan-out engine from resolved configuration.
func NewFanout(c *client.UpstreamClient, cfg *config.Config, targets []target.Origin, logger *slog.Logger) *Fanout {
	return &Fanout{
		client:    c,
		targets:   targets,
		allowlist: cfg.ForwardedHeaderAllowlist(),
		policy:    ResolvePolicy(cfg.Forward.Response, cfg.Forward.ReturnsSuccessFirst),
		logger:    logger.With("component", "fanout"),
	}
}

// Targets returns the resolved target list in configuration order.
func (f *Fanout) Targets() []target.Origin {
	return f.targets
}

// Policy returns the active response policy.
func (f *Fanout) Policy() Policy {
	return f.policy
}

// FilterHeaders applies the configured allowlist and the fixed blocked set to
// the inbound headers. realIP is the inbound X-Real-Ip value, if any.
func (f *Fanout) FilterHeaders(src http.Header, realIP string) http.Header {
	return FilterHeaders(src, f.allowlist, realIP)
}

// Dispatch forwards the request to every target concurrently and returns
// once all attempts have settled. The result slice is in target-list order
// regardless of completion order; a failed attempt never blocks or cancels
// its siblings. GET requests never carry a body, whatever the inbound request
// held.
func (f *Fanout) Dispatch(ctx context.Context, pr *model.ProxyRequest) []model.ForwardAttempt {
	// Attempts run to their natural completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	path := NormalizePath(pr.Path)
	omitBody := strings.EqualFold(pr.Method, http.MethodGet)

	attempts := make([]model.ForwardAttempt, len(f.targets))
	var g errgroup.Group

	for i, origin := range f.targets {
		g.Go(func() error {
			var body io.Reader
			if !omitBody && len(pr.Body) > 0 {
				body = bytes.NewReader(pr.Body)
			}

			res, err := f.client.Do(ctx, origin, pr.Method, path, pr.Header, body)
			if err != nil {
				f.logger.Debug("forward attempt failed",
					"target", origin.String(),
					"err", err,
				)
			}
			attempts[i] = model.ForwardAttempt{Target: origin, Result: res, Err: err}
			return nil
		})
	}

	// Goroutines never return errors; Wait is a pure all-settled barrier.
	_ = g.Wait()
	return attempts
}

// NormalizePath prepares the inbound path for forwarding: a missing leading
// slash is prepended, and a run of leading slashes collapses to one. The rest
// of the path, including any query string, is left untouched.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return "/" + strings.TrimLeft(p, "/")
}
