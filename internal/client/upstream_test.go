package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fanout-proxy-go/internal/config"
	"fanout-proxy-go/internal/metrics"
	"fanout-proxy-go/internal/target"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func originFor(t *testing.T, serverURL string) target.Origin {
	t.Helper()
	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatal(err)
	}
	return target.Origin{Scheme: u.Scheme, Host: u.Host}
}

func TestDo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/ping")
		}
		if got := r.Header.Get("X-Api-Key"); got != "k" {
			t.Errorf("X-Api-Key = %q, want %q", got, "k")
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	cfg := &config.Config{Forward: config.ForwardConfig{IdleConnections: 10}}
	c := NewUpstreamClient(cfg, testLogger(), nil)

	header := http.Header{"X-Api-Key": {"k"}}
	res, err := c.Do(context.Background(), originFor(t, srv.URL), http.MethodGet, "/ping", header, nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if res.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want %d", res.StatusCode, http.StatusAccepted)
	}
	if string(res.Body) != "pong" {
		t.Errorf("body = %q, want %q", res.Body, "pong")
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/plain")
	}
}

func TestDo_NonOKStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.Config{Forward: config.ForwardConfig{IdleConnections: 10}}
	c := NewUpstreamClient(cfg, testLogger(), nil)

	res, err := c.Do(context.Background(), originFor(t, srv.URL), http.MethodGet, "/", http.Header{}, nil)
	if err != nil {
		t.Fatalf("Do() error = %v, want nil for HTTP 500", err)
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}
}

func TestDo_TransportErrorRecordsMetrics(t *testing.T) {
	cfg := &config.Config{Forward: config.ForwardConfig{IdleConnections: 10}}
	m := metrics.New()
	c := NewUpstreamClient(cfg, testLogger(), m)

	// Port 1 on localhost should refuse connections.
	origin := target.Origin{Scheme: "http", Host: "127.0.0.1:1"}
	_, err := c.Do(context.Background(), origin, http.MethodGet, "/", http.Header{}, nil)
	if err == nil {
		t.Fatal("Do() error = nil, want transport error")
	}
	if !strings.Contains(err.Error(), "forward request") {
		t.Errorf("error = %v, want wrapped forward request error", err)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "fanout_proxy_forward_attempts_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected fanout_proxy_forward_attempts_total after failed attempt")
	}
}

func TestDo_SharedHeaderNotMutated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &config.Config{Forward: config.ForwardConfig{IdleConnections: 10}}
	c := NewUpstreamClient(cfg, testLogger(), nil)

	header := http.Header{"X-Shared": {"v"}}
	if _, err := c.Do(context.Background(), originFor(t, srv.URL), http.MethodPost, "/", header, strings.NewReader("body")); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if len(header) != 1 || header.Get("X-Shared") != "v" {
		t.Errorf("shared header mutated: %v", header)
	}
}
