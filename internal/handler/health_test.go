package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"fanout-proxy-go/internal/config"
	"fanout-proxy-go/internal/target"
)

func TestHealthz(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cfg := &config.Config{Forward: config.ForwardConfig{IdleConnections: 10}}
	h := NewHealthHandler(newFanout(t, cfg, []target.Origin{{Scheme: "https", Host: "a.example"}}), "test")
	if err := h.Healthz(c); err != nil {
		t.Fatalf("Healthz() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
}

func TestStatus(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/fanout/status", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cfg := &config.Config{Forward: config.ForwardConfig{
		Response:            "await-fwd",
		ReturnsSuccessFirst: true,
		IdleConnections:     10,
	}}
	targets := []target.Origin{
		{Scheme: "https", Host: "a.example"},
		{Scheme: "https", Host: "b.example"},
	}
	h := NewHealthHandler(newFanout(t, cfg, targets), "1.2.3")
	if err := h.Status(c); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Status            string   `json:"status"`
		Version           string   `json:"version"`
		Targets           []string `json:"targets"`
		Policy            string   `json:"policy"`
		PrioritizeSuccess bool     `json:"prioritize_success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("body.status = %q, want %q", body.Status, "ok")
	}
	if body.Version != "1.2.3" {
		t.Errorf("body.version = %q, want %q", body.Version, "1.2.3")
	}
	if len(body.Targets) != 2 || body.Targets[0] != "https://a.example" {
		t.Errorf("body.targets = %v, want resolved origins in order", body.Targets)
	}
	if body.Policy != "await-forward" {
		t.Errorf("body.policy = %q, want %q", body.Policy, "await-forward")
	}
	if !body.PrioritizeSuccess {
		t.Error("body.prioritize_success = false, want true")
	}
}
