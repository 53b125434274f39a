// Package config handles TOML configuration loading with CLI/env overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/fanout-proxy/config.toml",
	"configs/config.toml",
}

// responseTokens are the recognized RESPONSE values. Anything else falls
// through to the default 200 policy, so unrecognized tokens only warn.
var responseTokens = map[string]bool{
	"": true, "200": true, "400": true, "404": true,
	"500": true, "503": true, "await-fwd": true,
}

// CLI holds command-line arguments parsed by Kong. Every knob of the
// forwarding contract is reachable through environment variables alone, so a
// config file is optional.
type CLI struct {
	Config              string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host                string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port                int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	CORSOrigin          string `kong:"help='Allowed CORS origin; empty disables CORS handling (overrides config).',env='CORS_ORIGIN'"`
	TargetHosts         string `kong:"help='Comma-separated target origin URLs (overrides config).',env='TARGET_HOSTS'"`
	Response            string `kong:"help='Response policy: 200|400|404|500|503|await-fwd (overrides config).',env='RESPONSE'"`
	ReturnsSuccessFirst bool   `kong:"help='Under await-fwd, prefer the first 200 forward result.',env='RETURNS_SUCCESS_FIRST'"`
	ForwardedHeader     string `kong:"help='Comma-separated allowlist of header names to forward (overrides config).',env='FORWARDED_HEADER'"`
	LogLevel            string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Forward ForwardConfig `toml:"forward"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	CORSOrigin   string          `toml:"cors_origin"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ForwardConfig holds fan-out forwarding settings.
type ForwardConfig struct {
	Targets             string `toml:"targets"`
	Response            string `toml:"response"`
	ReturnsSuccessFirst bool   `toml:"returns_success_first"`
	ForwardedHeaders    string `toml:"forwarded_headers"`
	TimeoutSeconds      int    `toml:"timeout_seconds"` // 0 disables the client timeout
	IdleConnections     int    `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file (if any) and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/fanout-proxy/config.toml then configs/config.toml; finding none is not
// an error because the whole configuration is reachable via environment
// variables.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.CORSOrigin != "" {
		c.Server.CORSOrigin = cli.CORSOrigin
	}
	if cli.TargetHosts != "" {
		c.Forward.Targets = cli.TargetHosts
	}
	if cli.Response != "" {
		c.Forward.Response = cli.Response
	}
	if cli.ReturnsSuccessFirst {
		c.Forward.ReturnsSuccessFirst = true
	}
	if cli.ForwardedHeader != "" {
		c.Forward.ForwardedHeaders = cli.ForwardedHeader
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	// Targets: required. The zero-valid-origins case is diagnosed separately
	// by the target resolver at startup.
	if strings.TrimSpace(c.Forward.Targets) == "" {
		return fmt.Errorf("forward.targets is required; set TARGET_HOSTS or forward.targets")
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Forward.TimeoutSeconds < 0 {
		return fmt.Errorf("forward.timeout_seconds must be non-negative; got %d", c.Forward.TimeoutSeconds)
	}
	if c.Forward.IdleConnections < 0 {
		return fmt.Errorf("forward.idle_connections must be non-negative; got %d", c.Forward.IdleConnections)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/healthz", "/fanout/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields, zero means "unset" because TOML cannot distinguish
// between an explicit 0 and an omitted key. forward.timeout_seconds is the
// exception: it stays 0, which disables the upstream client timeout — the
// forwarding contract imposes no per-attempt deadline of its own.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Forward.IdleConnections == 0 {
		c.Forward.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// ForwardedHeaderAllowlist parses forward.forwarded_headers into a set of
// lower-cased header names. It returns nil when no allowlist is configured,
// which means "forward everything except the blocked set".
func (c *Config) ForwardedHeaderAllowlist() map[string]bool {
	raw := strings.TrimSpace(c.Forward.ForwardedHeaders)
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			set[name] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// WarnUnknownResponse logs a warning when forward.response is not a
// recognized token; the policy resolver treats it as the default 200.
func (c *Config) WarnUnknownResponse(logger *slog.Logger) {
	if !responseTokens[c.Forward.Response] {
		logger.Warn("unrecognized forward.response value; using default 200 policy",
			"response", c.Forward.Response,
		)
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
