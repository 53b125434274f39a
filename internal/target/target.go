// Package target resolves the configured target host list into origins.
package target

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"
)

// ErrNoTargets is returned when the target host configuration is empty.
var ErrNoTargets = errors.New("target: no target hosts configured")

// ErrNoValidOrigins is returned when no configured entry parses to a usable origin.
var ErrNoValidOrigins = errors.New("target: no valid origin in configured target hosts")

// Origin identifies a forward destination by scheme and host:port, with no
// path or query component.
type Origin struct {
	Scheme string
	Host   string // host or host:port
}

// String renders the origin as scheme://host[:port].
func (o Origin) String() string {
	return o.Scheme + "://" + o.Host
}

// Resolve parses a comma-separated list of URLs into a deduplicated, ordered
// list of origins. Entries that do not parse to a URL with a scheme and host
// are skipped with a warning. First-seen order is preserved.
//
// An empty input or an input with zero valid entries is an error: a forwarder
// with no targets cannot serve traffic, and the caller must not start the
// listener.
func Resolve(raw string, logger *slog.Logger) ([]Origin, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoTargets
	}

	seen := make(map[string]bool)
	var origins []Origin

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		u, err := url.Parse(entry)
		if err != nil || u.Scheme == "" || u.Host == "" {
			logger.Warn("skipping invalid target host", "entry", entry)
			continue
		}

		o := Origin{Scheme: u.Scheme, Host: u.Host}
		if seen[o.String()] {
			continue
		}
		seen[o.String()] = true
		origins = append(origins, o)
	}

	if len(origins) == 0 {
		return nil, ErrNoValidOrigins
	}
	return origins, nil
}
