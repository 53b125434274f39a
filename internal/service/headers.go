package service

import (
	"net/http"
	"strings"
)

// blockedHeaders are reverse-proxy artifacts that must never reach a target,
// regardless of allowlist configuration. Compared case-insensitively.
var blockedHeaders = map[string]bool{
	"host":              true,
	"x-scheme":          true,
	"x-forwarded-for":   true,
	"x-forwarded-proto": true,
}

// realIPHeader carries the caller's address to the targets. It is injected
// only when no allowlist is configured.
const realIPHeader = "X-Real-Ip"

// FilterHeaders derives the outbound header set from the inbound one.
//
// With an allowlist, only listed names pass (matched case-insensitively) and
// nothing is injected. Without one, every header outside the blocked set
// passes with its original casing, and realIP, when non-empty, is set as
// X-Real-Ip.
func FilterHeaders(src http.Header, allowlist map[string]bool, realIP string) http.Header {
	dst := make(http.Header)

	for key, vals := range src {
		name := strings.ToLower(key)
		if blockedHeaders[name] {
			continue
		}
		if allowlist != nil && !allowlist[name] {
			continue
		}
		dst[key] = append([]string(nil), vals...)
	}

	if allowlist == nil && realIP != "" {
		dst.Set(realIPHeader, realIP)
	}

	return dst
}
