// Package model defines shared types for the fan-out forwarder.
package model

import (
	"net/http"

	"fanout-proxy-go/internal/target"
)

// ProxyRequest represents one inbound request prepared for fan-out. Path is
// the raw request URI including any query string; Header is the already
// filtered outbound header set; Body is buffered so it can be replayed to
// every target.
type ProxyRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// ForwardResult is a settled successful exchange with one target.
type ForwardResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ForwardAttempt is the outcome of forwarding to a single target: either
// Result is set (any HTTP status counts as success) or Err records the
// transport failure. Each attempt settles exactly once and is never retried.
type ForwardAttempt struct {
	Target target.Origin
	Result *ForwardResult
	Err    error
}

// Failed reports whether the attempt ended in a transport error.
func (a *ForwardAttempt) Failed() bool {
	return a.Err != nil
}

// CannedBody is the fixed JSON body used for policy-defined responses.
type CannedBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Reply is the single response returned to the caller after reconciliation.
// ContentType is empty when no content-type header should be set; Body may be
// empty, in which case only the status is sent.
type Reply struct {
	StatusCode  int
	ContentType string
	Body        []byte
}
