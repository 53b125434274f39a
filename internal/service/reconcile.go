package service

import (
	"encoding/json"
	"net/http"

	"fanout-proxy-go/internal/model"
)

// Reconcile selects exactly one response from the settled attempts according
// to the active policy.
//
// Fixed policies return their canned response and discard the outcomes.
// Await-forward scans the attempts in target-list order, skipping failures:
// with PrioritizeSuccess the first 200 wins outright; otherwise (or when no
// 200 exists) the first non-200 status wins, falling back to the last 200
// seen. When every attempt failed, the canned fallback body is returned.
func (f *Fanout) Reconcile(attempts []model.ForwardAttempt) *model.Reply {
	p := f.policy

	if p.Mode != ModeAwaitForward {
		return cannedReply(p.StatusCode, p.Body)
	}

	if p.PrioritizeSuccess {
		for i := range attempts {
			a := &attempts[i]
			if a.Failed() {
				continue
			}
			if a.Result.StatusCode == http.StatusOK {
				return forwardReply(a.Result)
			}
		}
	}

	var lastOK *model.ForwardResult
	for i := range attempts {
		a := &attempts[i]
		if a.Failed() {
			continue
		}
		if a.Result.StatusCode != http.StatusOK {
			return forwardReply(a.Result)
		}
		lastOK = a.Result
	}
	if lastOK != nil {
		return forwardReply(lastOK)
	}

	return cannedReply(p.StatusCode, p.Body)
}

// forwardReply copies a forward result onto the outbound response: status
// verbatim, body as-is, and at most the content-type header. An empty body
// yields a status-only reply.
func forwardReply(res *model.ForwardResult) *model.Reply {
	if len(res.Body) == 0 {
		return &model.Reply{StatusCode: res.StatusCode}
	}
	return &model.Reply{
		StatusCode:  res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        res.Body,
	}
}

func cannedReply(status int, body model.CannedBody) *model.Reply {
	data, _ := json.Marshal(body)
	return &model.Reply{
		StatusCode:  status,
		ContentType: "application/json",
		Body:        data,
	}
}
