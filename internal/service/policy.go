package service

import (
	"net/http"
	"strconv"

	"fanout-proxy-go/internal/model"
)

// Mode selects how the reconciler treats the fan-out outcomes.
type Mode int

const (
	// ModeFixed returns the policy's canned response and ignores the
	// forward outcomes (the fan-out still runs to completion).
	ModeFixed Mode = iota
	// ModeAwaitForward selects one of the settled forward results.
	ModeAwaitForward
)

// awaitForwardToken is the RESPONSE value that enables forward-result selection.
const awaitForwardToken = "await-fwd"

// Policy is the process-wide response policy, resolved once at startup.
type Policy struct {
	Mode              Mode
	StatusCode        int
	Body              model.CannedBody
	PrioritizeSuccess bool
}

// ResolvePolicy maps the RESPONSE configuration value to a Policy.
// "400", "404", "500" and "503" yield a fixed canned response with that
// status; "await-fwd" enables forward-result selection with the canned 200
// body as fallback; every other value, including empty, yields the canned
// 200. There are no error cases.
func ResolvePolicy(raw string, prioritizeSuccess bool) Policy {
	switch raw {
	case "400", "404", "500", "503":
		code, _ := strconv.Atoi(raw)
		return Policy{
			Mode:              ModeFixed,
			StatusCode:        code,
			Body:              cannedBody(code),
			PrioritizeSuccess: prioritizeSuccess,
		}
	case awaitForwardToken:
		return Policy{
			Mode:              ModeAwaitForward,
			StatusCode:        http.StatusOK,
			Body:              cannedBody(http.StatusOK),
			PrioritizeSuccess: prioritizeSuccess,
		}
	default:
		return Policy{
			Mode:              ModeFixed,
			StatusCode:        http.StatusOK,
			Body:              cannedBody(http.StatusOK),
			PrioritizeSuccess: prioritizeSuccess,
		}
	}
}

func cannedBody(code int) model.CannedBody {
	return model.CannedBody{
		Code:    strconv.Itoa(code),
		Message: http.StatusText(code),
	}
}
