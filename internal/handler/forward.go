package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"fanout-proxy-go/internal/model"
	"fanout-proxy-go/internal/service"
)

// ForwardHandler replicates inbound requests across the configured targets
// and writes the reconciled response.
type ForwardHandler struct {
	service *service.Fanout
	logger  *slog.Logger
}

// NewForwardHandler creates a ForwardHandler.
func NewForwardHandler(svc *service.Fanout, logger *slog.Logger) *ForwardHandler {
	return &ForwardHandler{
		service: svc,
		logger:  logger.With("component", "forward_handler"),
	}
}

// Handle accepts any method on any path: it buffers the body, filters the
// headers, fans the request out to every target, reconciles the settled
// attempts under the active policy, and writes exactly one response.
func (h *ForwardHandler) Handle(c echo.Context) error {
	req := c.Request()

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			h.logger.Error("reading request body",
				"err", err,
				"path", req.URL.Path,
			)
			return c.JSON(http.StatusInternalServerError, model.CannedBody{
				Code:    "500",
				Message: "Internal Server Error",
			})
		}
	}

	pr := &model.ProxyRequest{
		Method: req.Method,
		Path:   req.URL.RequestURI(),
		Header: h.service.FilterHeaders(req.Header, req.Header.Get("X-Real-Ip")),
		Body:   body,
	}

	attempts := h.service.Dispatch(req.Context(), pr)
	reply := h.service.Reconcile(attempts)

	res := c.Response()
	if reply.ContentType != "" {
		res.Header().Set(echo.HeaderContentType, reply.ContentType)
	}
	res.WriteHeader(reply.StatusCode)
	if len(reply.Body) > 0 {
		if _, err := res.Write(reply.Body); err != nil {
			// Status is already on the wire; nothing left to do but log.
			h.logger.Error("writing response body",
				"err", err,
				"path", req.URL.Path,
			)
		}
	}

	return nil
}
