package handler

import (
	"io"
	"net/http"

	"github.com/cruxstack/flodesk-verify-go/internal/logging"
)

const maxBodyBytes = 64 << 10

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed to read request body", "error", err)
		body = nil
	}

	resp := h.Handle(r.Context(), Request{
		Method:    r.Method,
		Body:      body,
		RequestID: logging.RequestID(r.Context()),
	})

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}
