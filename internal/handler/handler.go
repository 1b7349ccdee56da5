package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cruxstack/flodesk-verify-go/internal/config"
	"github.com/cruxstack/flodesk-verify-go/internal/logging"
	"github.com/cruxstack/flodesk-verify-go/internal/verifier"
)

type Handler struct {
	Verifier verifier.SubscriberVerifier
	Config   *config.Config
}

func New(cfg *config.Config, v verifier.SubscriberVerifier) *Handler {
	return &Handler{Verifier: v, Config: cfg}
}

// Handle runs one verification request. Every response, including errors and
// preflight, carries the CORS headers.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	if req.RequestID != "" {
		ctx = logging.WithRequestID(ctx, req.RequestID)
	}
	logger := logging.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while verifying subscriber", "panic", r)
			resp = errorResponse(http.StatusInternalServerError, ErrorServer, fmt.Sprint(r))
		}
		h.setCORS(&resp)
	}()

	switch req.Method {
	case http.MethodOptions:
		return Response{StatusCode: http.StatusOK, Headers: map[string]string{}}
	case http.MethodPost:
	default:
		return errorResponse(http.StatusMethodNotAllowed, ErrorMethodNotAllowed, "")
	}

	outcome, err := h.Verifier.Verify(ctx, emailFromBody(req.Body))
	switch {
	case errors.Is(err, verifier.ErrMissingAPIKey):
		logger.Error("flodesk api key is not configured")
		return errorResponse(http.StatusInternalServerError, ErrorMissingAPIKey, "")
	case errors.Is(err, verifier.ErrInvalidEmail):
		logger.Debug("rejected invalid email")
		return errorResponse(http.StatusBadRequest, ErrorInvalidEmail, "")
	case err != nil:
		logger.Error("subscriber verification failed", "error", err)
		return errorResponse(http.StatusInternalServerError, ErrorServer, err.Error())
	}

	switch outcome.Kind {
	case verifier.KindNotFound:
		logger.Info("subscriber not found", "attempts", len(outcome.Attempts))
		return jsonResponse(http.StatusOK, NotFoundBody{
			Reason:   verifier.ReasonNotFound,
			Attempts: outcome.Attempts,
		})
	case verifier.KindUpstreamError:
		logger.Warn("flodesk returned an error",
			"status", outcome.UpstreamStatus,
			"attempts", len(outcome.Attempts),
		)
		return jsonResponse(outcome.UpstreamStatus, UpstreamErrorBody{
			Error:    ErrorFlodesk,
			Detail:   outcome.UpstreamBody,
			Attempts: outcome.Attempts,
		})
	case verifier.KindDecision:
		logger.Info("subscriber verified",
			"ok", outcome.Decision.OK,
			"reason", outcome.Decision.Reason,
			"status", outcome.Decision.Status,
			"attempts", len(outcome.Attempts),
		)
		return jsonResponse(http.StatusOK, DecisionBody{
			Decision: *outcome.Decision,
			Attempts: outcome.Attempts,
		})
	default:
		return errorResponse(http.StatusInternalServerError, ErrorServer, fmt.Sprintf("unknown outcome %q", outcome.Kind))
	}
}

func (h *Handler) setCORS(resp *Response) {
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	resp.Headers["Access-Control-Allow-Origin"] = config.AllowedOrigin
	resp.Headers["Access-Control-Allow-Methods"] = config.AllowedMethods
	resp.Headers["Access-Control-Allow-Headers"] = config.AllowedHeaders
}

// emailFromBody returns "" for anything other than a JSON object with a string
// email field, which validation then rejects.
func emailFromBody(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	var email string
	if err := json.Unmarshal(payload["email"], &email); err != nil {
		return ""
	}
	return email
}
