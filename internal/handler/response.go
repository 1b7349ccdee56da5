package handler

import (
	"encoding/json"
	"net/http"

	"github.com/cruxstack/flodesk-verify-go/internal/flodesk"
	"github.com/cruxstack/flodesk-verify-go/internal/verifier"
)

const (
	ErrorMethodNotAllowed = "method_not_allowed"
	ErrorInvalidEmail     = "invalid_email"
	ErrorMissingAPIKey    = "missing_api_key"
	ErrorFlodesk          = "flodesk_error"
	ErrorServer           = "server_error"
)

type Request struct {
	Method    string
	Body      []byte
	RequestID string
}

// Response is transport neutral; Body is nil for preflight responses.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

type ErrorBody struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// UpstreamErrorBody always carries detail, even when flodesk sent no body.
type UpstreamErrorBody struct {
	OK       bool              `json:"ok"`
	Error    string            `json:"error"`
	Detail   string            `json:"detail"`
	Attempts []flodesk.Attempt `json:"attempts,omitempty"`
}

type NotFoundBody struct {
	OK       bool              `json:"ok"`
	Reason   verifier.Reason   `json:"reason"`
	Attempts []flodesk.Attempt `json:"attempts,omitempty"`
}

// DecisionBody is returned with HTTP 200 whether or not the subscriber is
// authorized; ok:false here is an answer, not a failure.
type DecisionBody struct {
	verifier.Decision
	Attempts []flodesk.Attempt `json:"attempts,omitempty"`
}

func jsonResponse(status int, body any) Response {
	bs, err := json.Marshal(body)
	if err != nil {
		bs, _ = json.Marshal(ErrorBody{Error: ErrorServer, Detail: err.Error()})
		status = http.StatusInternalServerError
	}

	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       bs,
	}
}

func errorResponse(status int, code, detail string) Response {
	return jsonResponse(status, ErrorBody{Error: code, Detail: detail})
}
