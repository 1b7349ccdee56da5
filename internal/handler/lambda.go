package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// HandleFunctionURL adapts Lambda function URL (and API Gateway HTTP API v2)
// events to Handle.
func (h *Handler) HandleFunctionURL(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	if h.Config != nil && h.Config.DebugMode {
		if evtJson, err := json.Marshal(event); err == nil {
			slog.DebugContext(ctx, "received event", "event", string(evtJson))
		}
	}

	req := Request{
		Method:    event.RequestContext.HTTP.Method,
		Body:      []byte(event.Body),
		RequestID: event.RequestContext.RequestID,
	}

	// only a POST body is ever read, so preflight and rejected methods never
	// fail on an undecodable body
	var resp Response
	if event.IsBase64Encoded && req.Method == http.MethodPost {
		body, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			resp = errorResponse(http.StatusInternalServerError, ErrorServer, "failed to decode request body: "+err.Error())
			h.setCORS(&resp)
			return toFunctionURLResponse(resp), nil
		}
		req.Body = body
	}

	resp = h.Handle(ctx, req)
	return toFunctionURLResponse(resp), nil
}

func toFunctionURLResponse(resp Response) events.LambdaFunctionURLResponse {
	return events.LambdaFunctionURLResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}
