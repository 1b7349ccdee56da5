package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cruxstack/flodesk-verify-go/internal/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionURLEvent(method, body string, b64 bool) events.LambdaFunctionURLRequest {
	return events.LambdaFunctionURLRequest{
		RequestContext: events.LambdaFunctionURLRequestContext{
			RequestID: "req-123",
			HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{
				Method: method,
				Path:   "/",
			},
		},
		Body:            body,
		IsBase64Encoded: b64,
	}
}

func TestHandleFunctionURL(t *testing.T) {
	mv := &mockVerifier{outcome: &verifier.Outcome{
		Kind:     verifier.KindDecision,
		Decision: &verifier.Decision{OK: true, Status: "active", InRequiredSegment: true, Reason: verifier.ReasonAuthorized},
	}}
	h := New(testConfig(), mv)

	resp, err := h.HandleFunctionURL(context.Background(), functionURLEvent(http.MethodPost, `{"email":"user@example.com"}`, false))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"status":"active","inRequiredSegment":true,"reason":"authorized"}`, resp.Body)
	assertCORS(t, resp.Headers)
}

func TestHandleFunctionURL_Base64Body(t *testing.T) {
	mv := &mockVerifier{outcome: &verifier.Outcome{Kind: verifier.KindNotFound}}
	h := New(testConfig(), mv)

	body := base64.StdEncoding.EncodeToString([]byte(`{"email":"user@example.com"}`))
	resp, err := h.HandleFunctionURL(context.Background(), functionURLEvent(http.MethodPost, body, true))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"user@example.com"}, mv.emails)
}

func TestHandleFunctionURL_BadBase64(t *testing.T) {
	mv := &mockVerifier{}
	h := New(testConfig(), mv)

	resp, err := h.HandleFunctionURL(context.Background(), functionURLEvent(http.MethodPost, "%%%", true))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, `"error":"server_error"`)
	assertCORS(t, resp.Headers)
	assert.Empty(t, mv.emails)
}

func TestHandleFunctionURL_Preflight(t *testing.T) {
	mv := &mockVerifier{}
	h := New(testConfig(), mv)

	resp, err := h.HandleFunctionURL(context.Background(), functionURLEvent(http.MethodOptions, "", false))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assertCORS(t, resp.Headers)
	assert.Empty(t, mv.emails)
}

func TestHandleFunctionURL_UndecodableBodyOnlyMattersForPost(t *testing.T) {
	testCases := []struct {
		method string
		status int
	}{
		{http.MethodOptions, http.StatusOK},
		{http.MethodGet, http.StatusMethodNotAllowed},
		{http.MethodPut, http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.method, func(t *testing.T) {
			mv := &mockVerifier{}
			h := New(testConfig(), mv)

			resp, err := h.HandleFunctionURL(context.Background(), functionURLEvent(tc.method, "%%%", true))
			require.NoError(t, err)

			assert.Equal(t, tc.status, resp.StatusCode)
			assertCORS(t, resp.Headers)
			assert.Empty(t, mv.emails)
		})
	}
}
