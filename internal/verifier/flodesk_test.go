package verifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cruxstack/flodesk-verify-go/internal/config"
	"github.com/cruxstack/flodesk-verify-go/internal/flodesk"
	"github.com/cruxstack/flodesk-verify-go/internal/opa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDirectory struct {
	result *flodesk.LookupResult
	err    error
	calls  []string
}

func (m *mockDirectory) LookupSubscriber(ctx context.Context, email string) (*flodesk.LookupResult, error) {
	m.calls = append(m.calls, email)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func found(body string) *flodesk.LookupResult {
	return &flodesk.LookupResult{
		StatusCode: 200,
		Body:       body,
		Attempts:   []flodesk.Attempt{{URL: "https://api.flodesk.test/v1/subscribers/x", AuthMode: flodesk.AuthBasic, Status: 200}},
	}
}

func TestFlodeskVerifier_MissingAPIKey(t *testing.T) {
	dir := &mockDirectory{result: found(`{"status":"active"}`)}
	v := &FlodeskVerifier{Directory: dir}

	for _, email := range []string{"user@example.com", "not-an-email"} {
		_, err := v.Verify(context.Background(), email)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	}
	assert.Empty(t, dir.calls)
}

func TestFlodeskVerifier_InvalidEmailSkipsLookup(t *testing.T) {
	dir := &mockDirectory{result: found(`{"status":"active"}`)}
	v := &FlodeskVerifier{Directory: dir, APIKey: "k"}

	for _, email := range []string{"", "user", "user@localhost", "us er@example.com", "user@exa mple.com"} {
		_, err := v.Verify(context.Background(), email)
		assert.ErrorIs(t, err, ErrInvalidEmail, email)
	}
	assert.Empty(t, dir.calls)
}

func TestFlodeskVerifier_Outcomes(t *testing.T) {
	testCases := []struct {
		name     string
		result   *flodesk.LookupResult
		required string
		kind     OutcomeKind
		decision *Decision
		status   int
	}{
		{
			name:     "authorized",
			result:   found(`{"status":"active","segments":[{"id":"seg1"}]}`),
			required: "seg1",
			kind:     KindDecision,
			decision: &Decision{OK: true, Status: "active", InRequiredSegment: true, Reason: ReasonAuthorized},
		},
		{
			name:     "missing segment",
			result:   found(`{"status":"active","segments":[{"id":"seg2"}]}`),
			required: "seg1",
			kind:     KindDecision,
			decision: &Decision{OK: false, Status: "active", InRequiredSegment: false, Reason: ReasonMissingSegment},
		},
		{
			name:     "blank body fields",
			result:   found(`{}`),
			kind:     KindDecision,
			decision: &Decision{OK: false, Status: "", InRequiredSegment: true, Reason: ReasonNotFound},
		},
		{
			name:   "not found",
			result: &flodesk.LookupResult{StatusCode: 404},
			kind:   KindNotFound,
		},
		{
			name:   "upstream error",
			result: &flodesk.LookupResult{StatusCode: 429, Body: "slow down"},
			kind:   KindUpstreamError,
			status: 429,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := &mockDirectory{result: tc.result}
			v := &FlodeskVerifier{Directory: dir, APIKey: "k", RequiredSegmentID: tc.required}

			out, err := v.Verify(context.Background(), "  USER@Example.com ")
			require.NoError(t, err)

			assert.Equal(t, []string{"user@example.com"}, dir.calls)
			assert.Equal(t, "user@example.com", out.Email)
			assert.Equal(t, tc.kind, out.Kind)
			assert.Equal(t, tc.decision, out.Decision)
			assert.Equal(t, tc.result.Attempts, out.Attempts)
			if tc.kind == KindUpstreamError {
				assert.Equal(t, tc.status, out.UpstreamStatus)
				assert.Equal(t, "slow down", out.UpstreamBody)
			}
		})
	}
}

func TestFlodeskVerifier_Errors(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		v := &FlodeskVerifier{Directory: &mockDirectory{err: errors.New("dial tcp: refused")}, APIKey: "k"}
		_, err := v.Verify(context.Background(), "user@example.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dial tcp: refused")
	})

	t.Run("unparsable body", func(t *testing.T) {
		v := &FlodeskVerifier{Directory: &mockDirectory{result: found("not json")}, APIKey: "k"}
		_, err := v.Verify(context.Background(), "user@example.com")
		assert.Error(t, err)
	})
}

func TestFlodeskVerifier_Policy(t *testing.T) {
	ctx := context.Background()

	allowStaff, err := opa.PrepareDecisionPolicy(ctx, `
package flodesk.verify

result := {"ok": true, "reason": "authorized"} if {
	endswith(input.email, "@genetargeting.com")
	input.status == "active"
}
`)
	require.NoError(t, err)

	badReason, err := opa.PrepareDecisionPolicy(ctx, `
package flodesk.verify

result := {"reason": "vip"}
`)
	require.NoError(t, err)

	body := `{"status":"active","segments":[]}`

	t.Run("override applies", func(t *testing.T) {
		v := &FlodeskVerifier{Directory: &mockDirectory{result: found(body)}, APIKey: "k", RequiredSegmentID: "seg1", Policy: allowStaff}
		out, err := v.Verify(ctx, "Lab@GeneTargeting.com")
		require.NoError(t, err)
		assert.True(t, out.Decision.OK)
		assert.Equal(t, ReasonAuthorized, out.Decision.Reason)
		assert.False(t, out.Decision.InRequiredSegment)
	})

	t.Run("undefined result keeps decision", func(t *testing.T) {
		v := &FlodeskVerifier{Directory: &mockDirectory{result: found(body)}, APIKey: "k", RequiredSegmentID: "seg1", Policy: allowStaff}
		out, err := v.Verify(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, out.Decision.OK)
		assert.Equal(t, ReasonMissingSegment, out.Decision.Reason)
	})

	t.Run("unknown reason is an error", func(t *testing.T) {
		v := &FlodeskVerifier{Directory: &mockDirectory{result: found(body)}, APIKey: "k", Policy: badReason}
		_, err := v.Verify(ctx, "user@example.com")
		assert.Error(t, err)
	})
}

func TestNewFlodeskVerifier(t *testing.T) {
	cfg := &config.Config{
		FlodeskApiHost:           "https://api.flodesk.test",
		FlodeskApiKey:            "k",
		FlodeskRequiredSegmentId: "seg1",
		FlodeskRequestTimeout:    time.Second,
		UserAgent:                config.FlodeskUserAgent,
	}

	v, err := NewFlodeskVerifier(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "seg1", v.RequiredSegmentID)
	assert.Nil(t, v.Policy)

	client, ok := v.Directory.(*flodesk.Client)
	require.True(t, ok)
	assert.Equal(t, "https://api.flodesk.test", client.APIHost)

	path := filepath.Join(t.TempDir(), "decision.rego")
	require.NoError(t, os.WriteFile(path, []byte("package flodesk.verify\n\nresult := {}\n"), 0o600))
	cfg.AppDecisionPolicyPath = path

	v, err = NewFlodeskVerifier(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, v.Policy)

	cfg.AppDecisionPolicyPath = filepath.Join(t.TempDir(), "missing.rego")
	_, err = NewFlodeskVerifier(context.Background(), cfg)
	assert.Error(t, err)
}
