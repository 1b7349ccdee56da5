package verifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruxstack/flodesk-verify-go/internal/config"
	"github.com/cruxstack/flodesk-verify-go/internal/flodesk"
	"github.com/cruxstack/flodesk-verify-go/internal/opa"
)

// FlodeskVerifier checks subscriber state in Flodesk and decides whether the
// address is authorized.
type FlodeskVerifier struct {
	Directory         SubscriberDirectory
	APIKey            string
	RequiredSegmentID string
	Policy            *opa.DecisionPolicy
}

func NewFlodeskVerifier(ctx context.Context, cfg *config.Config) (*FlodeskVerifier, error) {
	v := &FlodeskVerifier{
		Directory:         flodesk.NewClient(cfg.FlodeskApiHost, cfg.FlodeskApiKey, cfg.UserAgent, cfg.FlodeskRequestTimeout),
		APIKey:            cfg.FlodeskApiKey,
		RequiredSegmentID: cfg.FlodeskRequiredSegmentId,
	}

	if cfg.AppDecisionPolicyPath != "" {
		p, err := opa.LoadDecisionPolicy(ctx, cfg.AppDecisionPolicyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load decision policy: %w", err)
		}
		v.Policy = p
	}

	return v, nil
}

// Verify checks configuration before input so a misconfigured deployment
// reports missing_api_key for every request.
func (v *FlodeskVerifier) Verify(ctx context.Context, email string) (*Outcome, error) {
	if v.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	normalized := NormalizeEmail(email)
	if !IsValidEmail(normalized) {
		return nil, ErrInvalidEmail
	}

	result, err := v.Directory.LookupSubscriber(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("flodesk lookup failed: %w", err)
	}

	outcome := &Outcome{Email: normalized, Attempts: result.Attempts}

	if result.NotFound() {
		outcome.Kind = KindNotFound
		return outcome, nil
	}

	if !result.Found() {
		outcome.Kind = KindUpstreamError
		outcome.UpstreamStatus = result.StatusCode
		outcome.UpstreamBody = result.Body
		return outcome, nil
	}

	sub, err := flodesk.ParseSubscriber(result.Body)
	if err != nil {
		return nil, err
	}

	d := Decide(sub.Status, sub.SegmentIDs, v.RequiredSegmentID)

	if v.Policy != nil {
		d, err = v.applyPolicy(ctx, normalized, sub, d)
		if err != nil {
			return nil, err
		}
	}

	outcome.Kind = KindDecision
	outcome.Decision = &d
	return outcome, nil
}

func (v *FlodeskVerifier) applyPolicy(ctx context.Context, email string, sub *flodesk.Subscriber, d Decision) (Decision, error) {
	override, err := v.Policy.Evaluate(ctx, opa.DecisionInput{
		Email:             email,
		Status:            sub.Status,
		Segments:          sub.SegmentIDs,
		RequiredSegmentID: v.RequiredSegmentID,
		Decision: opa.DecisionState{
			OK:                d.OK,
			InRequiredSegment: d.InRequiredSegment,
			Reason:            string(d.Reason),
		},
	})
	if err != nil {
		return d, err
	}
	if override == nil {
		return d, nil
	}

	if override.Reason != "" {
		reason := Reason(override.Reason)
		if !reason.Valid() {
			return d, fmt.Errorf("decision policy returned unknown reason %q", override.Reason)
		}
		d.Reason = reason
	}
	if override.OK != nil {
		d.OK = *override.OK
	}

	slog.InfoContext(ctx, "decision overridden by policy",
		"ok", d.OK,
		"reason", d.Reason,
	)

	return d, nil
}
