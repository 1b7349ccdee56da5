package verifier

import (
	"context"
	"errors"

	"github.com/cruxstack/flodesk-verify-go/internal/flodesk"
)

var (
	ErrMissingAPIKey = errors.New("missing api key")
	ErrInvalidEmail  = errors.New("invalid email")
)

type OutcomeKind string

const (
	KindDecision      OutcomeKind = "decision"
	KindNotFound      OutcomeKind = "not_found"
	KindUpstreamError OutcomeKind = "upstream_error"
)

// Outcome is the result of one verification. Kind selects which fields are
// meaningful: Decision for KindDecision, Upstream* for KindUpstreamError.
type Outcome struct {
	Kind           OutcomeKind
	Email          string
	Decision       *Decision
	UpstreamStatus int
	UpstreamBody   string
	Attempts       []flodesk.Attempt
}

type SubscriberVerifier interface {
	Verify(ctx context.Context, email string) (*Outcome, error)
}

type SubscriberDirectory interface {
	LookupSubscriber(ctx context.Context, email string) (*flodesk.LookupResult, error)
}
