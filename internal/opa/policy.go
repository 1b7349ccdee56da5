// package opa evaluates the optional rego policy that may override a
// verification decision
package opa

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// DecisionQuery is the rule a decision policy must define.
const DecisionQuery = "data.flodesk.verify.result"

// DecisionInput is the document exposed to the policy as `input`.
type DecisionInput struct {
	Email             string        `json:"email"`
	Status            string        `json:"status"`
	Segments          []string      `json:"segments"`
	RequiredSegmentID string        `json:"requiredSegmentId,omitempty"`
	Decision          DecisionState `json:"decision"`
}

type DecisionState struct {
	OK                bool   `json:"ok"`
	InRequiredSegment bool   `json:"inRequiredSegment"`
	Reason            string `json:"reason"`
}

// DecisionOverride is the policy result. Unset fields keep the built-in value.
type DecisionOverride struct {
	OK     *bool  `json:"ok,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// DecisionPolicy holds a compiled policy ready for evaluation
type DecisionPolicy struct {
	query rego.PreparedEvalQuery
}

// PrepareDecisionPolicy compiles policy source once; the result is safe for
// concurrent use.
func PrepareDecisionPolicy(ctx context.Context, source string) (*DecisionPolicy, error) {
	r := rego.New(
		rego.Query(DecisionQuery),
		rego.Module("decision.rego", source),
		rego.SetRegoVersion(ast.RegoV1),
	)

	pq, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy: %w", err)
	}

	return &DecisionPolicy{query: pq}, nil
}

// LoadDecisionPolicy reads and compiles the policy at path.
func LoadDecisionPolicy(ctx context.Context, path string) (*DecisionPolicy, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	return PrepareDecisionPolicy(ctx, string(src))
}

// Evaluate returns nil when the policy leaves the result undefined.
func (p *DecisionPolicy) Evaluate(ctx context.Context, input DecisionInput) (*DecisionOverride, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	bs, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy result: %w", err)
	}

	var out DecisionOverride
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy result: %w", err)
	}

	return &out, nil
}
