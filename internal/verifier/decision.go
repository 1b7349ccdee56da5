package verifier

import "slices"

type Reason string

const (
	ReasonAuthorized     Reason = "authorized"
	ReasonMissingSegment Reason = "missing_segment"
	ReasonInactive       Reason = "inactive"
	ReasonNotFound       Reason = "not_found"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonAuthorized, ReasonMissingSegment, ReasonInactive, ReasonNotFound:
		return true
	}
	return false
}

type Decision struct {
	OK                bool   `json:"ok"`
	Status            string `json:"status"`
	InRequiredSegment bool   `json:"inRequiredSegment"`
	Reason            Reason `json:"reason"`
}

// Decide maps a subscriber's status and segments to an authorization
// decision. An empty requiredSegmentID disables segment gating.
func Decide(status string, segmentIDs []string, requiredSegmentID string) Decision {
	isActive := status == "active"

	inRequiredSegment := true
	if requiredSegmentID != "" {
		inRequiredSegment = slices.Contains(segmentIDs, requiredSegmentID)
	}

	allowed := isActive && inRequiredSegment

	var reason Reason
	switch {
	case allowed:
		reason = ReasonAuthorized
	case !isActive && status == "":
		reason = ReasonNotFound
	case !isActive:
		reason = ReasonInactive
	default:
		reason = ReasonMissingSegment
	}

	return Decision{
		OK:                allowed,
		Status:            status,
		InRequiredSegment: inRequiredSegment,
		Reason:            reason,
	}
}
