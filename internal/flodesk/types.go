package flodesk

import "encoding/json"

type AuthMode string

const (
	AuthBasic  AuthMode = "basic"
	AuthApiKey AuthMode = "api-key"
)

// Strategy is one way of addressing and authenticating a subscriber lookup.
type Strategy struct {
	Auth    AuthMode
	Encoded bool
}

// Attempt records a single outbound lookup for diagnostics.
type Attempt struct {
	URL      string   `json:"url"`
	Encoded  bool     `json:"encoded"`
	AuthMode AuthMode `json:"authMode"`
	Status   int      `json:"status"`
}

// LookupResult is the final response of the ladder plus every attempt made.
type LookupResult struct {
	StatusCode int
	Body       string
	Attempts   []Attempt
}

func (r *LookupResult) Found() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *LookupResult) NotFound() bool {
	return r.StatusCode == 404
}

type Segment struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// SubscriberResponse is the subset of the subscriber payload the decision
// needs. Fields are left raw so missing or mistyped values degrade to blanks.
type SubscriberResponse struct {
	Status   json.RawMessage `json:"status"`
	Segments json.RawMessage `json:"segments"`
}

type Subscriber struct {
	Status     string
	SegmentIDs []string
}
