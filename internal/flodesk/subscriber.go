package flodesk

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseSubscriber decodes a successful lookup body. A missing or non-string
// status becomes "" and a missing or non-array segments list becomes empty.
func ParseSubscriber(body string) (*Subscriber, error) {
	var payload SubscriberResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("flodesk unmarshal error: %w", err)
	}

	sub := &Subscriber{SegmentIDs: []string{}}

	var status string
	if len(payload.Status) > 0 && json.Unmarshal(payload.Status, &status) == nil {
		sub.Status = strings.ToLower(strings.TrimSpace(status))
	}

	var segments []json.RawMessage
	if len(payload.Segments) > 0 && json.Unmarshal(payload.Segments, &segments) == nil {
		for _, raw := range segments {
			var seg Segment
			if json.Unmarshal(raw, &seg) != nil || seg.ID == "" {
				continue
			}
			sub.SegmentIDs = append(sub.SegmentIDs, seg.ID)
		}
	}

	return sub, nil
}
