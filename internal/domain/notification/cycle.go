// internal/domain/notification/cycle.go
package notification

import "time"

// CycleSummary describes one firing of the birthday check.
// It is built for logs and the ops endpoint; it is never persisted.
type CycleSummary struct {
	CycleID          string          `json:"cycle_id"`
	Instant          time.Time       `json:"instant"`    // Reference instant, UTC
	Candidates       int             `json:"candidates"` // Rows returned by the population lookup
	InvalidTimezones int             `json:"invalid_timezones"`
	Matched          int             `json:"matched"`
	Succeeded        int             `json:"succeeded"`
	Retried          int             `json:"retried"` // Subset of Succeeded that needed more than one attempt
	Failed           int             `json:"failed"`
	Failures         []MemberFailure `json:"failures,omitempty"`
	Error            string          `json:"error,omitempty"` // Cycle-level failure; empty when the cycle ran
	DurationMS       int64           `json:"duration_ms"`
}

// MemberFailure is the operator-facing detail for one permanent delivery failure.
type MemberFailure struct {
	MemberID string `json:"member_id"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

// OK reports whether the cycle got past the population lookup.
func (s CycleSummary) OK() bool {
	return s.Error == ""
}
