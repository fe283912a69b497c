package generate

import "strings"

// State is the small status set every vendor status string maps into.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCanceled
}

// Vendor status strings seen across providers. Matching is case-insensitive.
var statusMap = map[string]State{
	"queued":      StateQueued,
	"pending":     StateQueued,
	"submitted":   StateQueued,
	"waiting":     StateQueued,
	"in_queue":    StateQueued,
	"running":     StateRunning,
	"processing":  StateRunning,
	"in_progress": StateRunning,
	"generating":  StateRunning,
	"started":     StateRunning,
	"succeeded":   StateSucceeded,
	"succeed":     StateSucceeded,
	"success":     StateSucceeded,
	"completed":   StateSucceeded,
	"complete":    StateSucceeded,
	"done":        StateSucceeded,
	"finished":    StateSucceeded,
	"failed":      StateFailed,
	"failure":     StateFailed,
	"error":       StateFailed,
	"timeout":     StateFailed,
	"canceled":    StateCanceled,
	"cancelled":   StateCanceled,
	"aborted":     StateCanceled,
}

// MapVendorStatus converts a vendor status string into a State. Unknown
// statuses map to running so a new vendor phase doesn't kill the poll loop,
// unless the string looks terminal ("fail"/"error"/"cancel" substrings).
func MapVendorStatus(status string) State {
	s := strings.ToLower(strings.TrimSpace(status))
	if mapped, ok := statusMap[s]; ok {
		return mapped
	}
	switch {
	case strings.Contains(s, "fail"), strings.Contains(s, "error"):
		return StateFailed
	case strings.Contains(s, "cancel"), strings.Contains(s, "abort"):
		return StateCanceled
	default:
		return StateRunning
	}
}
