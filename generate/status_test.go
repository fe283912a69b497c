package generate

import "testing"

func TestMapVendorStatus(t *testing.T) {
	tests := []struct {
		status string
		want   State
	}{
		{"queued", StateQueued},
		{"PENDING", StateQueued},
		{"in_queue", StateQueued},
		{"processing", StateRunning},
		{"IN_PROGRESS", StateRunning},
		{"generating", StateRunning},
		{"succeeded", StateSucceeded},
		{"SUCCESS", StateSucceeded},
		{"done", StateSucceeded},
		{"completed", StateSucceeded},
		{"failed", StateFailed},
		{"error", StateFailed},
		{"timeout", StateFailed},
		{"cancelled", StateCanceled},
		{"canceled", StateCanceled},
		{"aborted", StateCanceled},
		{"  Running  ", StateRunning},
	}
	for _, tt := range tests {
		if got := MapVendorStatus(tt.status); got != tt.want {
			t.Errorf("MapVendorStatus(%q) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestMapVendorStatusUnknown(t *testing.T) {
	// Unknown vendor phases keep the poll loop alive.
	if got := MapVendorStatus("warming_up"); got != StateRunning {
		t.Errorf("expected unknown status to map to running, got %s", got)
	}
	// Unless they look terminal.
	if got := MapVendorStatus("render_failed_oom"); got != StateFailed {
		t.Errorf("expected fail-looking status to map to failed, got %s", got)
	}
	if got := MapVendorStatus("user_cancel_requested"); got != StateCanceled {
		t.Errorf("expected cancel-looking status to map to canceled, got %s", got)
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateSucceeded, StateFailed, StateCanceled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StateQueued, StateRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
