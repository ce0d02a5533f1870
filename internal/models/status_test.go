package models

import (
	"encoding/json"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]ApplicationStatus{
		"submitted": StatusSubmitted,
		"Submitted": StatusSubmitted,
		" HIRED ":   StatusHired,
		"Rejected":  StatusRejected,
		"rejected":  StatusRejected,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil {
			t.Errorf("ParseStatus(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseStatus("withdrawn"); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestStatusTransitions(t *testing.T) {
	if !StatusSubmitted.CanTransitionTo(StatusHired) || !StatusSubmitted.CanTransitionTo(StatusRejected) {
		t.Error("Submitted must move to Hired or Rejected")
	}
	for _, from := range []ApplicationStatus{StatusHired, StatusRejected} {
		for _, to := range []ApplicationStatus{StatusSubmitted, StatusHired, StatusRejected} {
			if from.CanTransitionTo(to) {
				t.Errorf("Terminal state %s must not move to %s", from, to)
			}
		}
	}
	if StatusSubmitted.CanTransitionTo(StatusSubmitted) {
		t.Error("Submitted -> Submitted is not a transition")
	}
}

func TestStatusUnmarshalNormalizes(t *testing.T) {
	var body struct {
		Status ApplicationStatus `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"submitted"}`), &body); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if body.Status != StatusSubmitted {
		t.Errorf("Expected Submitted, got %s", body.Status)
	}
	if err := json.Unmarshal([]byte(`{"status":"pending"}`), &body); err == nil {
		t.Error("Expected error for unknown status")
	}
}
