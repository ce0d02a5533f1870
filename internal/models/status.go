package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ApplicationStatus is the lifecycle state of an Application.
type ApplicationStatus string

const (
	StatusSubmitted ApplicationStatus = "Submitted"
	StatusHired     ApplicationStatus = "Hired"
	StatusRejected  ApplicationStatus = "Rejected"
)

// ParseStatus accepts any casing ("submitted", "HIRED") and returns the canonical value.
func ParseStatus(s string) (ApplicationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "submitted":
		return StatusSubmitted, nil
	case "hired":
		return StatusHired, nil
	case "rejected":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTerminal reports whether no further transition is accepted.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusHired || s == StatusRejected
}

// CanTransitionTo reports whether moving from s to next is a legal workflow step.
// Staying in the same state is not a transition and returns false.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	return s == StatusSubmitted && next.IsTerminal()
}

func (s *ApplicationStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
