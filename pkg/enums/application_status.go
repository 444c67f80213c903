package enums

import "fmt"

// ApplicationStatus is the position of a membership application in the review chain.
type ApplicationStatus string

const (
	ApplicationStatusPending         ApplicationStatus = "pending"
	ApplicationStatusApprovedByBoard ApplicationStatus = "approved_by_board"
	ApplicationStatusInvitationSent  ApplicationStatus = "invitation_sent"
	ApplicationStatusActivated       ApplicationStatus = "activated"
)

// validApplicationStatuses is ordered along the chain; Rank relies on it.
var validApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusApprovedByBoard,
	ApplicationStatusInvitationSent,
	ApplicationStatusActivated,
}

// String implements fmt.Stringer.
func (s ApplicationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ApplicationStatus.
func (s ApplicationStatus) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the zero-based position of the status in the chain, or -1.
func (s ApplicationStatus) Rank() int {
	for i, candidate := range validApplicationStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ApplicationStatuses lists every status in chain order.
func ApplicationStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(validApplicationStatuses))
	copy(out, validApplicationStatuses)
	return out
}

// ParseApplicationStatus converts raw input into an ApplicationStatus.
func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	for _, candidate := range validApplicationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid application status %q", value)
}
