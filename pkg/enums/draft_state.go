package enums

import "fmt"

// DraftState tracks an order draft through submission.
type DraftState string

const (
	DraftStateEditing    DraftState = "editing"
	DraftStateSubmitting DraftState = "submitting"
	DraftStateSubmitted  DraftState = "submitted"
)

var validDraftStates = []DraftState{
	DraftStateEditing,
	DraftStateSubmitting,
	DraftStateSubmitted,
}

// String implements fmt.Stringer.
func (s DraftState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DraftState.
func (s DraftState) IsValid() bool {
	for _, candidate := range validDraftStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDraftState converts raw input into a DraftState.
func ParseDraftState(value string) (DraftState, error) {
	for _, candidate := range validDraftStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid draft state %q", value)
}
