package domain

// WorkflowState is one lifecycle state of a requirement version.
type WorkflowState string

const (
	// StateSilence marks a draft or placeholder not yet surfaced to users.
	// Silence requirements hold content but have no reqId.
	StateSilence WorkflowState = "SILENCE"
	// StateProposed is the initial surfaced state.
	StateProposed WorkflowState = "PROPOSED"
	// StateReview means endorsements are being collected.
	StateReview WorkflowState = "REVIEW"
	// StateActive means every required endorsement was approved.
	StateActive WorkflowState = "ACTIVE"
	// StateRejected means a required endorsement was rejected.
	StateRejected WorkflowState = "REJECTED"
)

// transitions lists the legal workflow edges. Edits are not edges: an edit
// keeps the state and only creates a new version.
var transitions = map[WorkflowState][]WorkflowState{
	StateSilence:  {StateProposed},
	StateProposed: {StateReview},
	StateReview:   {StateActive, StateRejected},
	StateRejected: {StateProposed},
	// StateActive has no outgoing edges; removal deletes the requirement.
}

// CanTransition reports whether the workflow edge from → to is legal.
func CanTransition(from, to WorkflowState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Editable reports whether a requirement in the state accepts content edits.
func (s WorkflowState) Editable() bool {
	switch s {
	case StateProposed, StateReview, StateActive:
		return true
	}
	return false
}

// ParseWorkflowState converts a stored value into a WorkflowState.
func ParseWorkflowState(value string) (WorkflowState, bool) {
	switch WorkflowState(value) {
	case StateSilence, StateProposed, StateReview, StateActive, StateRejected:
		return WorkflowState(value), true
	}
	return "", false
}
