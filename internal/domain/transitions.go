package domain

// Trigger names an event that can move a submission between statuses.
type Trigger string

const (
	TriggerSaveDraft         Trigger = "save_draft"
	TriggerSubmitForAnalysis Trigger = "submit_for_analysis"
	TriggerAICompleted       Trigger = "ai_completed"
	TriggerAIFailed          Trigger = "ai_failed"
	TriggerRetry             Trigger = "retry"
	TriggerSubmitForReview   Trigger = "submit_for_review"
	TriggerSubmitWithoutAI   Trigger = "submit_without_ai"
	TriggerApprove           Trigger = "approve"
	TriggerReject            Trigger = "reject"
)

type edge struct {
	from SubmissionStatus
	to   SubmissionStatus
}

// transitions is the complete table; anything absent is rejected.
var transitions = map[Trigger][]edge{
	TriggerSaveDraft: {
		{SubmissionStatusDraft, SubmissionStatusDraft},
	},
	TriggerSubmitForAnalysis: {
		{SubmissionStatusDraft, SubmissionStatusPendingAI},
	},
	TriggerAICompleted: {
		{SubmissionStatusPendingAI, SubmissionStatusAIValidated},
	},
	TriggerAIFailed: {
		{SubmissionStatusPendingAI, SubmissionStatusAIValidationFailed},
	},
	TriggerRetry: {
		{SubmissionStatusAIValidationFailed, SubmissionStatusPendingAI},
	},
	TriggerSubmitForReview: {
		{SubmissionStatusAIValidated, SubmissionStatusSubmitted},
	},
	// Override that skips AI validation entirely.
	TriggerSubmitWithoutAI: {
		{SubmissionStatusDraft, SubmissionStatusSubmitted},
		{SubmissionStatusAIValidationFailed, SubmissionStatusSubmitted},
	},
	TriggerApprove: {
		{SubmissionStatusSubmitted, SubmissionStatusApproved},
	},
	TriggerReject: {
		{SubmissionStatusSubmitted, SubmissionStatusRejected},
	},
}

// NextStatus returns the status reached by applying trigger in from.
func NextStatus(from SubmissionStatus, trigger Trigger) (SubmissionStatus, bool) {
	for _, e := range transitions[trigger] {
		if e.from == from {
			return e.to, true
		}
	}
	return "", false
}

// TargetStatus is the status a trigger leads to, used for error reporting
// when the transition is not allowed from the current status.
func TargetStatus(trigger Trigger) SubmissionStatus {
	edges := transitions[trigger]
	if len(edges) == 0 {
		return ""
	}
	return edges[0].to
}

// Apply moves the submission according to trigger. On rejection the
// submission is left unchanged and a *TransitionError is returned.
func (s *Submission) Apply(trigger Trigger) error {
	next, ok := NextStatus(s.Status, trigger)
	if !ok {
		return &TransitionError{SubmissionID: s.ID, From: s.Status, To: TargetStatus(trigger)}
	}
	s.Status = next
	return nil
}

// DecisionTrigger maps a review decision to its trigger.
func DecisionTrigger(d ReviewDecision) (Trigger, bool) {
	switch d {
	case ReviewDecisionApproved:
		return TriggerApprove, true
	case ReviewDecisionRejected:
		return TriggerReject, true
	}
	return "", false
}

// ExpectedValidationStatus returns the validation record status a submission
// in s must be paired with, or "" when no pairing is required.
func ExpectedValidationStatus(s SubmissionStatus) ValidationStatus {
	switch s {
	case SubmissionStatusPendingAI:
		return ValidationStatusPending
	case SubmissionStatusAIValidated:
		return ValidationStatusCompleted
	case SubmissionStatusAIValidationFailed:
		return ValidationStatusFailed
	}
	return ""
}
