package event

// Type identifies the type of domain event
type Type string

const (
	TypeSubmissionCreated   Type = "submission.created"
	TypeSubmissionSubmitted Type = "submission.submitted"
	TypeStatusChanged       Type = "submission.status_changed"
	TypeSubmissionCompleted Type = "submission.completed"
	TypeSubmissionSentBack  Type = "submission.sent_back"
	TypeSubmissionCancelled Type = "submission.cancelled"
	TypeLedgerUpdated       Type = "submission.ledger_updated"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSubmissionCreated,
		TypeSubmissionSubmitted,
		TypeStatusChanged,
		TypeSubmissionCompleted,
		TypeSubmissionSentBack,
		TypeSubmissionCancelled,
		TypeLedgerUpdated:
		return true
	default:
		return false
	}
}

// ForTerminalStatus returns the event type announcing a status that ends or
// suspends the workflow, or "" for statuses that do not have one.
func ForTerminalStatus(status string) Type {
	switch status {
	case "COMPLETED":
		return TypeSubmissionCompleted
	case "SENT_BACK":
		return TypeSubmissionSentBack
	case "CANCELLED":
		return TypeSubmissionCancelled
	default:
		return ""
	}
}
