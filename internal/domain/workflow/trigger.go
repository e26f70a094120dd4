package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSubmit             Trigger = "SUBMIT"
	TriggerFirstLevelComplete Trigger = "FIRST_LEVEL_COMPLETE"
	TriggerAssignOfficer      Trigger = "ASSIGN_OFFICER"
	TriggerSubmitToGM         Trigger = "SUBMIT_TO_GM"
	TriggerDelegate           Trigger = "DELEGATE"
	TriggerSpecialComplete    Trigger = "SPECIAL_COMPLETE"
	TriggerFinalApprove       Trigger = "FINAL_APPROVE"
	TriggerSendBack           Trigger = "SEND_BACK"
	TriggerCancel             Trigger = "CANCEL"
	TriggerResubmit           Trigger = "RESUBMIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
