package workflow

import "github.com/garyjia/legal-approval/internal/domain/entity"

// SubState refines a macro status that has internal phases
type SubState string

const (
	SubNone          SubState = ""
	SubGMInitial     SubState = "GM_INITIAL_REVIEW"
	SubGMFinal       SubState = "GM_FINAL_APPROVAL"
	SubOfficerActive SubState = "OFFICER_ACTIVE"
	SubOfficerPostGM SubState = "OFFICER_POST_GM"
)

// State is the resolved position of a submission: its macro status plus the
// phase within it. The persisted status and stage flags are projected onto it
// by Resolve and written back by Apply.
type State struct {
	Macro string
	Sub   SubState
}

var (
	StateDraft                  = State{Macro: entity.StatusDraft}
	StatePendingApproval        = State{Macro: entity.StatusPendingApproval}
	StateGMInitialReview        = State{Macro: entity.StatusPendingLegalGM, Sub: SubGMInitial}
	StateGMFinalApproval        = State{Macro: entity.StatusPendingLegalGM, Sub: SubGMFinal}
	StateGMFinalDedicated       = State{Macro: entity.StatusPendingLegalGMFinal, Sub: SubGMFinal}
	StateOfficerActive          = State{Macro: entity.StatusPendingLegalOfficer, Sub: SubOfficerActive}
	StateOfficerPostGM          = State{Macro: entity.StatusPendingLegalOfficer, Sub: SubOfficerPostGM}
	StatePendingSpecialApprover = State{Macro: entity.StatusPendingSpecialApprover}
	StateCompleted              = State{Macro: entity.StatusCompleted}
	StateSentBack               = State{Macro: entity.StatusSentBack}
	StateCancelled              = State{Macro: entity.StatusCancelled}
)

var validStates = map[State]bool{
	StateDraft:                  true,
	StatePendingApproval:        true,
	StateGMInitialReview:        true,
	StateGMFinalApproval:        true,
	StateGMFinalDedicated:       true,
	StateOfficerActive:          true,
	StateOfficerPostGM:          true,
	StatePendingSpecialApprover: true,
	StateCompleted:              true,
	StateSentBack:               true,
	StateCancelled:              true,
}

var terminalStates = map[State]bool{
	StateCompleted: true,
	StateCancelled: true,
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known macro/sub combination
func (s State) IsValid() bool {
	return validStates[s]
}

// String renders the state as MACRO or MACRO:SUB
func (s State) String() string {
	if s.Sub == SubNone {
		return s.Macro
	}
	return s.Macro + ":" + string(s.Sub)
}

// IsGMFinal reports whether the Legal GM is acting as the final approver
func (s State) IsGMFinal() bool {
	return s.Sub == SubGMFinal
}

// Resolve derives the state from a submission's status and stage flags.
// A missing flag falls back to the phase a fresh entry into the status has.
func Resolve(sub *entity.Submission) State {
	switch sub.Status {
	case entity.StatusPendingLegalGM:
		if sub.LegalGMStage != nil && *sub.LegalGMStage == entity.GMStageFinalApproval {
			return StateGMFinalApproval
		}
		return StateGMInitialReview
	case entity.StatusPendingLegalGMFinal:
		return StateGMFinalDedicated
	case entity.StatusPendingLegalOfficer:
		if sub.LOStage != nil && *sub.LOStage == entity.LOStagePostGMApproval {
			return StateOfficerPostGM
		}
		return StateOfficerActive
	default:
		return State{Macro: sub.Status}
	}
}

// Apply writes the state back onto the submission's status and stage flags.
// Flags are left untouched on states without a phase so the record keeps
// the last phase it passed through.
func Apply(sub *entity.Submission, s State) {
	sub.Status = s.Macro
	switch s.Sub {
	case SubGMInitial:
		sub.LegalGMStage = stringPtr(entity.GMStageInitialReview)
	case SubGMFinal:
		sub.LegalGMStage = stringPtr(entity.GMStageFinalApproval)
	case SubOfficerActive:
		sub.LOStage = stringPtr(entity.LOStageActive)
	case SubOfficerPostGM:
		sub.LOStage = stringPtr(entity.LOStagePostGMApproval)
	}
}

func stringPtr(s string) *string {
	return &s
}
