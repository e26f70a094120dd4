package workflow

import (
	"context"

	"github.com/garyjia/legal-approval/internal/domain/entity"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
)

type ledgerKey struct{}

// withLedger attaches the aggregate whose ledgers the transition guards inspect
func withLedger(ctx context.Context, agg *Aggregate) context.Context {
	return context.WithValue(ctx, ledgerKey{}, agg)
}

func ledgerFrom(ctx context.Context) *Aggregate {
	agg, _ := ctx.Value(ledgerKey{}).(*Aggregate)
	return agg
}

// allRecordsApproved holds when every first-level record of the cycle is APPROVED
func allRecordsApproved(ctx context.Context) bool {
	agg := ledgerFrom(ctx)
	if agg == nil || len(agg.Records) == 0 {
		return false
	}
	for _, r := range agg.Records {
		if r.Status != entity.RecordStatusApproved {
			return false
		}
	}
	return true
}

// allSpecialsApproved holds when every special approver of the cycle is APPROVED
func allSpecialsApproved(ctx context.Context) bool {
	agg := ledgerFrom(ctx)
	if agg == nil || len(agg.Specials) == 0 {
		return false
	}
	for _, s := range agg.Specials {
		if s.Status != entity.RecordStatusApproved {
			return false
		}
	}
	return true
}

// BuildSubmissionStateMachine creates a state machine configured with the legal approval transition table.
// Fire the gate-completing triggers with a context from withLedger.
func BuildSubmissionStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StatePendingApproval)

	// First-level ledger
	builder.Configure(domainwf.StatePendingApproval).
		PermitIf(domainwf.TriggerFirstLevelComplete, domainwf.StateGMInitialReview, allRecordsApproved).
		Permit(domainwf.TriggerSendBack, domainwf.StateSentBack).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	// Legal GM, initial review
	builder.Configure(domainwf.StateGMInitialReview).
		Permit(domainwf.TriggerAssignOfficer, domainwf.StateOfficerActive).
		Permit(domainwf.TriggerSendBack, domainwf.StateSentBack).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	// Legal officer, both phases dispatch the same way
	for _, officer := range []domainwf.State{domainwf.StateOfficerActive, domainwf.StateOfficerPostGM} {
		builder.Configure(officer).
			Permit(domainwf.TriggerSubmitToGM, domainwf.StateGMFinalDedicated).
			Permit(domainwf.TriggerDelegate, domainwf.StatePendingSpecialApprover).
			Permit(domainwf.TriggerCancel, domainwf.StateCancelled)
	}

	// Special approver fan-out
	builder.Configure(domainwf.StatePendingSpecialApprover).
		PermitIf(domainwf.TriggerSpecialComplete, domainwf.StateOfficerActive, allSpecialsApproved).
		PermitReentry(domainwf.TriggerDelegate).
		Permit(domainwf.TriggerSendBack, domainwf.StateSentBack).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	// Legal GM, final approval (dedicated status or flagged PENDING_LEGAL_GM)
	for _, final := range []domainwf.State{domainwf.StateGMFinalDedicated, domainwf.StateGMFinalApproval} {
		builder.Configure(final).
			Permit(domainwf.TriggerFinalApprove, domainwf.StateCompleted).
			Permit(domainwf.TriggerSendBack, domainwf.StateSentBack).
			Permit(domainwf.TriggerCancel, domainwf.StateCancelled)
	}

	builder.Configure(domainwf.StateSentBack).
		Permit(domainwf.TriggerResubmit, domainwf.StatePendingApproval)

	// COMPLETED and CANCELLED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}
