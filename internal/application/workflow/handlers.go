package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/legal-approval/internal/domain/entity"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
)

// Aggregate is one submission with its current-cycle ledgers, loaded inside the
// transaction that will write the outcome
type Aggregate struct {
	Submission *entity.Submission
	State      domainwf.State
	Records    []*entity.ApprovalRecord
	Specials   []*entity.SpecialApproverRecord
}

// Outcome is what a role handler decided. An empty Trigger leaves the state alone.
type Outcome struct {
	Trigger domainwf.Trigger

	// Record or Special is the ledger entry the decision stamped
	Record  *entity.ApprovalRecord
	Special *entity.SpecialApproverRecord

	// NewSpecial is a signer added by the officer
	NewSpecial *entity.SpecialApproverRecord

	AssignedOfficer string
}

type roleHandler func(agg *Aggregate, d Decision, now time.Time) (*Outcome, error)

// handlerFor selects the gate for a role. Every Role constant must have a case;
// TestHandlerFor_CoversEveryRole enforces it.
func handlerFor(role entity.Role) (roleHandler, error) {
	switch role {
	case entity.RoleBUM, entity.RoleFBP, entity.RoleClusterHead:
		return handleFirstLevel, nil
	case entity.RoleLegalGM:
		return handleLegalGM, nil
	case entity.RoleLegalOfficer:
		return handleLegalOfficer, nil
	case entity.RoleSpecialApprover:
		return handleSpecialApprover, nil
	case entity.RoleCourtOfficer:
		return handleCourtOfficer, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domainwf.ErrInvalidInput, role)
	}
}

func invalidTransition(agg *Aggregate, d Decision) error {
	return fmt.Errorf("%w: %s cannot %s while submission %d is %s",
		domainwf.ErrInvalidTransition, d.Role, d.Action, agg.Submission.ID, agg.State)
}

func invalidAction(d Decision) error {
	return fmt.Errorf("%w: action %s is not available to %s", domainwf.ErrInvalidInput, d.Action, d.Role)
}

func vetoTrigger(action entity.Action) domainwf.Trigger {
	if action == entity.ActionCancelled {
		return domainwf.TriggerCancel
	}
	return domainwf.TriggerSendBack
}

// handleFirstLevel is the BUM / FBP / CLUSTER_HEAD unanimous gate with veto
func handleFirstLevel(agg *Aggregate, d Decision, now time.Time) (*Outcome, error) {
	if agg.State != domainwf.StatePendingApproval {
		return nil, invalidTransition(agg, d)
	}
	switch d.Action {
	case entity.ActionApproved, entity.ActionSentBack, entity.ActionCancelled:
	default:
		return nil, invalidAction(d)
	}

	var rec *entity.ApprovalRecord
	for _, r := range agg.Records {
		if r.Role == d.Role {
			rec = r
			break
		}
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s has no record on submission %d", domainwf.ErrRoleNotAssigned, d.Role, agg.Submission.ID)
	}
	if !rec.IsPending() {
		return nil, fmt.Errorf("%w: %s already decided %s", domainwf.ErrInvalidTransition, d.Role, rec.Status)
	}

	rec.Decide(string(d.Action), d.Actor.Name, d.Actor.Email, d.Comment, now)
	out := &Outcome{Record: rec}

	if d.Action.IsVeto() {
		out.Trigger = vetoTrigger(d.Action)
		return out, nil
	}
	for _, r := range agg.Records {
		if r.Status != entity.RecordStatusApproved {
			return out, nil
		}
	}
	out.Trigger = domainwf.TriggerFirstLevelComplete
	return out, nil
}

// handleLegalGM branches on the stage flag before looking at APPROVED
func handleLegalGM(agg *Aggregate, d Decision, _ time.Time) (*Outcome, error) {
	initial := agg.State == domainwf.StateGMInitialReview
	if !initial && !agg.State.IsGMFinal() {
		return nil, invalidTransition(agg, d)
	}

	switch d.Action {
	case entity.ActionSentBack, entity.ActionCancelled:
		return &Outcome{Trigger: vetoTrigger(d.Action)}, nil
	case entity.ActionApproved:
		if !initial {
			return &Outcome{Trigger: domainwf.TriggerFinalApprove}, nil
		}
		officer := strings.TrimSpace(d.AssignedOfficer)
		if officer == "" {
			return nil, fmt.Errorf("%w: initial review approval needs an assigned officer", domainwf.ErrInvalidInput)
		}
		return &Outcome{Trigger: domainwf.TriggerAssignOfficer, AssignedOfficer: officer}, nil
	default:
		return nil, invalidAction(d)
	}
}

// handleLegalOfficer dispatches to the GM final stage, the special approver fan-out, or cancel
func handleLegalOfficer(agg *Aggregate, d Decision, now time.Time) (*Outcome, error) {
	officerPhase := agg.State == domainwf.StateOfficerActive || agg.State == domainwf.StateOfficerPostGM
	// During the fan-out the officer may only add signers; cancel and send back belong to the special approvers
	delegating := agg.State == domainwf.StatePendingSpecialApprover && d.Action == entity.ActionAssignSpecialApprover
	if !officerPhase && !delegating {
		return nil, invalidTransition(agg, d)
	}

	switch d.Action {
	case entity.ActionSubmitToLegalGM:
		return &Outcome{Trigger: domainwf.TriggerSubmitToGM}, nil
	case entity.ActionCancelled:
		return &Outcome{Trigger: domainwf.TriggerCancel}, nil
	case entity.ActionAssignSpecialApprover:
		email := strings.TrimSpace(d.SpecialApproverEmail)
		if email == "" {
			return nil, fmt.Errorf("%w: special approver email is required", domainwf.ErrInvalidInput)
		}
		for _, s := range agg.Specials {
			if strings.EqualFold(s.ApproverEmail, email) {
				return nil, fmt.Errorf("%w: %s is already a special approver", domainwf.ErrInvalidInput, email)
			}
		}
		name := strings.TrimSpace(d.SpecialApproverName)
		if name == "" {
			name = email
		}
		return &Outcome{
			Trigger: domainwf.TriggerDelegate,
			NewSpecial: &entity.SpecialApproverRecord{
				SubmissionID:  agg.Submission.ID,
				Cycle:         agg.Submission.Cycle,
				ApproverName:  name,
				ApproverEmail: email,
				AssignedBy:    d.Actor.Email,
				Status:        entity.RecordStatusPending,
				CreatedAt:     now,
			},
		}, nil
	default:
		return nil, invalidAction(d)
	}
}

// handleSpecialApprover is the dynamic unanimous gate keyed by approver email
func handleSpecialApprover(agg *Aggregate, d Decision, now time.Time) (*Outcome, error) {
	if agg.State != domainwf.StatePendingSpecialApprover {
		return nil, invalidTransition(agg, d)
	}
	switch d.Action {
	case entity.ActionApproved, entity.ActionSentBack, entity.ActionCancelled:
	default:
		return nil, invalidAction(d)
	}

	email := strings.TrimSpace(d.Actor.Email)
	var rec *entity.SpecialApproverRecord
	for _, s := range agg.Specials {
		if strings.EqualFold(s.ApproverEmail, email) {
			rec = s
			break
		}
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s is not a special approver on submission %d", domainwf.ErrRoleNotAssigned, email, agg.Submission.ID)
	}
	if !rec.IsPending() {
		return nil, fmt.Errorf("%w: %s already decided %s", domainwf.ErrInvalidTransition, email, rec.Status)
	}

	rec.Decide(string(d.Action), d.Actor.Name, d.Actor.Email, d.Comment, now)
	out := &Outcome{Special: rec}

	if d.Action.IsVeto() {
		out.Trigger = vetoTrigger(d.Action)
		return out, nil
	}
	for _, s := range agg.Specials {
		if s.Status != entity.RecordStatusApproved {
			return out, nil
		}
	}
	out.Trigger = domainwf.TriggerSpecialComplete
	return out, nil
}

// handleCourtOfficer has no transition rules yet. Litigation forms report the
// role as unhandled; other forms never carry the stage.
func handleCourtOfficer(agg *Aggregate, d Decision, _ time.Time) (*Outcome, error) {
	if agg.State.IsTerminal() {
		return nil, invalidTransition(agg, d)
	}
	if agg.Submission.IsLitigation() {
		return nil, fmt.Errorf("%w: %s decisions are not processed", domainwf.ErrUnhandledRole, d.Role)
	}
	return nil, fmt.Errorf("%w: form %d has no court officer stage", domainwf.ErrRoleNotAssigned, agg.Submission.FormID)
}
