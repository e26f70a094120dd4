package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/legal-approval/internal/domain/entity"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
)

// WorkflowEngine applies decisions to submissions, one serialized transition at a time
type WorkflowEngine interface {
	// Apply runs one decision through the gate of the acting role and returns the
	// post-transition snapshot
	Apply(ctx context.Context, d Decision) (*entity.Snapshot, error)

	// Submit moves a DRAFT into PENDING_APPROVAL and seeds the first-level ledger
	Submit(ctx context.Context, submissionID int64, assignments []entity.ApproverAssignment, actor Actor) (*entity.Snapshot, error)

	// Resubmit opens a fresh ledger cycle for a SENT_BACK submission
	Resubmit(ctx context.Context, submissionID int64, actor Actor, comment string) (*entity.Snapshot, error)

	// Snapshot returns the current aggregate without mutating it
	Snapshot(ctx context.Context, submissionID int64) (*entity.Snapshot, error)

	// GetCurrentState returns the resolved state of a submission
	GetCurrentState(ctx context.Context, submissionID int64) (domainwf.State, error)
}

// Actor identifies who is making a call
type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Decision is one role's input to the approval engine
type Decision struct {
	SubmissionID int64         `json:"submission_id"`
	Role         entity.Role   `json:"role"`
	Action       entity.Action `json:"action"`
	Comment      string        `json:"comment"`
	Actor        Actor         `json:"actor"`

	// AssignedOfficer is required when the Legal GM approves the initial review
	AssignedOfficer string `json:"assigned_officer,omitempty"`

	// SpecialApprover* carry the signer added by ASSIGN_SPECIAL_APPROVER
	SpecialApproverEmail string `json:"special_approver_email,omitempty"`
	SpecialApproverName  string `json:"special_approver_name,omitempty"`
}

// Validate checks the parts of a decision that do not depend on stored state
func (d *Decision) Validate() error {
	if d.SubmissionID <= 0 {
		return fmt.Errorf("%w: submission id is required", domainwf.ErrInvalidInput)
	}
	if !d.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", domainwf.ErrInvalidInput, d.Role)
	}
	if !d.Action.IsValid() {
		return fmt.Errorf("%w: unknown action %q", domainwf.ErrInvalidInput, d.Action)
	}
	if d.Role == entity.RoleSpecialApprover && strings.TrimSpace(d.Actor.Email) == "" {
		return fmt.Errorf("%w: special approver decisions need the actor email", domainwf.ErrInvalidInput)
	}
	return nil
}
