package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/legal-approval/internal/domain/entity"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
)

var testNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func firstLevelAggregate(roles ...entity.Role) *Aggregate {
	sub := &entity.Submission{ID: 1, FormID: 1, Status: entity.StatusPendingApproval, Cycle: 1}
	agg := &Aggregate{Submission: sub, State: domainwf.StatePendingApproval}
	for _, r := range roles {
		agg.Records = append(agg.Records, &entity.ApprovalRecord{
			SubmissionID:  1,
			Cycle:         1,
			Role:          r,
			ApproverName:  string(r),
			ApproverEmail: string(r) + "@corp.example",
			Status:        entity.RecordStatusPending,
		})
	}
	return agg
}

func aggregateIn(state domainwf.State, formID int) *Aggregate {
	sub := &entity.Submission{ID: 1, FormID: formID, Cycle: 1}
	domainwf.Apply(sub, state)
	return &Aggregate{Submission: sub, State: state}
}

func decide(role entity.Role, action entity.Action) Decision {
	return Decision{
		SubmissionID: 1,
		Role:         role,
		Action:       action,
		Actor:        Actor{Name: string(role), Email: string(role) + "@corp.example"},
	}
}

func TestHandlerFor_CoversEveryRole(t *testing.T) {
	for _, role := range entity.AllRoles() {
		h, err := handlerFor(role)
		require.NoError(t, err, "role %s", role)
		assert.NotNil(t, h, "role %s", role)
	}

	_, err := handlerFor(entity.Role("PARALEGAL"))
	assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
}

func TestHandleFirstLevel(t *testing.T) {
	roles := []entity.Role{entity.RoleBUM, entity.RoleFBP, entity.RoleClusterHead}

	t.Run("approvals complete in any order", func(t *testing.T) {
		orders := [][]entity.Role{
			{entity.RoleBUM, entity.RoleFBP, entity.RoleClusterHead},
			{entity.RoleClusterHead, entity.RoleBUM, entity.RoleFBP},
			{entity.RoleFBP, entity.RoleClusterHead, entity.RoleBUM},
		}
		for _, order := range orders {
			agg := firstLevelAggregate(roles...)
			var last *Outcome
			for i, role := range order {
				out, err := handleFirstLevel(agg, decide(role, entity.ActionApproved), testNow)
				require.NoError(t, err)
				if i < len(order)-1 {
					assert.Empty(t, out.Trigger, "gate must stay open until the last signer")
				}
				last = out
			}
			assert.Equal(t, domainwf.TriggerFirstLevelComplete, last.Trigger)
		}
	})

	t.Run("single assigned signer completes the gate", func(t *testing.T) {
		agg := firstLevelAggregate(entity.RoleBUM)
		out, err := handleFirstLevel(agg, decide(entity.RoleBUM, entity.ActionApproved), testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerFirstLevelComplete, out.Trigger)
	})

	t.Run("veto wins over prior approvals", func(t *testing.T) {
		agg := firstLevelAggregate(roles...)
		_, err := handleFirstLevel(agg, decide(entity.RoleBUM, entity.ActionApproved), testNow)
		require.NoError(t, err)
		_, err = handleFirstLevel(agg, decide(entity.RoleClusterHead, entity.ActionApproved), testNow)
		require.NoError(t, err)

		out, err := handleFirstLevel(agg, decide(entity.RoleFBP, entity.ActionSentBack), testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerSendBack, out.Trigger)
		assert.Equal(t, entity.RecordStatusSentBack, out.Record.Status)
		for _, rec := range agg.Records {
			if rec.Role != entity.RoleFBP {
				assert.Equal(t, entity.RecordStatusApproved, rec.Status, rec.Role)
			}
		}
	})

	t.Run("cancel maps to cancel trigger", func(t *testing.T) {
		agg := firstLevelAggregate(roles...)
		out, err := handleFirstLevel(agg, decide(entity.RoleFBP, entity.ActionCancelled), testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerCancel, out.Trigger)
	})

	t.Run("decision stamps the record", func(t *testing.T) {
		agg := firstLevelAggregate(roles...)
		d := decide(entity.RoleBUM, entity.ActionApproved)
		d.Comment = "looks fine"
		d.Actor = Actor{Name: "Bea", Email: "bea@corp.example"}

		out, err := handleFirstLevel(agg, d, testNow)
		require.NoError(t, err)
		assert.Equal(t, entity.RecordStatusApproved, out.Record.Status)
		assert.Equal(t, "Bea", out.Record.ApproverName)
		assert.Equal(t, "looks fine", out.Record.Comment)
		require.NotNil(t, out.Record.ActionDate)
		assert.Equal(t, testNow, *out.Record.ActionDate)
	})

	t.Run("second decision by the same role is rejected", func(t *testing.T) {
		agg := firstLevelAggregate(roles...)
		_, err := handleFirstLevel(agg, decide(entity.RoleBUM, entity.ActionApproved), testNow)
		require.NoError(t, err)
		_, err = handleFirstLevel(agg, decide(entity.RoleBUM, entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
	})

	t.Run("unassigned role", func(t *testing.T) {
		agg := firstLevelAggregate(entity.RoleBUM, entity.RoleFBP)
		_, err := handleFirstLevel(agg, decide(entity.RoleClusterHead, entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrRoleNotAssigned)
	})

	t.Run("wrong status", func(t *testing.T) {
		agg := aggregateIn(domainwf.StateGMInitialReview, 1)
		_, err := handleFirstLevel(agg, decide(entity.RoleBUM, entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
	})

	t.Run("officer actions are not first-level actions", func(t *testing.T) {
		agg := firstLevelAggregate(roles...)
		_, err := handleFirstLevel(agg, decide(entity.RoleBUM, entity.ActionSubmitToLegalGM), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
	})
}

func TestHandleLegalGM(t *testing.T) {
	t.Run("initial review approval assigns the officer", func(t *testing.T) {
		agg := aggregateIn(domainwf.StateGMInitialReview, 1)
		d := decide(entity.RoleLegalGM, entity.ActionApproved)
		d.AssignedOfficer = "  lo@corp.example "

		out, err := handleLegalGM(agg, d, testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerAssignOfficer, out.Trigger)
		assert.Equal(t, "lo@corp.example", out.AssignedOfficer)
	})

	t.Run("initial review approval without officer", func(t *testing.T) {
		agg := aggregateIn(domainwf.StateGMInitialReview, 1)
		_, err := handleLegalGM(agg, decide(entity.RoleLegalGM, entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
	})

	t.Run("final approval completes from either final state", func(t *testing.T) {
		for _, state := range []domainwf.State{domainwf.StateGMFinalDedicated, domainwf.StateGMFinalApproval} {
			agg := aggregateIn(state, 1)
			out, err := handleLegalGM(agg, decide(entity.RoleLegalGM, entity.ActionApproved), testNow)
			require.NoError(t, err, state.String())
			assert.Equal(t, domainwf.TriggerFinalApprove, out.Trigger, state.String())
			assert.Empty(t, out.AssignedOfficer)
		}
	})

	t.Run("send back and cancel at both stages", func(t *testing.T) {
		for _, state := range []domainwf.State{domainwf.StateGMInitialReview, domainwf.StateGMFinalDedicated} {
			out, err := handleLegalGM(aggregateIn(state, 1), decide(entity.RoleLegalGM, entity.ActionSentBack), testNow)
			require.NoError(t, err)
			assert.Equal(t, domainwf.TriggerSendBack, out.Trigger)

			out, err = handleLegalGM(aggregateIn(state, 1), decide(entity.RoleLegalGM, entity.ActionCancelled), testNow)
			require.NoError(t, err)
			assert.Equal(t, domainwf.TriggerCancel, out.Trigger)
		}
	})

	t.Run("outside GM states", func(t *testing.T) {
		_, err := handleLegalGM(aggregateIn(domainwf.StateOfficerActive, 1), decide(entity.RoleLegalGM, entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
	})

	t.Run("officer actions rejected", func(t *testing.T) {
		_, err := handleLegalGM(aggregateIn(domainwf.StateGMInitialReview, 1), decide(entity.RoleLegalGM, entity.ActionAssignSpecialApprover), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
	})
}

func TestHandleLegalOfficer(t *testing.T) {
	t.Run("submit to GM from both officer phases", func(t *testing.T) {
		for _, state := range []domainwf.State{domainwf.StateOfficerActive, domainwf.StateOfficerPostGM} {
			out, err := handleLegalOfficer(aggregateIn(state, 1), decide(entity.RoleLegalOfficer, entity.ActionSubmitToLegalGM), testNow)
			require.NoError(t, err)
			assert.Equal(t, domainwf.TriggerSubmitToGM, out.Trigger)
		}
	})

	t.Run("assign special approver", func(t *testing.T) {
		agg := aggregateIn(domainwf.StateOfficerActive, 1)
		d := decide(entity.RoleLegalOfficer, entity.ActionAssignSpecialApprover)
		d.SpecialApproverEmail = "tax@corp.example"

		out, err := handleLegalOfficer(agg, d, testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerDelegate, out.Trigger)
		require.NotNil(t, out.NewSpecial)
		assert.Equal(t, "tax@corp.example", out.NewSpecial.ApproverEmail)
		assert.Equal(t, "tax@corp.example", out.NewSpecial.ApproverName)
		assert.Equal(t, d.Actor.Email, out.NewSpecial.AssignedBy)
		assert.Equal(t, entity.RecordStatusPending, out.NewSpecial.Status)
	})

	t.Run("late assignment while fan-out is open", func(t *testing.T) {
		agg := aggregateIn(domainwf.StatePendingSpecialApprover, 1)
		agg.Specials = []*entity.SpecialApproverRecord{{ApproverEmail: "tax@corp.example", Status: entity.RecordStatusPending}}

		d := decide(entity.RoleLegalOfficer, entity.ActionAssignSpecialApprover)
		d.SpecialApproverEmail = "hr@corp.example"
		d.SpecialApproverName = "HR"
		out, err := handleLegalOfficer(agg, d, testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerDelegate, out.Trigger)
		assert.Equal(t, "HR", out.NewSpecial.ApproverName)
	})

	t.Run("duplicate email is rejected case-insensitively", func(t *testing.T) {
		agg := aggregateIn(domainwf.StatePendingSpecialApprover, 1)
		agg.Specials = []*entity.SpecialApproverRecord{{ApproverEmail: "tax@corp.example", Status: entity.RecordStatusApproved}}

		d := decide(entity.RoleLegalOfficer, entity.ActionAssignSpecialApprover)
		d.SpecialApproverEmail = "TAX@corp.example"
		_, err := handleLegalOfficer(agg, d, testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
	})

	t.Run("missing email", func(t *testing.T) {
		d := decide(entity.RoleLegalOfficer, entity.ActionAssignSpecialApprover)
		_, err := handleLegalOfficer(aggregateIn(domainwf.StateOfficerActive, 1), d, testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
	})

	t.Run("only assignment is allowed during fan-out", func(t *testing.T) {
		for _, action := range []entity.Action{entity.ActionSubmitToLegalGM, entity.ActionCancelled} {
			_, err := handleLegalOfficer(aggregateIn(domainwf.StatePendingSpecialApprover, 1), decide(entity.RoleLegalOfficer, action), testNow)
			assert.ErrorIs(t, err, domainwf.ErrInvalidTransition, action)
		}
	})

	t.Run("submit to legal officer has no rule", func(t *testing.T) {
		_, err := handleLegalOfficer(aggregateIn(domainwf.StateOfficerActive, 1), decide(entity.RoleLegalOfficer, entity.ActionSubmitToLegalOfficer), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)

		_, err = handleLegalGM(aggregateIn(domainwf.StateGMInitialReview, 1), decide(entity.RoleLegalGM, entity.ActionSubmitToLegalOfficer), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)

		_, err = handleFirstLevel(firstLevelAggregate(entity.RoleBUM), decide(entity.RoleBUM, entity.ActionSubmitToLegalOfficer), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
	})

	t.Run("cancel", func(t *testing.T) {
		out, err := handleLegalOfficer(aggregateIn(domainwf.StateOfficerActive, 1), decide(entity.RoleLegalOfficer, entity.ActionCancelled), testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerCancel, out.Trigger)
	})

	t.Run("approve is not an officer action", func(t *testing.T) {
		_, err := handleLegalOfficer(aggregateIn(domainwf.StateOfficerActive, 1), decide(entity.RoleLegalOfficer, entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
	})
}

func TestHandleSpecialApprover(t *testing.T) {
	specialAggregate := func(emails ...string) *Aggregate {
		agg := aggregateIn(domainwf.StatePendingSpecialApprover, 1)
		for _, e := range emails {
			agg.Specials = append(agg.Specials, &entity.SpecialApproverRecord{
				SubmissionID:  1,
				Cycle:         1,
				ApproverName:  e,
				ApproverEmail: e,
				Status:        entity.RecordStatusPending,
			})
		}
		return agg
	}
	as := func(email string, action entity.Action) Decision {
		return Decision{SubmissionID: 1, Role: entity.RoleSpecialApprover, Action: action, Actor: Actor{Email: email}}
	}

	t.Run("gate closes after every signer approves", func(t *testing.T) {
		agg := specialAggregate("a@corp.example", "b@corp.example")

		out, err := handleSpecialApprover(agg, as("A@corp.example", entity.ActionApproved), testNow)
		require.NoError(t, err)
		assert.Empty(t, out.Trigger)

		out, err = handleSpecialApprover(agg, as("b@corp.example", entity.ActionApproved), testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerSpecialComplete, out.Trigger)
	})

	t.Run("late added signer keeps the gate open", func(t *testing.T) {
		agg := specialAggregate("a@corp.example")
		agg.Specials = append(agg.Specials, &entity.SpecialApproverRecord{ApproverEmail: "late@corp.example", Status: entity.RecordStatusPending})

		out, err := handleSpecialApprover(agg, as("a@corp.example", entity.ActionApproved), testNow)
		require.NoError(t, err)
		assert.Empty(t, out.Trigger)
	})

	t.Run("veto", func(t *testing.T) {
		agg := specialAggregate("a@corp.example", "b@corp.example")
		out, err := handleSpecialApprover(agg, as("b@corp.example", entity.ActionSentBack), testNow)
		require.NoError(t, err)
		assert.Equal(t, domainwf.TriggerSendBack, out.Trigger)
	})

	t.Run("unknown signer", func(t *testing.T) {
		_, err := handleSpecialApprover(specialAggregate("a@corp.example"), as("z@corp.example", entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrRoleNotAssigned)
	})

	t.Run("already decided", func(t *testing.T) {
		agg := specialAggregate("a@corp.example", "b@corp.example")
		_, err := handleSpecialApprover(agg, as("a@corp.example", entity.ActionApproved), testNow)
		require.NoError(t, err)
		_, err = handleSpecialApprover(agg, as("a@corp.example", entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
	})

	t.Run("outside fan-out", func(t *testing.T) {
		_, err := handleSpecialApprover(aggregateIn(domainwf.StateOfficerActive, 1), as("a@corp.example", entity.ActionApproved), testNow)
		assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
	})
}

func TestHandleCourtOfficer(t *testing.T) {
	litigation := 4
	contract := 1

	_, err := handleCourtOfficer(aggregateIn(domainwf.StateOfficerActive, litigation), decide(entity.RoleCourtOfficer, entity.ActionApproved), testNow)
	assert.ErrorIs(t, err, domainwf.ErrUnhandledRole)

	_, err = handleCourtOfficer(aggregateIn(domainwf.StateOfficerActive, contract), decide(entity.RoleCourtOfficer, entity.ActionApproved), testNow)
	assert.ErrorIs(t, err, domainwf.ErrRoleNotAssigned)

	_, err = handleCourtOfficer(aggregateIn(domainwf.StateCompleted, litigation), decide(entity.RoleCourtOfficer, entity.ActionApproved), testNow)
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
}

func TestDecision_Validate(t *testing.T) {
	tests := []struct {
		name string
		d    Decision
		ok   bool
	}{
		{"valid", decide(entity.RoleBUM, entity.ActionApproved), true},
		{"missing id", Decision{Role: entity.RoleBUM, Action: entity.ActionApproved}, false},
		{"unknown role", Decision{SubmissionID: 1, Role: "INTERN", Action: entity.ActionApproved}, false},
		{"unknown action", Decision{SubmissionID: 1, Role: entity.RoleBUM, Action: "MAYBE"}, false},
		{"special approver without email", Decision{SubmissionID: 1, Role: entity.RoleSpecialApprover, Action: entity.ActionApproved}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
			}
		})
	}
}
