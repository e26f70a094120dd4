package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/legal-approval/internal/domain/entity"
)

type guardKey struct{}

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePendingApproval, false},
		{StateGMInitialReview, false},
		{StateGMFinalApproval, false},
		{StateOfficerActive, false},
		{StatePendingSpecialApprover, false},
		{StateSentBack, false},
		{StateCompleted, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"plain macro", StateDraft, true},
		{"macro with phase", StateOfficerPostGM, true},
		{"unknown macro", State{Macro: "INVALID"}, false},
		{"phase on wrong macro", State{Macro: entity.StatusPendingApproval, Sub: SubGMFinal}, false},
		{"empty", State{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if got := StateDraft.String(); got != "DRAFT" {
		t.Errorf("State.String() = %v, want %v", got, "DRAFT")
	}
	if got := StateGMFinalApproval.String(); got != "PENDING_LEGAL_GM:GM_FINAL_APPROVAL" {
		t.Errorf("State.String() = %v", got)
	}
}

func TestResolve(t *testing.T) {
	initial := entity.GMStageInitialReview
	final := entity.GMStageFinalApproval
	active := entity.LOStageActive
	postGM := entity.LOStagePostGMApproval

	tests := []struct {
		name string
		sub  entity.Submission
		want State
	}{
		{"gm without flag", entity.Submission{Status: entity.StatusPendingLegalGM}, StateGMInitialReview},
		{"gm initial", entity.Submission{Status: entity.StatusPendingLegalGM, LegalGMStage: &initial}, StateGMInitialReview},
		{"gm final flag", entity.Submission{Status: entity.StatusPendingLegalGM, LegalGMStage: &final}, StateGMFinalApproval},
		{"gm final status", entity.Submission{Status: entity.StatusPendingLegalGMFinal, LegalGMStage: &initial}, StateGMFinalDedicated},
		{"officer without flag", entity.Submission{Status: entity.StatusPendingLegalOfficer}, StateOfficerActive},
		{"officer active", entity.Submission{Status: entity.StatusPendingLegalOfficer, LOStage: &active}, StateOfficerActive},
		{"officer post gm", entity.Submission{Status: entity.StatusPendingLegalOfficer, LOStage: &postGM}, StateOfficerPostGM},
		{"completed keeps flags out", entity.Submission{Status: entity.StatusCompleted, LegalGMStage: &final}, StateCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(&tt.sub); got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	sub := &entity.Submission{Status: entity.StatusPendingApproval}

	Apply(sub, StateGMInitialReview)
	if sub.Status != entity.StatusPendingLegalGM || sub.LegalGMStage == nil || *sub.LegalGMStage != entity.GMStageInitialReview {
		t.Fatalf("Apply(GM initial) = %+v", sub)
	}

	Apply(sub, StateOfficerActive)
	if sub.LOStage == nil || *sub.LOStage != entity.LOStageActive {
		t.Fatalf("Apply(officer active) LOStage = %v", sub.LOStage)
	}

	Apply(sub, StateGMFinalDedicated)
	Apply(sub, StateCompleted)
	if sub.Status != entity.StatusCompleted {
		t.Errorf("Status = %v, want %v", sub.Status, entity.StatusCompleted)
	}
	if sub.LegalGMStage == nil || *sub.LegalGMStage != entity.GMStageFinalApproval {
		t.Errorf("terminal state should keep the last GM phase, got %v", sub.LegalGMStage)
	}

	if Resolve(sub) != StateCompleted {
		t.Errorf("Resolve after Apply = %v", Resolve(sub))
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerSubmit.String(); got != "SUBMIT" {
		t.Errorf("Trigger.String() = %v, want %v", got, "SUBMIT")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	if config2 := builder.Configure(StateDraft); config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	NewBuilder().Configure(State{Macro: "INVALID"})
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State{Macro: "INVALID"})
}

func TestBuilder_PermitPanicsFromTerminalState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic when leaving a terminal state")
		}
	}()

	NewBuilder().Configure(StateCompleted).Permit(TriggerResubmit, StatePendingApproval)
}

func TestStateConfiguration_PermitPanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	NewBuilder().Configure(StateDraft).Permit(TriggerSubmit, State{Macro: "INVALID"})
}

func TestStateConfiguration_Permit(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingApproval)

	machine := builder.Build(StateDraft)

	if !machine.CanFire(TriggerSubmit) {
		t.Error("CanFire() should return true for permitted trigger")
	}
	if err := machine.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine.State() != StatePendingApproval {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StatePendingApproval)
	}
}

func TestStateConfiguration_PermitReentry(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePendingSpecialApprover).
		PermitReentry(TriggerDelegate)

	machine := builder.Build(StatePendingSpecialApprover)
	if err := machine.Fire(context.Background(), TriggerDelegate); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StatePendingSpecialApprover {
		t.Errorf("State after reentry = %v", machine.State())
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		PermitIf(TriggerSubmit, StatePendingApproval, func(ctx context.Context) bool {
			return false
		})

	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestStateConfiguration_PermitIf_MultipleTransitions(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateOfficerActive).
		PermitIf(TriggerSubmitToGM, StateGMFinalDedicated, func(ctx context.Context) bool {
			return ctx.Value(guardKey{}).(bool)
		}).
		PermitIf(TriggerSubmitToGM, StateGMFinalApproval, func(ctx context.Context) bool {
			return !ctx.Value(guardKey{}).(bool)
		})

	machine1 := builder.Build(StateOfficerActive)
	if err := machine1.Fire(context.WithValue(context.Background(), guardKey{}, true), TriggerSubmitToGM); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine1.State() != StateGMFinalDedicated {
		t.Errorf("State after Fire() = %v, want %v", machine1.State(), StateGMFinalDedicated)
	}

	machine2 := builder.Build(StateOfficerActive)
	if err := machine2.Fire(context.WithValue(context.Background(), guardKey{}, false), TriggerSubmitToGM); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine2.State() != StateGMFinalApproval {
		t.Errorf("State after Fire() = %v, want %v", machine2.State(), StateGMFinalApproval)
	}
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingApproval)

	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerFinalApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.CanFire(TriggerFinalApprove) {
		t.Error("CanFire() should be false for unconfigured trigger")
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	machine := NewBuilder().Build(StateDraft)

	if err := machine.Fire(context.Background(), TriggerSubmit); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 0", len(triggers))
	}
}

func TestStateMachine_PermittedTriggersSorted(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePendingApproval).
		Permit(TriggerSendBack, StateSentBack).
		Permit(TriggerCancel, StateCancelled).
		Permit(TriggerFirstLevelComplete, StateGMInitialReview)

	triggers := builder.Build(StatePendingApproval).PermittedTriggers()
	want := []Trigger{TriggerCancel, TriggerFirstLevelComplete, TriggerSendBack}
	if len(triggers) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", triggers, want)
	}
	for i := range want {
		if triggers[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, triggers[i], want[i])
		}
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingApproval)

	machine1 := builder.Build(StateDraft)
	machine2 := builder.Build(StateDraft)

	if err := machine1.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine2.State() != StateDraft {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StateDraft)
	}

	// Configuring after Build must not affect existing machines
	builder.Configure(StatePendingApproval).Permit(TriggerCancel, StateCancelled)
	if machine1.CanFire(TriggerCancel) {
		t.Error("machine1 should not see transitions configured after Build()")
	}
}
