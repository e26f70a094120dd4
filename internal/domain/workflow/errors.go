package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrNotFound is returned when the submission does not exist
	ErrNotFound = errors.New("submission not found")

	// ErrRoleNotAssigned is returned when the acting role has no ledger record
	ErrRoleNotAssigned = errors.New("role not assigned to submission")

	// ErrInvalidInput is returned for malformed decisions
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnhandledRole is returned for roles the engine recognises but does not process
	ErrUnhandledRole = errors.New("role not handled")

	// ErrProcessingFailed wraps storage failures during a transition
	ErrProcessingFailed = errors.New("processing failed")
)
