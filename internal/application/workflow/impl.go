package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/legal-approval/internal/application/dispatcher"
	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/domain/entity"
	"github.com/garyjia/legal-approval/internal/domain/event"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Repositories groups the stores the engine reads and writes
type Repositories struct {
	Submissions port.SubmissionRepository
	Records     port.ApprovalRecordRepository
	Specials    port.SpecialApproverRepository
	Events      port.EventRepository
	Comments    port.CommentRepository
	Documents   port.DocumentRepository
}

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	repos      Repositories
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
	locks      *keyedLocks
	maxRetries int
	now        func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxRetries sets how many times a transition is attempted when a
// concurrent writer moved the submission underneath it
func WithMaxRetries(n int) EngineOption {
	return func(e *engineImpl) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// WithClock overrides the time source used for action dates and event timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new workflow engine
func NewEngine(repos Repositories, txManager port.TransactionManager, opts ...EngineOption) WorkflowEngine {
	e := &engineImpl{
		repos:      repos,
		txManager:  txManager,
		logger:     nopLogger{},
		locks:      newKeyedLocks(),
		maxRetries: 3,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// plan is the full set of writes one call makes to an aggregate
type plan struct {
	tag     string
	role    entity.Role
	action  entity.Action
	actor   Actor
	comment string
	outcome *Outcome

	// seed is inserted after the new cycle is known
	seed []entity.ApproverAssignment

	// resubmit opens a new cycle and clears the officer stages
	resubmit bool
}

// committed carries what the caller needs after the transaction closed
type committed struct {
	snapshot *entity.Snapshot
	from     domainwf.State
	to       domainwf.State
	record   *entity.SubmissionEvent
}

// Apply runs one decision through the gate of the acting role
func (e *engineImpl) Apply(ctx context.Context, d Decision) (*entity.Snapshot, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	handler, err := handlerFor(d.Role)
	if err != nil {
		return nil, err
	}

	return e.mutate(ctx, d.SubmissionID, func(agg *Aggregate, now time.Time) (*plan, error) {
		outcome, err := handler(agg, d, now)
		if err != nil {
			return nil, err
		}
		return &plan{
			tag:     entity.EventTagDecision,
			role:    d.Role,
			action:  d.Action,
			actor:   d.Actor,
			comment: d.Comment,
			outcome: outcome,
		}, nil
	})
}

// Submit moves a DRAFT into PENDING_APPROVAL and seeds one PENDING record per assignment
func (e *engineImpl) Submit(ctx context.Context, submissionID int64, assignments []entity.ApproverAssignment, actor Actor) (*entity.Snapshot, error) {
	if err := validateAssignments(assignments); err != nil {
		return nil, err
	}

	return e.mutate(ctx, submissionID, func(agg *Aggregate, _ time.Time) (*plan, error) {
		if agg.State != domainwf.StateDraft {
			return nil, fmt.Errorf("%w: submission %d is %s, only DRAFT can be submitted",
				domainwf.ErrInvalidTransition, submissionID, agg.State)
		}
		return &plan{
			tag:     entity.EventTagSubmitted,
			actor:   actor,
			outcome: &Outcome{Trigger: domainwf.TriggerSubmit},
			seed:    assignments,
		}, nil
	})
}

// Resubmit reopens a SENT_BACK submission with fresh records for the same signers
func (e *engineImpl) Resubmit(ctx context.Context, submissionID int64, actor Actor, comment string) (*entity.Snapshot, error) {
	return e.mutate(ctx, submissionID, func(agg *Aggregate, _ time.Time) (*plan, error) {
		if agg.State != domainwf.StateSentBack {
			return nil, fmt.Errorf("%w: submission %d is %s, only SENT_BACK can be resubmitted",
				domainwf.ErrInvalidTransition, submissionID, agg.State)
		}
		seed := make([]entity.ApproverAssignment, 0, len(agg.Records))
		for _, r := range agg.Records {
			seed = append(seed, entity.ApproverAssignment{Role: r.Role, Name: r.ApproverName, Email: r.ApproverEmail})
		}
		if len(seed) == 0 {
			return nil, fmt.Errorf("%w: submission %d has no first-level signers to reseed",
				domainwf.ErrInvalidTransition, submissionID)
		}
		return &plan{
			tag:      entity.EventTagResubmitted,
			actor:    actor,
			comment:  comment,
			outcome:  &Outcome{Trigger: domainwf.TriggerResubmit},
			seed:     seed,
			resubmit: true,
		}, nil
	})
}

// Snapshot returns the current aggregate without mutating it
func (e *engineImpl) Snapshot(ctx context.Context, submissionID int64) (*entity.Snapshot, error) {
	agg, err := e.load(ctx, submissionID)
	if err != nil {
		return nil, e.classify(err, "load snapshot", submissionID)
	}
	snap, err := e.snapshot(ctx, agg)
	if err != nil {
		return nil, e.classify(err, "load snapshot", submissionID)
	}
	return snap, nil
}

// GetCurrentState returns the resolved state of a submission
func (e *engineImpl) GetCurrentState(ctx context.Context, submissionID int64) (domainwf.State, error) {
	sub, err := e.repos.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return domainwf.State{}, e.classify(err, "get state", submissionID)
	}
	if sub == nil {
		return domainwf.State{}, fmt.Errorf("%w: %d", domainwf.ErrNotFound, submissionID)
	}
	return domainwf.Resolve(sub), nil
}

// mutate serializes one read-evaluate-write on a submission: in-process lock,
// transaction, version-checked write, retried when a concurrent writer won.
func (e *engineImpl) mutate(ctx context.Context, submissionID int64, decide func(agg *Aggregate, now time.Time) (*plan, error)) (*entity.Snapshot, error) {
	unlock := e.locks.Lock(submissionID)
	defer unlock()

	var result *committed
	var err error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		result, err = e.attempt(ctx, submissionID, decide)
		if !errors.Is(err, port.ErrVersionConflict) {
			break
		}
		e.logger.Info("Version conflict, retrying transition",
			"submission_id", submissionID,
			"attempt", attempt,
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}
	}
	if err != nil {
		return nil, e.classify(err, "apply transition", submissionID)
	}

	e.logger.Info("Submission transitioned",
		"submission_id", submissionID,
		"from", result.from.String(),
		"to", result.to.String(),
		"seq", result.record.Seq,
	)
	e.publish(ctx, result)

	return result.snapshot, nil
}

func (e *engineImpl) attempt(ctx context.Context, submissionID int64, decide func(agg *Aggregate, now time.Time) (*plan, error)) (*committed, error) {
	var result *committed

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		agg, err := e.load(txCtx, submissionID)
		if err != nil {
			return err
		}

		now := e.now()
		p, err := decide(agg, now)
		if err != nil {
			return err
		}

		result, err = e.commit(txCtx, agg, p, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// commit fires the trigger, then writes ledgers, the submission, and the event in that order
func (e *engineImpl) commit(ctx context.Context, agg *Aggregate, p *plan, now time.Time) (*committed, error) {
	sub := agg.Submission
	from := agg.State
	fromStatus := sub.Status
	expectedVersion := sub.Version

	to := from
	if p.outcome.Trigger != "" {
		machine := BuildSubmissionStateMachine(from)
		if err := machine.Fire(withLedger(ctx, agg), p.outcome.Trigger); err != nil {
			return nil, err
		}
		to = machine.State()
	}

	if rec := p.outcome.Record; rec != nil {
		if err := e.repos.Records.Decide(ctx, rec); err != nil {
			return nil, fmt.Errorf("record decision: %w", err)
		}
	}
	if special := p.outcome.Special; special != nil {
		if err := e.repos.Specials.Decide(ctx, special); err != nil {
			return nil, fmt.Errorf("record special decision: %w", err)
		}
	}

	domainwf.Apply(sub, to)
	if p.outcome.AssignedOfficer != "" {
		officer := p.outcome.AssignedOfficer
		sub.AssignedLegalOfficer = &officer
	}
	if p.resubmit {
		sub.Cycle++
		sub.LegalGMStage = nil
		sub.LOStage = nil
		sub.AssignedLegalOfficer = nil
		agg.Specials = nil
	}
	if p.tag == entity.EventTagSubmitted && sub.Cycle == 0 {
		sub.Cycle = 1
	}
	sub.UpdatedAt = now

	if special := p.outcome.NewSpecial; special != nil {
		special.Cycle = sub.Cycle
		if err := e.repos.Specials.Create(ctx, special); err != nil {
			return nil, fmt.Errorf("create special approver: %w", err)
		}
		agg.Specials = append(agg.Specials, special)
	}

	if p.seed != nil {
		records := make([]*entity.ApprovalRecord, 0, len(p.seed))
		for _, a := range p.seed {
			rec := &entity.ApprovalRecord{
				SubmissionID:  sub.ID,
				Cycle:         sub.Cycle,
				Role:          a.Role,
				ApproverName:  a.Name,
				ApproverEmail: a.Email,
				Status:        entity.RecordStatusPending,
			}
			if err := e.repos.Records.Create(ctx, rec); err != nil {
				return nil, fmt.Errorf("seed approval record: %w", err)
			}
			records = append(records, rec)
		}
		agg.Records = records
	}

	if err := e.repos.Submissions.Update(ctx, sub, expectedVersion); err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	agg.State = to

	record := &entity.SubmissionEvent{
		ID:           uuid.NewString(),
		SubmissionID: sub.ID,
		Seq:          sub.Version,
		Tag:          p.tag,
		Role:         string(p.role),
		Action:       string(p.action),
		ActorName:    p.actor.Name,
		ActorEmail:   p.actor.Email,
		FromStatus:   fromStatus,
		ToStatus:     sub.Status,
		FromPhase:    string(from.Sub),
		ToPhase:      string(to.Sub),
		Comment:      p.comment,
		CreatedAt:    now,
	}
	if err := e.repos.Events.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	snap, err := e.snapshot(ctx, agg)
	if err != nil {
		return nil, err
	}

	return &committed{snapshot: snap, from: from, to: to, record: record}, nil
}

// load reads a submission and its current-cycle ledgers
func (e *engineImpl) load(ctx context.Context, submissionID int64) (*Aggregate, error) {
	sub, err := e.repos.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: %d", domainwf.ErrNotFound, submissionID)
	}

	state := domainwf.Resolve(sub)
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: submission %d has status %q", domainwf.ErrInvalidState, submissionID, sub.Status)
	}

	records, err := e.repos.Records.GetBySubmission(ctx, submissionID, sub.Cycle)
	if err != nil {
		return nil, fmt.Errorf("get approval records: %w", err)
	}
	specials, err := e.repos.Specials.GetBySubmission(ctx, submissionID, sub.Cycle)
	if err != nil {
		return nil, fmt.Errorf("get special approvers: %w", err)
	}

	return &Aggregate{Submission: sub, State: state, Records: records, Specials: specials}, nil
}

func (e *engineImpl) snapshot(ctx context.Context, agg *Aggregate) (*entity.Snapshot, error) {
	docs, err := e.repos.Documents.ListBySubmission(ctx, agg.Submission.ID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	comments, err := e.repos.Comments.ListBySubmission(ctx, agg.Submission.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	records := agg.Records
	if records == nil {
		records = []*entity.ApprovalRecord{}
	}
	specials := agg.Specials
	if specials == nil {
		specials = []*entity.SpecialApproverRecord{}
	}

	return &entity.Snapshot{
		Submission:       agg.Submission,
		Phase:            agg.State.String(),
		ApprovalRecords:  records,
		SpecialApprovers: specials,
		Documents:        docs,
		Comments:         comments,
		DocumentsReady:   entity.RequiredDocumentsUploaded(docs),
		Overdue:          agg.Submission.IsOverdue(e.now()),
	}, nil
}

// publish notifies subscribers once the transition is durable
func (e *engineImpl) publish(ctx context.Context, c *committed) {
	if e.dispatcher == nil {
		return
	}

	sub := c.snapshot.Submission
	payload := map[string]interface{}{
		"from_status": c.record.FromStatus,
		"to_status":   c.record.ToStatus,
		"from_phase":  c.record.FromPhase,
		"to_phase":    c.record.ToPhase,
		"tag":         c.record.Tag,
		"role":        c.record.Role,
		"action":      c.record.Action,
		"actor_email": c.record.ActorEmail,
		"seq":         c.record.Seq,
	}
	correlation := c.record.ID

	switch {
	case c.record.Tag == entity.EventTagSubmitted || c.record.Tag == entity.EventTagResubmitted:
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeSubmissionSubmitted, sub.ID, payload, correlation))
	case c.from == c.to:
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeLedgerUpdated, sub.ID, payload, correlation))
		return
	}

	e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeStatusChanged, sub.ID, payload, correlation))
	if t := event.ForTerminalStatus(sub.Status); t != "" {
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(t, sub.ID, payload, correlation))
	}
}

// classify keeps domain errors as they are and hides everything else behind ErrProcessingFailed
func (e *engineImpl) classify(err error, op string, submissionID int64) error {
	for _, known := range []error{
		domainwf.ErrNotFound,
		domainwf.ErrInvalidTransition,
		domainwf.ErrRoleNotAssigned,
		domainwf.ErrInvalidInput,
		domainwf.ErrUnhandledRole,
		domainwf.ErrGuardFailed,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	e.logger.Error("Transition failed",
		"operation", op,
		"submission_id", submissionID,
		"error", err,
	)
	return fmt.Errorf("%w: %s", domainwf.ErrProcessingFailed, op)
}

func validateAssignments(assignments []entity.ApproverAssignment) error {
	if len(assignments) == 0 {
		return fmt.Errorf("%w: at least one first-level approver is required", domainwf.ErrInvalidInput)
	}
	seen := make(map[entity.Role]bool, len(assignments))
	for _, a := range assignments {
		if !a.Role.IsFirstLevel() {
			return fmt.Errorf("%w: %s is not a first-level role", domainwf.ErrInvalidInput, a.Role)
		}
		if seen[a.Role] {
			return fmt.Errorf("%w: %s assigned twice", domainwf.ErrInvalidInput, a.Role)
		}
		if strings.TrimSpace(a.Email) == "" {
			return fmt.Errorf("%w: %s approver email is required", domainwf.ErrInvalidInput, a.Role)
		}
		seen[a.Role] = true
	}
	return nil
}
