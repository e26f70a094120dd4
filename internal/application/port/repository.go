package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/legal-approval/internal/domain/entity"
)

// ErrVersionConflict is returned by guarded updates whose precondition no longer holds:
// a submission whose version moved, or a ledger record that is no longer PENDING.
var ErrVersionConflict = errors.New("concurrent modification")

// SubmissionFilter narrows ListSubmissions results
type SubmissionFilter struct {
	Status string
	Limit  int
	Offset int
}

// SubmissionRepository defines persistence operations for Submission
type SubmissionRepository interface {
	Create(ctx context.Context, sub *entity.Submission) error

	// GetByID returns nil, nil when the submission does not exist
	GetByID(ctx context.Context, id int64) (*entity.Submission, error)

	// Update writes status, stage flags, officer, cycle and bumps the version.
	// It fails with ErrVersionConflict unless the stored version equals expectedVersion.
	Update(ctx context.Context, sub *entity.Submission, expectedVersion int64) error

	List(ctx context.Context, filter SubmissionFilter) ([]*entity.Submission, error)
}

// ApprovalRecordRepository defines persistence operations for the first-level ledger
type ApprovalRecordRepository interface {
	Create(ctx context.Context, rec *entity.ApprovalRecord) error
	GetBySubmission(ctx context.Context, submissionID int64, cycle int) ([]*entity.ApprovalRecord, error)

	// Decide records a decision on a PENDING record; ErrVersionConflict if already decided
	Decide(ctx context.Context, rec *entity.ApprovalRecord) error
}

// SpecialApproverRepository defines persistence operations for the special approver ledger
type SpecialApproverRepository interface {
	Create(ctx context.Context, rec *entity.SpecialApproverRecord) error
	GetBySubmission(ctx context.Context, submissionID int64, cycle int) ([]*entity.SpecialApproverRecord, error)

	// Decide records a decision on a PENDING record; ErrVersionConflict if already decided
	Decide(ctx context.Context, rec *entity.SpecialApproverRecord) error
}

// EventRepository persists the append-only submission event log
type EventRepository interface {
	Append(ctx context.Context, evt *entity.SubmissionEvent) error
	ListBySubmission(ctx context.Context, submissionID int64) ([]*entity.SubmissionEvent, error)
}

// CommentRepository persists free-text comments
type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	ListBySubmission(ctx context.Context, submissionID int64) ([]*entity.Comment, error)
}

// DocumentRepository persists document metadata
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id int64) (*entity.Document, error)
	MarkUploaded(ctx context.Context, id int64, at time.Time) error
	ListBySubmission(ctx context.Context, submissionID int64) ([]*entity.Document, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
