package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/legal-approval/internal/application/dispatcher"
	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/application/workflow"
	"github.com/garyjia/legal-approval/internal/domain/entity"
	"github.com/garyjia/legal-approval/internal/domain/event"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
	"github.com/garyjia/legal-approval/pkg/utils"
)

const (
	maxTitleLength   = 200
	maxCommentLength = 4000
	maxDocNameLength = 255
)

// CreateSubmissionInput is the request to open a DRAFT submission
type CreateSubmissionInput struct {
	FormID    int            `json:"form_id"`
	Title     string         `json:"title"`
	Requester workflow.Actor `json:"requester"`
	DueDate   *time.Time     `json:"due_date,omitempty"`
}

// SubmissionService covers the submission CRUD around the approval engine
type SubmissionService interface {
	Create(ctx context.Context, in CreateSubmissionInput) (*entity.Snapshot, error)
	Get(ctx context.Context, id int64) (*entity.Snapshot, error)
	List(ctx context.Context, filter port.SubmissionFilter) ([]*entity.Submission, error)
	ListEvents(ctx context.Context, id int64) ([]*entity.SubmissionEvent, error)

	AddComment(ctx context.Context, id int64, author workflow.Actor, body string) (*entity.Comment, error)
	ListComments(ctx context.Context, id int64) ([]*entity.Comment, error)

	RegisterDocument(ctx context.Context, id int64, name string, required bool) (*entity.Document, error)
	MarkDocumentUploaded(ctx context.Context, id, documentID int64) (*entity.Document, error)
	ListDocuments(ctx context.Context, id int64) ([]*entity.Document, error)
}

type submissionServiceImpl struct {
	repos      workflow.Repositories
	engine     workflow.WorkflowEngine
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

// NewSubmissionService creates a new SubmissionService. disp may be nil.
func NewSubmissionService(
	repos workflow.Repositories,
	engine workflow.WorkflowEngine,
	txManager port.TransactionManager,
	disp dispatcher.Dispatcher,
	logger Logger,
) SubmissionService {
	return &submissionServiceImpl{
		repos:      repos,
		engine:     engine,
		txManager:  txManager,
		dispatcher: disp,
		logger:     loggerOrNop(logger),
		now:        time.Now,
	}
}

// Create opens a DRAFT submission and logs its CREATED event in the same transaction
func (s *submissionServiceImpl) Create(ctx context.Context, in CreateSubmissionInput) (*entity.Snapshot, error) {
	form, ok := entity.LookupFormType(in.FormID)
	if !ok {
		return nil, fmt.Errorf("%w: form id must be between 1 and 10, got %d", domainwf.ErrInvalidInput, in.FormID)
	}
	title := utils.SanitizeString(in.Title)
	if err := utils.ValidateText("title", title, maxTitleLength); err != nil {
		return nil, fmt.Errorf("%w: %v", domainwf.ErrInvalidInput, err)
	}
	if in.Requester.Email != "" {
		if err := utils.ValidateIdentity(in.Requester.Email); err != nil {
			return nil, fmt.Errorf("%w: %v", domainwf.ErrInvalidInput, err)
		}
	}

	now := s.now()
	sub := &entity.Submission{
		FormID:         form.ID,
		Title:          title,
		RequesterName:  utils.SanitizeString(in.Requester.Name),
		RequesterEmail: in.Requester.Email,
		Status:         entity.StatusDraft,
		DueDate:        in.DueDate,
		Cycle:          1,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repos.Submissions.Create(txCtx, sub); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}

		return s.repos.Events.Append(txCtx, &entity.SubmissionEvent{
			ID:           uuid.NewString(),
			SubmissionID: sub.ID,
			Seq:          sub.Version,
			Tag:          entity.EventTagCreated,
			ActorName:    sub.RequesterName,
			ActorEmail:   sub.RequesterEmail,
			ToStatus:     sub.Status,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, s.fail(err, "create submission", 0)
	}

	s.logger.Info("Submission created", "id", sub.ID, "form_id", sub.FormID)
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeSubmissionCreated, sub.ID, map[string]interface{}{
			"form_id": sub.FormID,
			"title":   sub.Title,
		}))
	}

	return s.engine.Snapshot(ctx, sub.ID)
}

// Get returns the snapshot of one submission
func (s *submissionServiceImpl) Get(ctx context.Context, id int64) (*entity.Snapshot, error) {
	return s.engine.Snapshot(ctx, id)
}

// List returns submissions newest first
func (s *submissionServiceImpl) List(ctx context.Context, filter port.SubmissionFilter) ([]*entity.Submission, error) {
	if filter.Status != "" && !isKnownStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", domainwf.ErrInvalidInput, filter.Status)
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	subs, err := s.repos.Submissions.List(ctx, filter)
	if err != nil {
		return nil, s.fail(err, "list submissions", 0)
	}
	return subs, nil
}

// ListEvents returns the append-only log in seq order
func (s *submissionServiceImpl) ListEvents(ctx context.Context, id int64) ([]*entity.SubmissionEvent, error) {
	if err := s.requireSubmission(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.repos.Events.ListBySubmission(ctx, id)
	if err != nil {
		return nil, s.fail(err, "list events", id)
	}
	return events, nil
}

// AddComment stores free text against a submission in any status
func (s *submissionServiceImpl) AddComment(ctx context.Context, id int64, author workflow.Actor, body string) (*entity.Comment, error) {
	body = utils.SanitizeString(body)
	if err := utils.ValidateText("comment", body, maxCommentLength); err != nil {
		return nil, fmt.Errorf("%w: %v", domainwf.ErrInvalidInput, err)
	}
	if err := s.requireSubmission(ctx, id); err != nil {
		return nil, err
	}

	c := &entity.Comment{
		SubmissionID: id,
		AuthorName:   utils.SanitizeString(author.Name),
		AuthorEmail:  author.Email,
		Body:         body,
		CreatedAt:    s.now(),
	}
	if err := s.repos.Comments.Create(ctx, c); err != nil {
		return nil, s.fail(err, "add comment", id)
	}
	return c, nil
}

// ListComments returns comments oldest first
func (s *submissionServiceImpl) ListComments(ctx context.Context, id int64) ([]*entity.Comment, error) {
	if err := s.requireSubmission(ctx, id); err != nil {
		return nil, err
	}
	comments, err := s.repos.Comments.ListBySubmission(ctx, id)
	if err != nil {
		return nil, s.fail(err, "list comments", id)
	}
	return comments, nil
}

// RegisterDocument adds document metadata; required documents gate the ready flag
func (s *submissionServiceImpl) RegisterDocument(ctx context.Context, id int64, name string, required bool) (*entity.Document, error) {
	name = utils.SanitizeString(name)
	if err := utils.ValidateText("document name", name, maxDocNameLength); err != nil {
		return nil, fmt.Errorf("%w: %v", domainwf.ErrInvalidInput, err)
	}
	if err := s.requireSubmission(ctx, id); err != nil {
		return nil, err
	}

	doc := &entity.Document{
		SubmissionID: id,
		Name:         name,
		Required:     required,
		CreatedAt:    s.now(),
	}
	if err := s.repos.Documents.Create(ctx, doc); err != nil {
		return nil, s.fail(err, "register document", id)
	}
	return doc, nil
}

// MarkDocumentUploaded flags a document of the submission as uploaded
func (s *submissionServiceImpl) MarkDocumentUploaded(ctx context.Context, id, documentID int64) (*entity.Document, error) {
	doc, err := s.repos.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, s.fail(err, "get document", id)
	}
	if doc == nil || doc.SubmissionID != id {
		return nil, fmt.Errorf("%w: document %d on submission %d", domainwf.ErrNotFound, documentID, id)
	}
	if doc.Uploaded {
		return doc, nil
	}

	now := s.now()
	if err := s.repos.Documents.MarkUploaded(ctx, documentID, now); err != nil {
		return nil, s.fail(err, "mark document uploaded", id)
	}
	doc.Uploaded = true
	doc.UploadedAt = &now
	return doc, nil
}

// ListDocuments returns document metadata in registration order
func (s *submissionServiceImpl) ListDocuments(ctx context.Context, id int64) ([]*entity.Document, error) {
	if err := s.requireSubmission(ctx, id); err != nil {
		return nil, err
	}
	docs, err := s.repos.Documents.ListBySubmission(ctx, id)
	if err != nil {
		return nil, s.fail(err, "list documents", id)
	}
	return docs, nil
}

func (s *submissionServiceImpl) requireSubmission(ctx context.Context, id int64) error {
	sub, err := s.repos.Submissions.GetByID(ctx, id)
	if err != nil {
		return s.fail(err, "get submission", id)
	}
	if sub == nil {
		return fmt.Errorf("%w: %d", domainwf.ErrNotFound, id)
	}
	return nil
}

// fail logs a storage error and returns it as ErrProcessingFailed
func (s *submissionServiceImpl) fail(err error, op string, id int64) error {
	if errors.Is(err, domainwf.ErrNotFound) || errors.Is(err, domainwf.ErrInvalidInput) {
		return err
	}
	s.logger.Error("Submission operation failed", "operation", op, "submission_id", id, "error", err)
	return fmt.Errorf("%w: %s", domainwf.ErrProcessingFailed, op)
}

func isKnownStatus(status string) bool {
	switch status {
	case entity.StatusDraft, entity.StatusPendingApproval, entity.StatusPendingLegalGM,
		entity.StatusPendingLegalOfficer, entity.StatusPendingSpecialApprover,
		entity.StatusPendingLegalGMFinal, entity.StatusCompleted, entity.StatusSentBack,
		entity.StatusCancelled:
		return true
	default:
		return false
	}
}
