package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/domain/entity"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
)

const registerPageSize = 200

// RegisterService builds the approval register: every submission with its
// current phase, overdue flag and first-level ledger
type RegisterService interface {
	Rows(ctx context.Context, status string) ([]port.RegisterRow, error)
	Export(ctx context.Context, w io.Writer, status string) error
}

type registerServiceImpl struct {
	submissions port.SubmissionRepository
	records     port.ApprovalRecordRepository
	writer      port.RegisterWriter
	logger      Logger
	now         func() time.Time
}

// NewRegisterService creates a new RegisterService
func NewRegisterService(
	submissions port.SubmissionRepository,
	records port.ApprovalRecordRepository,
	writer port.RegisterWriter,
	logger Logger,
) RegisterService {
	return &registerServiceImpl{
		submissions: submissions,
		records:     records,
		writer:      writer,
		logger:      loggerOrNop(logger),
		now:         time.Now,
	}
}

// Rows collects register lines, optionally for one status only
func (s *registerServiceImpl) Rows(ctx context.Context, status string) ([]port.RegisterRow, error) {
	if status != "" && !isKnownStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domainwf.ErrInvalidInput, status)
	}

	now := s.now()
	var rows []port.RegisterRow

	for offset := 0; ; offset += registerPageSize {
		page, err := s.submissions.List(ctx, port.SubmissionFilter{Status: status, Limit: registerPageSize, Offset: offset})
		if err != nil {
			return nil, s.fail(err, "list submissions")
		}

		for _, sub := range page {
			records, err := s.records.GetBySubmission(ctx, sub.ID, sub.Cycle)
			if err != nil {
				return nil, s.fail(err, "list approval records")
			}

			formName := ""
			if form, ok := entity.LookupFormType(sub.FormID); ok {
				formName = form.Name
			}

			rows = append(rows, port.RegisterRow{
				Submission: sub,
				FormName:   formName,
				Phase:      domainwf.Resolve(sub).String(),
				Overdue:    sub.IsOverdue(now),
				Records:    records,
			})
		}

		if len(page) < registerPageSize {
			break
		}
	}

	return rows, nil
}

// Export writes the register workbook to w
func (s *registerServiceImpl) Export(ctx context.Context, w io.Writer, status string) error {
	rows, err := s.Rows(ctx, status)
	if err != nil {
		return err
	}

	if err := s.writer.Write(ctx, w, rows, s.now()); err != nil {
		return s.fail(err, "write register")
	}

	s.logger.Info("Approval register exported", "rows", len(rows), "status", status)
	return nil
}

func (s *registerServiceImpl) fail(err error, op string) error {
	s.logger.Error("Register operation failed", "operation", op, "error", err)
	return fmt.Errorf("%w: %s", domainwf.ErrProcessingFailed, op)
}
