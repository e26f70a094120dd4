package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/domain/entity"
	"github.com/garyjia/legal-approval/internal/infrastructure/persistence/sqlite"
)

// SubmissionRepository implements port.SubmissionRepository
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) port.SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: loggerOrNop(logger),
	}
}

const submissionColumns = `
	id, form_id, title, requester_name, requester_email,
	status, legal_gm_stage, lo_stage, assigned_legal_officer,
	due_date, cycle, version, created_at, updated_at
`

// Create inserts a submission and fills in its ID. Version starts at 1.
func (r *SubmissionRepository) Create(ctx context.Context, sub *entity.Submission) error {
	if sub.Version == 0 {
		sub.Version = 1
	}
	if sub.Cycle == 0 {
		sub.Cycle = 1
	}

	query := `
		INSERT INTO submissions (
			form_id, title, requester_name, requester_email,
			status, legal_gm_stage, lo_stage, assigned_legal_officer,
			due_date, cycle, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		sub.FormID,
		sub.Title,
		sub.RequesterName,
		sub.RequesterEmail,
		sub.Status,
		nullString(sub.LegalGMStage),
		nullString(sub.LOStage),
		nullString(sub.AssignedLegalOfficer),
		nullTime(sub.DueDate),
		sub.Cycle,
		sub.Version,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create submission", zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	sub.ID = id
	return nil
}

// GetByID retrieves a submission by ID, or nil when it does not exist
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*entity.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ?`

	sub, err := scanSubmission(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get submission by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return sub, nil
}

// Update writes the mutable columns when the stored version still equals expectedVersion
func (r *SubmissionRepository) Update(ctx context.Context, sub *entity.Submission, expectedVersion int64) error {
	query := `
		UPDATE submissions
		SET status = ?, legal_gm_stage = ?, lo_stage = ?, assigned_legal_officer = ?,
			due_date = ?, cycle = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		sub.Status,
		nullString(sub.LegalGMStage),
		nullString(sub.LOStage),
		nullString(sub.AssignedLegalOfficer),
		nullTime(sub.DueDate),
		sub.Cycle,
		sub.UpdatedAt,
		sub.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update submission", zap.Int64("id", sub.ID), zap.Error(err))
		return fmt.Errorf("failed to update submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: submission %d is no longer at version %d", port.ErrVersionConflict, sub.ID, expectedVersion)
	}

	sub.Version = expectedVersion + 1
	return nil
}

// List returns submissions newest first, optionally filtered by status
func (r *SubmissionRepository) List(ctx context.Context, filter port.SubmissionFilter) ([]*entity.Submission, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions`
	args := []interface{}{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := []*entity.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func scanSubmission(row scanner) (*entity.Submission, error) {
	var sub entity.Submission
	var gmStage, loStage, officer sql.NullString
	var dueDate sql.NullTime

	err := row.Scan(
		&sub.ID,
		&sub.FormID,
		&sub.Title,
		&sub.RequesterName,
		&sub.RequesterEmail,
		&sub.Status,
		&gmStage,
		&loStage,
		&officer,
		&dueDate,
		&sub.Cycle,
		&sub.Version,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.LegalGMStage = stringPtr(gmStage)
	sub.LOStage = stringPtr(loStage)
	sub.AssignedLegalOfficer = stringPtr(officer)
	sub.DueDate = timePtr(dueDate)

	return &sub, nil
}
