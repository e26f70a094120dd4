package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/domain/entity"
	"github.com/garyjia/legal-approval/internal/infrastructure/persistence/sqlite"
)

// ApprovalRecordRepository implements port.ApprovalRecordRepository
type ApprovalRecordRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRecordRepository creates a new first-level ledger repository
func NewApprovalRecordRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRecordRepository {
	return &ApprovalRecordRepository{
		db:     db,
		logger: loggerOrNop(logger),
	}
}

// Create inserts a ledger record
func (r *ApprovalRecordRepository) Create(ctx context.Context, rec *entity.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records (
			submission_id, cycle, role, approver_name, approver_email,
			status, comment, action_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		rec.SubmissionID,
		rec.Cycle,
		string(rec.Role),
		rec.ApproverName,
		rec.ApproverEmail,
		rec.Status,
		rec.Comment,
		nullTime(rec.ActionDate),
	)
	if err != nil {
		r.logger.Error("Failed to create approval record",
			zap.Int64("submission_id", rec.SubmissionID),
			zap.String("role", string(rec.Role)),
			zap.Error(err))
		return fmt.Errorf("failed to create approval record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// GetBySubmission returns the records of one cycle in role seeding order
func (r *ApprovalRecordRepository) GetBySubmission(ctx context.Context, submissionID int64, cycle int) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, submission_id, cycle, role, approver_name, approver_email,
			status, comment, action_date
		FROM approval_records
		WHERE submission_id = ? AND cycle = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, submissionID, cycle)
	if err != nil {
		r.logger.Error("Failed to get approval records", zap.Int64("submission_id", submissionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval records: %w", err)
	}
	defer rows.Close()

	records := []*entity.ApprovalRecord{}
	for rows.Next() {
		var rec entity.ApprovalRecord
		var role string
		var actionDate sql.NullTime

		if err := rows.Scan(
			&rec.ID,
			&rec.SubmissionID,
			&rec.Cycle,
			&role,
			&rec.ApproverName,
			&rec.ApproverEmail,
			&rec.Status,
			&rec.Comment,
			&actionDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}

		rec.Role = entity.Role(role)
		rec.ActionDate = timePtr(actionDate)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Decide writes a decision onto a record that is still PENDING
func (r *ApprovalRecordRepository) Decide(ctx context.Context, rec *entity.ApprovalRecord) error {
	query := `
		UPDATE approval_records
		SET status = ?, approver_name = ?, approver_email = ?, comment = ?, action_date = ?
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		rec.Status,
		rec.ApproverName,
		rec.ApproverEmail,
		rec.Comment,
		nullTime(rec.ActionDate),
		rec.ID,
		entity.RecordStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to record decision", zap.Int64("id", rec.ID), zap.Error(err))
		return fmt.Errorf("failed to record decision: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: approval record %d is no longer pending", port.ErrVersionConflict, rec.ID)
	}

	return nil
}
