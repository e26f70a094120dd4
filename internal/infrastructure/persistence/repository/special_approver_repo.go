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

// SpecialApproverRepository implements port.SpecialApproverRepository
type SpecialApproverRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSpecialApproverRepository creates a new special approver ledger repository
func NewSpecialApproverRepository(db *sql.DB, logger *zap.Logger) port.SpecialApproverRepository {
	return &SpecialApproverRepository{
		db:     db,
		logger: loggerOrNop(logger),
	}
}

// Create inserts a special approver record
func (r *SpecialApproverRepository) Create(ctx context.Context, rec *entity.SpecialApproverRecord) error {
	query := `
		INSERT INTO special_approver_records (
			submission_id, cycle, approver_name, approver_email, assigned_by,
			status, comment, action_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		rec.SubmissionID,
		rec.Cycle,
		rec.ApproverName,
		rec.ApproverEmail,
		rec.AssignedBy,
		rec.Status,
		rec.Comment,
		nullTime(rec.ActionDate),
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create special approver",
			zap.Int64("submission_id", rec.SubmissionID),
			zap.String("email", rec.ApproverEmail),
			zap.Error(err))
		return fmt.Errorf("failed to create special approver: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// GetBySubmission returns the special approvers of one cycle in assignment order
func (r *SpecialApproverRepository) GetBySubmission(ctx context.Context, submissionID int64, cycle int) ([]*entity.SpecialApproverRecord, error) {
	query := `
		SELECT id, submission_id, cycle, approver_name, approver_email, assigned_by,
			status, comment, action_date, created_at
		FROM special_approver_records
		WHERE submission_id = ? AND cycle = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, submissionID, cycle)
	if err != nil {
		r.logger.Error("Failed to get special approvers", zap.Int64("submission_id", submissionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get special approvers: %w", err)
	}
	defer rows.Close()

	records := []*entity.SpecialApproverRecord{}
	for rows.Next() {
		var rec entity.SpecialApproverRecord
		var actionDate sql.NullTime

		if err := rows.Scan(
			&rec.ID,
			&rec.SubmissionID,
			&rec.Cycle,
			&rec.ApproverName,
			&rec.ApproverEmail,
			&rec.AssignedBy,
			&rec.Status,
			&rec.Comment,
			&actionDate,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan special approver: %w", err)
		}

		rec.ActionDate = timePtr(actionDate)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Decide writes a decision onto a record that is still PENDING
func (r *SpecialApproverRepository) Decide(ctx context.Context, rec *entity.SpecialApproverRecord) error {
	query := `
		UPDATE special_approver_records
		SET status = ?, approver_name = ?, comment = ?, action_date = ?
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		rec.Status,
		rec.ApproverName,
		rec.Comment,
		nullTime(rec.ActionDate),
		rec.ID,
		entity.RecordStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to record special decision", zap.Int64("id", rec.ID), zap.Error(err))
		return fmt.Errorf("failed to record special decision: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: special approver %d is no longer pending", port.ErrVersionConflict, rec.ID)
	}

	return nil
}
