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

// EventRepository implements port.EventRepository
type EventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventRepository creates a new submission event log repository
func NewEventRepository(db *sql.DB, logger *zap.Logger) port.EventRepository {
	return &EventRepository{
		db:     db,
		logger: loggerOrNop(logger),
	}
}

// Append inserts one event. (submission_id, seq) is unique, so two writers
// that both read the same version cannot both append.
func (r *EventRepository) Append(ctx context.Context, evt *entity.SubmissionEvent) error {
	query := `
		INSERT INTO submission_events (
			id, submission_id, seq, tag, role, action, actor_name, actor_email,
			from_status, to_status, from_phase, to_phase, comment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		evt.ID,
		evt.SubmissionID,
		evt.Seq,
		evt.Tag,
		evt.Role,
		evt.Action,
		evt.ActorName,
		evt.ActorEmail,
		evt.FromStatus,
		evt.ToStatus,
		evt.FromPhase,
		evt.ToPhase,
		evt.Comment,
		evt.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append submission event",
			zap.Int64("submission_id", evt.SubmissionID),
			zap.Int64("seq", evt.Seq),
			zap.Error(err))
		return fmt.Errorf("failed to append submission event: %w", err)
	}

	return nil
}

// ListBySubmission returns the log ordered by seq
func (r *EventRepository) ListBySubmission(ctx context.Context, submissionID int64) ([]*entity.SubmissionEvent, error) {
	query := `
		SELECT id, submission_id, seq, tag, role, action, actor_name, actor_email,
			from_status, to_status, from_phase, to_phase, comment, created_at
		FROM submission_events
		WHERE submission_id = ?
		ORDER BY seq ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, submissionID)
	if err != nil {
		r.logger.Error("Failed to list submission events", zap.Int64("submission_id", submissionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list submission events: %w", err)
	}
	defer rows.Close()

	events := []*entity.SubmissionEvent{}
	for rows.Next() {
		var evt entity.SubmissionEvent
		if err := rows.Scan(
			&evt.ID,
			&evt.SubmissionID,
			&evt.Seq,
			&evt.Tag,
			&evt.Role,
			&evt.Action,
			&evt.ActorName,
			&evt.ActorEmail,
			&evt.FromStatus,
			&evt.ToStatus,
			&evt.FromPhase,
			&evt.ToPhase,
			&evt.Comment,
			&evt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission event: %w", err)
		}
		events = append(events, &evt)
	}

	return events, rows.Err()
}
