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

// CommentRepository implements port.CommentRepository
type CommentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sql.DB, logger *zap.Logger) port.CommentRepository {
	return &CommentRepository{
		db:     db,
		logger: loggerOrNop(logger),
	}
}

// Create inserts a comment
func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	query := `
		INSERT INTO comments (submission_id, author_name, author_email, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		c.SubmissionID,
		c.AuthorName,
		c.AuthorEmail,
		c.Body,
		c.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create comment", zap.Int64("submission_id", c.SubmissionID), zap.Error(err))
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// ListBySubmission returns comments oldest first
func (r *CommentRepository) ListBySubmission(ctx context.Context, submissionID int64) ([]*entity.Comment, error) {
	query := `
		SELECT id, submission_id, author_name, author_email, body, created_at
		FROM comments
		WHERE submission_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, submissionID)
	if err != nil {
		r.logger.Error("Failed to list comments", zap.Int64("submission_id", submissionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*entity.Comment{}
	for rows.Next() {
		var c entity.Comment
		if err := rows.Scan(&c.ID, &c.SubmissionID, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}

	return comments, rows.Err()
}
