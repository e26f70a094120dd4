package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/domain/entity"
	"github.com/garyjia/legal-approval/internal/infrastructure/persistence/sqlite"
)

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document metadata repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: loggerOrNop(logger),
	}
}

// Create inserts document metadata
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (submission_id, name, required, uploaded, uploaded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		doc.SubmissionID,
		doc.Name,
		doc.Required,
		doc.Uploaded,
		nullTime(doc.UploadedAt),
		doc.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.Int64("submission_id", doc.SubmissionID), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	doc.ID = id
	return nil
}

// GetByID retrieves a document, or nil when it does not exist
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	query := `
		SELECT id, submission_id, name, required, uploaded, uploaded_at, created_at
		FROM documents
		WHERE id = ?
	`

	doc, err := scanDocument(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// MarkUploaded flags a document as uploaded
func (r *DocumentRepository) MarkUploaded(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE documents SET uploaded = 1, uploaded_at = ? WHERE id = ?`

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, at, id); err != nil {
		r.logger.Error("Failed to mark document uploaded", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark document uploaded: %w", err)
	}
	return nil
}

// ListBySubmission returns documents in registration order
func (r *DocumentRepository) ListBySubmission(ctx context.Context, submissionID int64) ([]*entity.Document, error) {
	query := `
		SELECT id, submission_id, name, required, uploaded, uploaded_at, created_at
		FROM documents
		WHERE submission_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, submissionID)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Int64("submission_id", submissionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []*entity.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func scanDocument(row scanner) (*entity.Document, error) {
	var doc entity.Document
	var uploadedAt sql.NullTime

	if err := row.Scan(
		&doc.ID,
		&doc.SubmissionID,
		&doc.Name,
		&doc.Required,
		&doc.Uploaded,
		&uploadedAt,
		&doc.CreatedAt,
	); err != nil {
		return nil, err
	}

	doc.UploadedAt = timePtr(uploadedAt)
	return &doc, nil
}
