package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"xrechnung-gateway/internal/invoice"
)

// Repository persists sessions in sqlite. The invoice document is stored as
// its JSON wire form.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository creates a session repository.
func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new session.
func (r *Repository) Create(ctx context.Context, s *Session) error {
	doc, err := json.Marshal(s.Document)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO sessions (
			id, pdf_filename, pdf_path, document,
			artifact_path, artifact_format, artifact_content_type
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.PDFFilename,
		s.PDFPath,
		string(doc),
		s.ArtifactPath,
		s.ArtifactFormat,
		s.ArtifactContentType,
	)
	if err != nil {
		r.logger.Error("Failed to create session", zap.Error(err))
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, pdf_filename, pdf_path, document,
			artifact_path, artifact_format, artifact_content_type,
			created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	var s Session
	var doc string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.PDFFilename,
		&s.PDFPath,
		&doc,
		&s.ArtifactPath,
		&s.ArtifactFormat,
		&s.ArtifactContentType,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get session", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal([]byte(doc), &s.Document); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &s, nil
}

// UpdateDocument replaces the stored invoice document.
func (r *Repository) UpdateDocument(ctx context.Context, id string, doc invoice.Document) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET document = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(encoded), id)
	if err != nil {
		r.logger.Error("Failed to update document", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update document: %w", err)
	}
	return requireRow(result)
}

// UpdateArtifact records the generated artifact for the session.
func (r *Repository) UpdateArtifact(ctx context.Context, id, path, format, contentType string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET artifact_path = ?, artifact_format = ?, artifact_content_type = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, path, format, contentType, id)
	if err != nil {
		r.logger.Error("Failed to update artifact", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update artifact: %w", err)
	}
	return requireRow(result)
}

// Delete removes a session.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete session", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
