package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clab/student-portal-api/internal/models"
)

const contentColumns = `id, subject, remark, type, link, grade_id, created_at, updated_at`

// ContentRepository handles study-material persistence.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new instance of ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Create inserts a new content entry.
func (r *ContentRepository) Create(ctx context.Context, content *models.Content) error {
	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	content.CreatedAt = now
	content.UpdatedAt = now

	const query = `INSERT INTO contents (id, subject, remark, type, link, grade_id, created_at, updated_at)
		VALUES (:id, :subject, :remark, :type, :link, :grade_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, content); err != nil {
		return fmt.Errorf("create content: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields.
func (r *ContentRepository) Update(ctx context.Context, content *models.Content) error {
	content.UpdatedAt = time.Now().UTC()
	const query = `UPDATE contents SET subject = :subject, remark = :remark, type = :type, link = :link, grade_id = :grade_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, content); err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	return nil
}

// List returns every content entry, newest first.
func (r *ContentRepository) List(ctx context.Context) ([]models.Content, error) {
	query := fmt.Sprintf(`SELECT %s FROM contents ORDER BY created_at DESC`, contentColumns)
	var contents []models.Content
	if err := r.db.SelectContext(ctx, &contents, query); err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	return contents, nil
}

// ListByGradeID returns a grade's content, newest first.
func (r *ContentRepository) ListByGradeID(ctx context.Context, gradeID string) ([]models.Content, error) {
	query := fmt.Sprintf(`SELECT %s FROM contents WHERE grade_id = $1 ORDER BY created_at DESC`, contentColumns)
	var contents []models.Content
	if err := r.db.SelectContext(ctx, &contents, query, gradeID); err != nil {
		return nil, fmt.Errorf("list contents by grade: %w", err)
	}
	return contents, nil
}

// FindByID returns a content entry by identifier.
func (r *ContentRepository) FindByID(ctx context.Context, id string) (*models.Content, error) {
	query := fmt.Sprintf(`SELECT %s FROM contents WHERE id = $1 LIMIT 1`, contentColumns)
	var content models.Content
	if err := r.db.GetContext(ctx, &content, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find content by id: %w", err)
	}
	return &content, nil
}

// Delete removes a content entry.
func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return requireRowAffected(res)
}
