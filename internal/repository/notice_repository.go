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

const noticeColumns = `id, title, body, image, image_public_id, grade_id, created_at, updated_at`

// NoticeRepository handles announcement persistence.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository creates a new instance of NoticeRepository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// Create inserts a new notice.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	notice.CreatedAt = now
	notice.UpdatedAt = now

	const query = `INSERT INTO notices (id, title, body, image, image_public_id, grade_id, created_at, updated_at)
		VALUES (:id, :title, :body, :image, :image_public_id, :grade_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields.
func (r *NoticeRepository) Update(ctx context.Context, notice *models.Notice) error {
	notice.UpdatedAt = time.Now().UTC()
	const query = `UPDATE notices SET title = :title, body = :body, image = :image, image_public_id = :image_public_id, grade_id = :grade_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("update notice: %w", err)
	}
	return nil
}

// List returns every notice, most recently updated first.
func (r *NoticeRepository) List(ctx context.Context) ([]models.Notice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notices ORDER BY updated_at DESC`, noticeColumns)
	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, query); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// ListForGrade returns the notices visible to a grade's students: the
// grade's own notices plus broadcasts, most recently updated first.
func (r *NoticeRepository) ListForGrade(ctx context.Context, gradeID string) ([]models.Notice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notices WHERE grade_id = $1 OR grade_id IS NULL ORDER BY updated_at DESC`, noticeColumns)
	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, query, gradeID); err != nil {
		return nil, fmt.Errorf("list notices for grade: %w", err)
	}
	return notices, nil
}

// FindByID returns a notice by identifier.
func (r *NoticeRepository) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notices WHERE id = $1 LIMIT 1`, noticeColumns)
	var notice models.Notice
	if err := r.db.GetContext(ctx, &notice, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notice by id: %w", err)
	}
	return &notice, nil
}

// Delete removes a notice.
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return requireRowAffected(res)
}
