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

const resultColumns = `id, exam_type, subjects, exam_date, user_id, grade_id, created_at, updated_at`

// ResultRepository handles exam result persistence.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new instance of ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create inserts a new result sheet.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now

	const query = `INSERT INTO results (id, exam_type, subjects, exam_date, user_id, grade_id, created_at, updated_at)
		VALUES (:id, :exam_type, :subjects, :exam_date, :user_id, :grade_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields; user and grade are fixed at create.
func (r *ResultRepository) Update(ctx context.Context, result *models.Result) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE results SET exam_type = :exam_type, subjects = :subjects, exam_date = :exam_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	return nil
}

// List returns every result sheet, newest first.
func (r *ResultRepository) List(ctx context.Context) ([]models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results ORDER BY created_at DESC`, resultColumns)
	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// ListByUser returns one student's result sheets, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID string) ([]models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results WHERE user_id = $1 ORDER BY created_at DESC`, resultColumns)
	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query, userID); err != nil {
		return nil, fmt.Errorf("list results by user: %w", err)
	}
	return results, nil
}

// FindByID returns a result sheet by identifier.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results WHERE id = $1 LIMIT 1`, resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find result by id: %w", err)
	}
	return &result, nil
}

// Delete removes a result sheet.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return requireRowAffected(res)
}
