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

// GradeRepository handles grade persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new instance of GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Create inserts a new grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grade.CreatedAt = now
	grade.UpdatedAt = now

	const query = `INSERT INTO grades (id, name, slug, created_at, updated_at) VALUES (:id, :name, :slug, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update renames a grade (and its derived slug).
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET name = :name, slug = :slug, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// List returns every grade.
func (r *GradeRepository) List(ctx context.Context) ([]models.Grade, error) {
	const query = `SELECT id, name, slug, created_at, updated_at FROM grades ORDER BY name ASC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListByIDs returns the grades matching the given ids.
func (r *GradeRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Grade, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, slug, created_at, updated_at FROM grades WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build grades in-query: %w", err)
	}
	query = r.db.Rebind(query)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades by ids: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade by identifier.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	const query = `SELECT id, name, slug, created_at, updated_at FROM grades WHERE id = $1 LIMIT 1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade by id: %w", err)
	}
	return &grade, nil
}

// FindBySlug returns a grade by its slug.
func (r *GradeRepository) FindBySlug(ctx context.Context, slug string) (*models.Grade, error) {
	const query = `SELECT id, name, slug, created_at, updated_at FROM grades WHERE slug = $1 LIMIT 1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade by slug: %w", err)
	}
	return &grade, nil
}

// CascadeAssets are the media identifiers orphaned by a grade delete.
// They are removed from the image store after the transaction commits.
type CascadeAssets struct {
	AvatarPublicIDs []string
	BannerPublicIDs []string
	ImagePublicIDs  []string
}

// DeleteCascade removes the grade and every dependent row in one
// transaction with a fixed leaves-first order: results, payments,
// orders, contents, notices, courses, users, then the grade itself.
func (r *GradeRepository) DeleteCascade(ctx context.Context, id string) (*CascadeAssets, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin grade cascade: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	assets := &CascadeAssets{}
	collect := func(dest *[]string, query string) error {
		var ids []string
		if err := tx.SelectContext(ctx, &ids, query, id); err != nil {
			return err
		}
		for _, v := range ids {
			if v != "" {
				*dest = append(*dest, v)
			}
		}
		return nil
	}

	if err := collect(&assets.AvatarPublicIDs, `SELECT avatar_public_id FROM users WHERE grade_id = $1 AND avatar_public_id <> ''`); err != nil {
		return nil, fmt.Errorf("collect avatar assets: %w", err)
	}
	if err := collect(&assets.BannerPublicIDs, `SELECT banner_public_id FROM courses WHERE grade_id = $1 AND banner_public_id <> ''`); err != nil {
		return nil, fmt.Errorf("collect banner assets: %w", err)
	}
	if err := collect(&assets.ImagePublicIDs, `SELECT image_public_id FROM notices WHERE grade_id = $1 AND image_public_id <> ''`); err != nil {
		return nil, fmt.Errorf("collect notice assets: %w", err)
	}

	steps := []struct {
		name  string
		query string
	}{
		{"results", `DELETE FROM results WHERE grade_id = $1`},
		{"payments", `DELETE FROM payments WHERE grade_id = $1`},
		{"orders", `DELETE FROM orders WHERE buyer_id IN (SELECT id FROM users WHERE grade_id = $1) OR course_id IN (SELECT id FROM courses WHERE grade_id = $1)`},
		{"contents", `DELETE FROM contents WHERE grade_id = $1`},
		{"notices", `DELETE FROM notices WHERE grade_id = $1`},
		{"courses", `DELETE FROM courses WHERE grade_id = $1`},
		{"users", `DELETE FROM users WHERE grade_id = $1`},
		{"grade", `DELETE FROM grades WHERE id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
			return nil, fmt.Errorf("cascade delete %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit grade cascade: %w", err)
	}
	return assets, nil
}
