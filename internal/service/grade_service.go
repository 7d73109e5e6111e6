package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/repository"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/media"
)

type gradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	List(ctx context.Context) ([]models.Grade, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	FindBySlug(ctx context.Context, slug string) (*models.Grade, error)
	DeleteCascade(ctx context.Context, id string) (*repository.CascadeAssets, error)
}

// GradeService manages the class groupings everything else hangs off.
type GradeService struct {
	grades    gradeRepository
	store     media.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService instance.
func NewGradeService(grades gradeRepository, store media.Store, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GradeService{grades: grades, store: store, validator: validate, logger: logger}
}

// Create adds a grade; the slug derives from the name.
func (s *GradeService) Create(ctx context.Context, req models.CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade := &models.Grade{Name: req.Name, Slug: slugify(req.Name)}
	if err := s.grades.Create(ctx, grade); err != nil {
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "grade already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	return grade, nil
}

// Update renames a grade; the slug follows the new name.
func (s *GradeService) Update(ctx context.Context, id string, req models.CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	grade.Name = req.Name
	grade.Slug = slugify(req.Name)
	if err := s.grades.Update(ctx, grade); err != nil {
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "grade already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return grade, nil
}

// List returns every grade.
func (s *GradeService) List(ctx context.Context) ([]models.Grade, error) {
	grades, err := s.grades.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// FindBySlug returns one grade by its slug.
func (s *GradeService) FindBySlug(ctx context.Context, slug string) (*models.Grade, error) {
	grade, err := s.grades.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return grade, nil
}

// Delete removes a grade and everything scoped to it: users, courses,
// contents, notices, orders, payments and results. Orphaned images are
// cleaned up best-effort after the database commit.
func (s *GradeService) Delete(ctx context.Context, id string) error {
	if _, err := s.grades.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	assets, err := s.grades.DeleteCascade(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}

	var publicIDs []string
	publicIDs = append(publicIDs, assets.AvatarPublicIDs...)
	publicIDs = append(publicIDs, assets.BannerPublicIDs...)
	publicIDs = append(publicIDs, assets.ImagePublicIDs...)
	for _, publicID := range publicIDs {
		if err := s.store.Delete(ctx, publicID); err != nil {
			s.logger.Warn("failed to delete orphaned image", zap.String("public_id", publicID), zap.Error(err))
		}
	}
	return nil
}
