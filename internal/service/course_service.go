package service

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/media"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	List(ctx context.Context) ([]models.Course, error)
	ListByGradeID(ctx context.Context, gradeID string) ([]models.Course, error)
	ListRelated(ctx context.Context, gradeID, excludeCourseID string) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindBySlug(ctx context.Context, slug string) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

type courseGradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	FindBySlug(ctx context.Context, slug string) (*models.Grade, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Grade, error)
}

// CourseService manages the purchasable catalog.
type CourseService struct {
	courses   courseRepository
	grades    courseGradeRepository
	store     media.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses courseRepository, grades courseGradeRepository, store media.Store, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{courses: courses, grades: grades, store: store, validator: validate, logger: logger}
}

// Create adds a course. The banner image is required at creation.
func (s *CourseService) Create(ctx context.Context, input models.CourseInput, banner io.Reader) (*models.Course, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if banner == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "banner image is required")
	}

	grade, err := s.grades.FindByID(ctx, input.GradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	asset, err := s.store.Upload(ctx, banner, "courses")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to upload banner")
	}

	course := &models.Course{
		Title:          input.Title,
		Slug:           slugify(input.Title),
		GradeID:        grade.ID,
		Price:          input.Price,
		DateRange:      input.DateRange,
		Description:    input.Description,
		Status:         input.Status,
		Banner:         asset.URL,
		BannerPublicID: asset.PublicID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if delErr := s.store.Delete(ctx, asset.PublicID); delErr != nil {
			s.logger.Warn("failed to delete orphaned banner", zap.String("public_id", asset.PublicID), zap.Error(delErr))
		}
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course title already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	course.Grade = grade
	return course, nil
}

// Update rewrites a course; a nil banner keeps the current image.
func (s *CourseService) Update(ctx context.Context, id string, input models.CourseInput, banner io.Reader) (*models.Course, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	grade, err := s.grades.FindByID(ctx, input.GradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	oldBannerID := ""
	if banner != nil {
		asset, err := s.store.Upload(ctx, banner, "courses")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to upload banner")
		}
		oldBannerID = course.BannerPublicID
		course.Banner = asset.URL
		course.BannerPublicID = asset.PublicID
	}

	course.Title = input.Title
	course.Slug = slugify(input.Title)
	course.GradeID = grade.ID
	course.Price = input.Price
	course.DateRange = input.DateRange
	course.Description = input.Description
	course.Status = input.Status

	if err := s.courses.Update(ctx, course); err != nil {
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course title already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	if oldBannerID != "" {
		if err := s.store.Delete(ctx, oldBannerID); err != nil {
			s.logger.Warn("failed to delete replaced banner", zap.String("public_id", oldBannerID), zap.Error(err))
		}
	}

	course.Grade = grade
	return course, nil
}

// List returns the whole catalog, newest first, with grades attached.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if err := s.attachGrades(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// ListByGradeSlug returns a grade's catalog, addressed by grade slug.
func (s *CourseService) ListByGradeSlug(ctx context.Context, slug string) ([]models.Course, error) {
	grade, err := s.grades.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	courses, err := s.courses.ListByGradeID(ctx, grade.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	for i := range courses {
		courses[i].Grade = grade
	}
	return courses, nil
}

// FindBySlug returns one course by its slug, with its grade attached.
func (s *CourseService) FindBySlug(ctx context.Context, slug string) (*models.Course, error) {
	course, err := s.courses.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if grade, err := s.grades.FindByID(ctx, course.GradeID); err == nil {
		course.Grade = grade
	}
	return course, nil
}

// Related returns a grade's other courses, excluding the one on screen.
func (s *CourseService) Related(ctx context.Context, courseID, gradeID string) ([]models.Course, error) {
	courses, err := s.courses.ListRelated(ctx, gradeID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list related courses")
	}
	if err := s.attachGrades(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Delete removes a course, its orders and its banner image.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	if course.BannerPublicID != "" {
		if err := s.store.Delete(ctx, course.BannerPublicID); err != nil {
			s.logger.Warn("failed to delete banner", zap.String("public_id", course.BannerPublicID), zap.Error(err))
		}
	}
	return nil
}

func (s *CourseService) attachGrades(ctx context.Context, courses []models.Course) error {
	gradeIDs := make([]string, 0, len(courses))
	seen := make(map[string]bool, len(courses))
	for _, c := range courses {
		if !seen[c.GradeID] {
			seen[c.GradeID] = true
			gradeIDs = append(gradeIDs, c.GradeID)
		}
	}
	grades, err := s.grades.ListByIDs(ctx, gradeIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	byID := make(map[string]*models.Grade, len(grades))
	for i := range grades {
		byID[grades[i].ID] = &grades[i]
	}
	for i := range courses {
		courses[i].Grade = byID[courses[i].GradeID]
	}
	return nil
}
