package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
)

type contentRepository interface {
	Create(ctx context.Context, content *models.Content) error
	Update(ctx context.Context, content *models.Content) error
	List(ctx context.Context) ([]models.Content, error)
	ListByGradeID(ctx context.Context, gradeID string) ([]models.Content, error)
	FindByID(ctx context.Context, id string) (*models.Content, error)
	Delete(ctx context.Context, id string) error
}

type contentGradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Grade, error)
}

// ContentService manages grade-scoped study material links.
type ContentService struct {
	contents  contentRepository
	grades    contentGradeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContentService constructs a ContentService instance.
func NewContentService(contents contentRepository, grades contentGradeRepository, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ContentService{contents: contents, grades: grades, validator: validate, logger: logger}
}

// Create adds a study-material entry.
func (s *ContentService) Create(ctx context.Context, req models.ContentRequest) (*models.Content, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}

	grade, err := s.grades.FindByID(ctx, req.GradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	content := &models.Content{
		Subject: req.Subject,
		Remark:  req.Remark,
		Type:    req.Type,
		Link:    req.Link,
		GradeID: grade.ID,
	}
	if err := s.contents.Create(ctx, content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create content")
	}
	content.Grade = grade
	return content, nil
}

// Update rewrites a study-material entry.
func (s *ContentService) Update(ctx context.Context, id string, req models.ContentRequest) (*models.Content, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}

	content, err := s.contents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "content not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
	}

	grade, err := s.grades.FindByID(ctx, req.GradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	content.Subject = req.Subject
	content.Remark = req.Remark
	content.Type = req.Type
	content.Link = req.Link
	content.GradeID = grade.ID

	if err := s.contents.Update(ctx, content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update content")
	}
	content.Grade = grade
	return content, nil
}

// List returns every entry (admin view), with grades attached.
func (s *ContentService) List(ctx context.Context) ([]models.Content, error) {
	contents, err := s.contents.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contents")
	}

	gradeIDs := make([]string, 0, len(contents))
	seen := make(map[string]bool, len(contents))
	for _, c := range contents {
		if !seen[c.GradeID] {
			seen[c.GradeID] = true
			gradeIDs = append(gradeIDs, c.GradeID)
		}
	}
	grades, err := s.grades.ListByIDs(ctx, gradeIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	byID := make(map[string]*models.Grade, len(grades))
	for i := range grades {
		byID[grades[i].ID] = &grades[i]
	}
	for i := range contents {
		contents[i].Grade = byID[contents[i].GradeID]
	}
	return contents, nil
}

// ListForUser returns the entries of the caller's own grade. Students
// never see another grade's material.
func (s *ContentService) ListForUser(ctx context.Context, user *models.User) ([]models.Content, error) {
	contents, err := s.contents.ListByGradeID(ctx, user.GradeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contents")
	}
	return contents, nil
}

// Delete removes an entry.
func (s *ContentService) Delete(ctx context.Context, id string) error {
	if err := s.contents.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "content not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete content")
	}
	return nil
}
