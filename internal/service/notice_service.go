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

type noticeRepository interface {
	Create(ctx context.Context, notice *models.Notice) error
	Update(ctx context.Context, notice *models.Notice) error
	List(ctx context.Context) ([]models.Notice, error)
	ListForGrade(ctx context.Context, gradeID string) ([]models.Notice, error)
	FindByID(ctx context.Context, id string) (*models.Notice, error)
	Delete(ctx context.Context, id string) error
}

type noticeGradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Grade, error)
}

// NoticeService manages announcements, scoped or broadcast.
type NoticeService struct {
	notices   noticeRepository
	grades    noticeGradeRepository
	store     media.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService constructs a NoticeService instance.
func NewNoticeService(notices noticeRepository, grades noticeGradeRepository, store media.Store, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &NoticeService{notices: notices, grades: grades, store: store, validator: validate, logger: logger}
}

// Create publishes a notice; a nil image means text-only.
func (s *NoticeService) Create(ctx context.Context, input models.NoticeInput, image io.Reader) (*models.Notice, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	gradeID, grade, err := s.resolveGrade(ctx, input.GradeID)
	if err != nil {
		return nil, err
	}

	notice := &models.Notice{
		Title:   input.Title,
		Body:    input.Body,
		GradeID: gradeID,
	}
	if image != nil {
		asset, err := s.store.Upload(ctx, image, "notices")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to upload notice image")
		}
		notice.Image = asset.URL
		notice.ImagePublicID = asset.PublicID
	}

	if err := s.notices.Create(ctx, notice); err != nil {
		if notice.ImagePublicID != "" {
			if delErr := s.store.Delete(ctx, notice.ImagePublicID); delErr != nil {
				s.logger.Warn("failed to delete orphaned notice image", zap.String("public_id", notice.ImagePublicID), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}
	notice.Grade = grade
	return notice, nil
}

// Update rewrites a notice; a nil image keeps the current one.
func (s *NoticeService) Update(ctx context.Context, id string, input models.NoticeInput, image io.Reader) (*models.Notice, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	notice, err := s.notices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}

	gradeID, grade, err := s.resolveGrade(ctx, input.GradeID)
	if err != nil {
		return nil, err
	}

	oldImageID := ""
	if image != nil {
		asset, err := s.store.Upload(ctx, image, "notices")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to upload notice image")
		}
		oldImageID = notice.ImagePublicID
		notice.Image = asset.URL
		notice.ImagePublicID = asset.PublicID
	}

	notice.Title = input.Title
	notice.Body = input.Body
	notice.GradeID = gradeID

	if err := s.notices.Update(ctx, notice); err != nil {
		if image != nil {
			if delErr := s.store.Delete(ctx, notice.ImagePublicID); delErr != nil {
				s.logger.Warn("failed to delete orphaned notice image", zap.String("public_id", notice.ImagePublicID), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}

	if oldImageID != "" {
		if err := s.store.Delete(ctx, oldImageID); err != nil {
			s.logger.Warn("failed to delete replaced notice image", zap.String("public_id", oldImageID), zap.Error(err))
		}
	}

	notice.Grade = grade
	return notice, nil
}

// List returns every notice (admin view), with grades attached.
func (s *NoticeService) List(ctx context.Context) ([]models.Notice, error) {
	notices, err := s.notices.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}

	gradeIDs := make([]string, 0, len(notices))
	seen := make(map[string]bool, len(notices))
	for _, n := range notices {
		if n.GradeID != nil && !seen[*n.GradeID] {
			seen[*n.GradeID] = true
			gradeIDs = append(gradeIDs, *n.GradeID)
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
	for i := range notices {
		if notices[i].GradeID != nil {
			notices[i].Grade = byID[*notices[i].GradeID]
		}
	}
	return notices, nil
}

// ListForUser returns the caller's grade notices plus broadcasts.
func (s *NoticeService) ListForUser(ctx context.Context, user *models.User) ([]models.Notice, error) {
	notices, err := s.notices.ListForGrade(ctx, user.GradeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, nil
}

// Delete removes a notice and its image.
func (s *NoticeService) Delete(ctx context.Context, id string) error {
	notice, err := s.notices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}

	if err := s.notices.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}

	if notice.ImagePublicID != "" {
		if err := s.store.Delete(ctx, notice.ImagePublicID); err != nil {
			s.logger.Warn("failed to delete notice image", zap.String("public_id", notice.ImagePublicID), zap.Error(err))
		}
	}
	return nil
}

// resolveGrade maps the raw multipart grade field to a nullable id.
// Empty or the literal "null" means broadcast.
func (s *NoticeService) resolveGrade(ctx context.Context, raw string) (*string, *models.Grade, error) {
	if raw == "" || raw == "null" {
		return nil, nil, nil
	}
	grade, err := s.grades.FindByID(ctx, raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return &grade.ID, grade, nil
}
