package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/media"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateGrade(ctx context.Context, id, gradeID string) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	DeleteCascade(ctx context.Context, id string) error
}

type userGradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Grade, error)
}

type userOTPRepository interface {
	ListByPurpose(ctx context.Context, purpose models.OTPPurpose) ([]models.OTP, error)
	DeleteByID(ctx context.Context, id string) error
}

// UserService provides the admin account management use cases.
type UserService struct {
	users     userRepository
	grades    userGradeRepository
	otps      userOTPRepository
	store     media.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users userRepository, grades userGradeRepository, otps userOTPRepository, store media.Store, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{users: users, grades: grades, otps: otps, store: store, validator: validate, logger: logger}
}

// List returns every account, newest first, with grades attached.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	gradeIDs := make([]string, 0, len(users))
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if u.GradeID != "" && !seen[u.GradeID] {
			seen[u.GradeID] = true
			gradeIDs = append(gradeIDs, u.GradeID)
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
	for i := range users {
		users[i].Grade = byID[users[i].GradeID]
	}
	return users, nil
}

// UpdateGrade reassigns a user's grade.
func (s *UserService) UpdateGrade(ctx context.Context, userID string, req models.UpdateGradeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	if _, err := s.grades.FindByID(ctx, req.GradeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	if err := s.users.UpdateGrade(ctx, userID, req.GradeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user grade")
	}
	return nil
}

// UpdateStatus enables or disables an account.
func (s *UserService) UpdateStatus(ctx context.Context, userID string, req models.UpdateStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	if err := s.users.UpdateStatus(ctx, userID, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user status")
	}
	return nil
}

// Delete removes an account and all its payments, results and orders.
// Administrator accounts cannot be deleted.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role == models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be deleted")
	}

	if err := s.users.DeleteCascade(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	if user.AvatarPublicID != "" {
		if err := s.store.Delete(ctx, user.AvatarPublicID); err != nil {
			s.logger.Warn("failed to delete avatar", zap.String("public_id", user.AvatarPublicID), zap.Error(err))
		}
	}
	return nil
}

// ListFailedRegistrations returns pending registration codes, newest
// first. These are sign-up attempts that never completed.
func (s *UserService) ListFailedRegistrations(ctx context.Context) ([]models.OTP, error) {
	otps, err := s.otps.ListByPurpose(ctx, models.OTPPurposeRegistration)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending registrations")
	}
	return otps, nil
}

// DeleteFailedRegistration discards one pending registration code.
func (s *UserService) DeleteFailedRegistration(ctx context.Context, id string) error {
	if err := s.otps.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pending registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete pending registration")
	}
	return nil
}
