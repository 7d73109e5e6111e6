package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
)

type mockAdminUserRepo struct {
	users     map[string]*models.User
	cascaded  []string
	gradeSet  string
	statusSet models.UserStatus
}

func (m *mockAdminUserRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockAdminUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminUserRepo) UpdateGrade(ctx context.Context, id, gradeID string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	m.gradeSet = gradeID
	return nil
}

func (m *mockAdminUserRepo) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	m.statusSet = status
	return nil
}

func (m *mockAdminUserRepo) DeleteCascade(ctx context.Context, id string) error {
	m.cascaded = append(m.cascaded, id)
	delete(m.users, id)
	return nil
}

type mockAdminOTPRepo struct {
	otps    []models.OTP
	deleted []string
}

func (m *mockAdminOTPRepo) ListByPurpose(ctx context.Context, purpose models.OTPPurpose) ([]models.OTP, error) {
	var out []models.OTP
	for _, otp := range m.otps {
		if otp.Purpose == purpose {
			out = append(out, otp)
		}
	}
	return out, nil
}

func (m *mockAdminOTPRepo) DeleteByID(ctx context.Context, id string) error {
	for i, otp := range m.otps {
		if otp.ID == id {
			m.otps = append(m.otps[:i], m.otps[i+1:]...)
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func newUserFixture(users *mockAdminUserRepo, otps *mockAdminOTPRepo, store *mockMediaStore) *UserService {
	grades := &mockPaymentGrades{grades: map[string]*models.Grade{
		"g1": {ID: "g1", Name: "Class Ten"},
		"g2": {ID: "g2", Name: "Class Nine"},
	}}
	return NewUserService(users, grades, otps, store, validator.New(), zap.NewNop())
}

func TestUserListAttachesGrades(t *testing.T) {
	users := &mockAdminUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Rahim", GradeID: "g1", Role: models.RoleStudent},
	}}
	svc := newUserFixture(users, &mockAdminOTPRepo{}, &mockMediaStore{})

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Grade)
	assert.Equal(t, "Class Ten", out[0].Grade.Name)
}

func TestUserUpdateGradeUnknownGrade(t *testing.T) {
	users := &mockAdminUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", GradeID: "g1"},
	}}
	svc := newUserFixture(users, &mockAdminOTPRepo{}, &mockMediaStore{})

	err := svc.UpdateGrade(context.Background(), "u1", models.UpdateGradeRequest{GradeID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.gradeSet)
}

func TestUserUpdateGrade(t *testing.T) {
	users := &mockAdminUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", GradeID: "g1"},
	}}
	svc := newUserFixture(users, &mockAdminOTPRepo{}, &mockMediaStore{})

	err := svc.UpdateGrade(context.Background(), "u1", models.UpdateGradeRequest{GradeID: "g2"})
	require.NoError(t, err)
	assert.Equal(t, "g2", users.gradeSet)
}

func TestUserUpdateStatusDisables(t *testing.T) {
	users := &mockAdminUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Status: models.StatusEnabled},
	}}
	svc := newUserFixture(users, &mockAdminOTPRepo{}, &mockMediaStore{})

	err := svc.UpdateStatus(context.Background(), "u1", models.UpdateStatusRequest{Status: models.StatusDisabled})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisabled, users.statusSet)
}

func TestUserDeleteRefusesAdmin(t *testing.T) {
	users := &mockAdminUserRepo{users: map[string]*models.User{
		"a1": {ID: "a1", Role: models.RoleAdmin},
	}}
	svc := newUserFixture(users, &mockAdminOTPRepo{}, &mockMediaStore{})

	err := svc.Delete(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.cascaded)
}

func TestUserDeleteCascadesAndCleansAvatar(t *testing.T) {
	users := &mockAdminUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleStudent, AvatarPublicID: "avatars/u1"},
	}}
	store := &mockMediaStore{}
	svc := newUserFixture(users, &mockAdminOTPRepo{}, store)

	err := svc.Delete(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users.cascaded)
	assert.Equal(t, []string{"avatars/u1"}, store.deleted)
}

func TestFailedRegistrations(t *testing.T) {
	otps := &mockAdminOTPRepo{otps: []models.OTP{
		{ID: "o1", Email: "a@example.com", Purpose: models.OTPPurposeRegistration},
		{ID: "o2", Email: "b@example.com", Purpose: models.OTPPurposePasswordReset},
	}}
	svc := newUserFixture(&mockAdminUserRepo{}, otps, &mockMediaStore{})

	pending, err := svc.ListFailedRegistrations(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a@example.com", pending[0].Email)

	require.NoError(t, svc.DeleteFailedRegistration(context.Background(), "o1"))
	err = svc.DeleteFailedRegistration(context.Background(), "o1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
