package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/mail"
	"github.com/clab/student-portal-api/pkg/media"
)

type mockUserRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	created      []*models.User
	createErr    error
	phoneInUse   bool
	updated      *models.User
	updateErr    error
	newPassword  string
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "u-new"
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return u, nil
	}
	for _, u := range m.usersByEmail {
		if u.Phone == phone && phone != "" {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) PhoneInUse(ctx context.Context, phone, excludeUserID string) (bool, error) {
	return m.phoneInUse, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.newPassword = passwordHash
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = user
	return nil
}

type mockOTPRepo struct {
	otps      []*models.OTP
	createErr error
	deleted   bool
}

func (m *mockOTPRepo) Create(ctx context.Context, otp *models.OTP) error {
	if m.createErr != nil {
		return m.createErr
	}
	otp.ID = "otp-new"
	m.otps = append(m.otps, otp)
	return nil
}

func (m *mockOTPRepo) FindActive(ctx context.Context, email string, purpose models.OTPPurpose, now time.Time) (*models.OTP, error) {
	for i := len(m.otps) - 1; i >= 0; i-- {
		otp := m.otps[i]
		if otp.Email == email && otp.Purpose == purpose && now.Before(otp.ExpiresAt) {
			return otp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockOTPRepo) FindLatestByEmail(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTP, error) {
	for i := len(m.otps) - 1; i >= 0; i-- {
		otp := m.otps[i]
		if otp.Email == email && otp.Purpose == purpose {
			return otp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockOTPRepo) DeleteByEmail(ctx context.Context, email string, purpose models.OTPPurpose) error {
	m.deleted = true
	kept := m.otps[:0]
	for _, otp := range m.otps {
		if otp.Email != email || otp.Purpose != purpose {
			kept = append(kept, otp)
		}
	}
	m.otps = kept
	return nil
}

type mockGradeFinder struct {
	grades map[string]*models.Grade
}

func (m *mockGradeFinder) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

type mockMediaStore struct {
	uploads   int
	deleted   []string
	uploadErr error
}

func (m *mockMediaStore) Upload(ctx context.Context, r io.Reader, folder string) (media.Asset, error) {
	if m.uploadErr != nil {
		return media.Asset{}, m.uploadErr
	}
	m.uploads++
	return media.Asset{URL: "http://img/" + folder + "/new", PublicID: folder + "/new"}, nil
}

func (m *mockMediaStore) Delete(ctx context.Context, publicID string) error {
	m.deleted = append(m.deleted, publicID)
	return nil
}

func newAuthFixture() (*AuthService, *mockUserRepo, *mockOTPRepo, *mail.ConsoleMailer, *mockMediaStore) {
	users := &mockUserRepo{usersByEmail: map[string]*models.User{}, usersByID: map[string]*models.User{}}
	otps := &mockOTPRepo{}
	grades := &mockGradeFinder{grades: map[string]*models.Grade{
		"g1": {ID: "g1", Name: "Class Ten", Slug: "class-ten"},
	}}
	mailer := mail.NewConsoleMailer(nil)
	store := &mockMediaStore{}
	svc := NewAuthService(users, otps, grades, mailer, store, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret:   "secret",
		TokenExpiry:   24 * time.Hour,
		OTPTTL:        5 * time.Minute,
		OTPTemplateID: "d-otp",
	})
	return svc, users, otps, mailer, store
}

func TestRequestOTPCreatesAndMails(t *testing.T) {
	svc, _, otps, mailer, _ := newAuthFixture()

	created, err := svc.RequestOTP(context.Background(), models.RequestOTPRequest{Name: "Rahim", Email: "rahim@example.com"})
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, otps.otps, 1)
	assert.Len(t, otps.otps[0].Code, 6)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "rahim@example.com", sent[0].ToEmail)
	assert.Equal(t, "d-otp", sent[0].TemplateID)
	assert.Equal(t, otps.otps[0].Code, sent[0].Data["otp"])
}

func TestRequestOTPEmailAlreadyRegistered(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	users.usersByEmail["rahim@example.com"] = &models.User{ID: "u1", Email: "rahim@example.com"}

	_, err := svc.RequestOTP(context.Background(), models.RequestOTPRequest{Name: "Rahim", Email: "rahim@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRequestOTPRepeatWhileActive(t *testing.T) {
	svc, _, otps, mailer, _ := newAuthFixture()

	created, err := svc.RequestOTP(context.Background(), models.RequestOTPRequest{Name: "Rahim", Email: "rahim@example.com"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = svc.RequestOTP(context.Background(), models.RequestOTPRequest{Name: "Rahim", Email: "rahim@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, otps.otps, 1)
	assert.Len(t, mailer.Sent(), 1)
}

func TestRegisterWithoutRequestedOTP(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Rahim", Email: "rahim@example.com", OTP: "123456",
		Phone: "01700000000", Password: "secret1", Answer: "dhaka", GradeID: "g1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegisterWrongCode(t *testing.T) {
	svc, _, otps, _, _ := newAuthFixture()
	otps.otps = append(otps.otps, &models.OTP{
		Email: "rahim@example.com", Code: "111111",
		Purpose: models.OTPPurposeRegistration, ExpiresAt: time.Now().Add(time.Minute),
	})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Rahim", Email: "rahim@example.com", OTP: "222222",
		Phone: "01700000000", Password: "secret1", Answer: "dhaka", GradeID: "g1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidOTP.Code, appErrors.FromError(err).Code)
}

func TestRegisterExpiredCode(t *testing.T) {
	svc, _, otps, _, _ := newAuthFixture()
	otps.otps = append(otps.otps, &models.OTP{
		Email: "rahim@example.com", Code: "111111",
		Purpose: models.OTPPurposeRegistration, ExpiresAt: time.Now().Add(-time.Minute),
	})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Rahim", Email: "rahim@example.com", OTP: "111111",
		Phone: "01700000000", Password: "secret1", Answer: "dhaka", GradeID: "g1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPExpired.Code, appErrors.FromError(err).Code)
}

// A code is dead the instant its window closes: ExpiresAt equal to the
// clock reading counts as expired, not as the last valid moment.
func TestRegisterCodeExpiringNow(t *testing.T) {
	svc, _, otps, _, _ := newAuthFixture()
	deadline := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return deadline }
	otps.otps = append(otps.otps, &models.OTP{
		Email: "rahim@example.com", Code: "111111",
		Purpose: models.OTPPurposeRegistration, ExpiresAt: deadline,
	})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Rahim", Email: "rahim@example.com", OTP: "111111",
		Phone: "01700000000", Password: "secret1", Answer: "dhaka", GradeID: "g1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPExpired.Code, appErrors.FromError(err).Code)
}

func TestRegisterSuccess(t *testing.T) {
	svc, users, otps, _, _ := newAuthFixture()
	otps.otps = append(otps.otps, &models.OTP{
		Email: "rahim@example.com", Code: "111111",
		Purpose: models.OTPPurposeRegistration, ExpiresAt: time.Now().Add(time.Minute),
	})

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Rahim", Email: "rahim@example.com", OTP: "111111",
		Phone: "01700000000", Password: "secret1", Answer: "dhaka", GradeID: "g1",
	})
	require.NoError(t, err)
	require.Len(t, users.created, 1)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, models.StatusEnabled, user.Status)
	assert.Equal(t, models.DefaultAvatarURL, user.Avatar)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	assert.True(t, otps.deleted)
	assert.Empty(t, otps.otps)
	require.NotNil(t, user.Grade)
	assert.Equal(t, "Class Ten", user.Grade.Name)
}

func TestLoginSuccessAndValidateToken(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	users.usersByEmail["rahim@example.com"] = &models.User{
		ID: "u1", Email: "rahim@example.com", PasswordHash: string(hash),
		GradeID: "g1", Role: models.RoleStudent, Status: models.StatusEnabled,
	}

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "rahim@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User.Grade)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	users.usersByEmail["rahim@example.com"] = &models.User{
		ID: "u1", Email: "rahim@example.com", PasswordHash: string(hash), Status: models.StatusDisabled,
	}

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "rahim@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountDisabled.Code, appErrors.FromError(err).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	users.usersByEmail["rahim@example.com"] = &models.User{
		ID: "u1", Email: "rahim@example.com", PasswordHash: string(hash), Status: models.StatusEnabled,
	}

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "rahim@example.com", Password: "nope99"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestUpdateProfileRequiresCurrentPassword(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	users.usersByID["u1"] = &models.User{
		ID: "u1", Phone: "01700000000", PasswordHash: string(hash), Status: models.StatusEnabled,
	}

	_, err := svc.UpdateProfile(context.Background(), "u1", models.UpdateProfileInput{
		Name: "Rahim", Phone: "01700000000", Answer: "dhaka", OldPassword: "wrong1",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Nil(t, users.updated)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.usersByID["u1"].PasswordHash), []byte("secret1")))
}

func TestUpdateProfileReplacesAvatar(t *testing.T) {
	svc, users, _, _, store := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	users.usersByID["u1"] = &models.User{
		ID: "u1", Phone: "01700000000", PasswordHash: string(hash),
		Status: models.StatusEnabled, AvatarPublicID: "avatars/old",
	}

	user, err := svc.UpdateProfile(context.Background(), "u1", models.UpdateProfileInput{
		Name: "Rahim", Phone: "01700000000", Answer: "dhaka", OldPassword: "secret1",
	}, strings.NewReader("img-bytes"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.uploads)
	assert.Equal(t, []string{"avatars/old"}, store.deleted)
	assert.Equal(t, "avatars/new", user.AvatarPublicID)
	require.NotNil(t, users.updated)
}

func TestUpdateProfileWriteFailureDeletesNewAvatar(t *testing.T) {
	svc, users, _, _, store := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	users.usersByID["u1"] = &models.User{
		ID: "u1", Phone: "01700000000", PasswordHash: string(hash),
		Status: models.StatusEnabled, AvatarPublicID: "avatars/old",
	}
	users.updateErr = errors.New("write failed")

	_, err := svc.UpdateProfile(context.Background(), "u1", models.UpdateProfileInput{
		Name: "Rahim", Phone: "01700000000", Answer: "dhaka", OldPassword: "secret1",
	}, strings.NewReader("img-bytes"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	// The upload that never made it into the row gets removed; the
	// avatar still referenced by the stored record stays.
	assert.Equal(t, []string{"avatars/new"}, store.deleted)
}

func TestUpdateProfileChangesPassword(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	users.usersByID["u1"] = &models.User{
		ID: "u1", Phone: "01700000000", PasswordHash: string(hash), Status: models.StatusEnabled,
	}

	user, err := svc.UpdateProfile(context.Background(), "u1", models.UpdateProfileInput{
		Name: "Rahim", Phone: "01700000000", Answer: "dhaka",
		Password: "newpass1", OldPassword: "secret1",
	}, nil)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpass1")))
}

func TestResetPasswordFlow(t *testing.T) {
	svc, users, otps, mailer, _ := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	users.usersByEmail["rahim@example.com"] = &models.User{
		ID: "u1", Name: "Rahim", Email: "rahim@example.com",
		PasswordHash: string(hash), Status: models.StatusEnabled,
	}

	err := svc.ForgotPasswordOTP(context.Background(), models.ForgotPasswordOTPRequest{Email: "rahim@example.com"})
	require.NoError(t, err)
	require.Len(t, mailer.Sent(), 1)
	require.Len(t, otps.otps, 1)
	code := otps.otps[0].Code

	err = svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Email: "rahim@example.com", OTP: code, NewPassword: "newpass1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, users.newPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.newPassword), []byte("newpass1")))
	assert.Empty(t, otps.otps)
}

func TestGenerateOTPCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateOTPCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
	}
}
