package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clab/student-portal-api/internal/models"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/mail"
	"github.com/clab/student-portal-api/pkg/media"
)

type authUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error)
	PhoneInUse(ctx context.Context, phone, excludeUserID string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

type authOTPRepository interface {
	Create(ctx context.Context, otp *models.OTP) error
	FindActive(ctx context.Context, email string, purpose models.OTPPurpose, now time.Time) (*models.OTP, error)
	FindLatestByEmail(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTP, error)
	DeleteByEmail(ctx context.Context, email string, purpose models.OTPPurpose) error
}

type authGradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
}

// AuthConfig defines configuration for registration and session flows.
type AuthConfig struct {
	TokenSecret        string
	TokenExpiry        time.Duration
	OTPTTL             time.Duration
	OTPTemplateID      string
	ResetOTPTemplateID string
	WelcomeTemplateID  string
}

// AuthService provides registration, session and profile use cases.
type AuthService struct {
	users     authUserRepository
	otps      authOTPRepository
	grades    authGradeRepository
	mailer    mail.Mailer
	store     media.Store
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig

	now func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, otps authOTPRepository, grades authGradeRepository, mailer mail.Mailer, store media.Store, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:     users,
		otps:      otps,
		grades:    grades,
		mailer:    mailer,
		store:     store,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequestOTP emails a registration code. The account is only created
// once the code is echoed back via Register. A repeat request while a
// code is still live does not issue a new one: it returns created=false
// so the caller can say "already sent".
func (s *AuthService) RequestOTP(ctx context.Context, req models.RequestOTPRequest) (created bool, err error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid otp request payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return false, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	now := s.now()
	if _, err := s.otps.FindActive(ctx, req.Email, models.OTPPurposeRegistration, now); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending otp")
	}

	code, err := generateOTPCode()
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate otp")
	}

	otp := &models.OTP{
		Name:      req.Name,
		Email:     req.Email,
		Code:      code,
		Purpose:   models.OTPPurposeRegistration,
		ExpiresAt: now.Add(s.config.OTPTTL),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store otp")
	}

	if err := s.mailer.Send(ctx, mail.Message{
		ToName:     req.Name,
		ToEmail:    req.Email,
		TemplateID: s.config.OTPTemplateID,
		Data: map[string]interface{}{
			"name": req.Name,
			"otp":  code,
		},
	}); err != nil {
		s.logger.Error("failed to send otp email", zap.String("email", req.Email), zap.Error(err))
		return false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to send otp email")
	}

	return true, nil
}

// Register creates the account once the emailed code checks out.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	otp, err := s.otps.FindLatestByEmail(ctx, req.Email, models.OTPPurposeRegistration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrOTPNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify otp")
	}
	if otp.Code != req.OTP {
		return nil, appErrors.ErrInvalidOTP
	}
	if otp.Expired(s.now()) {
		return nil, appErrors.ErrOTPExpired
	}

	grade, err := s.grades.FindByID(ctx, req.GradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Answer:       req.Answer,
		Avatar:       models.DefaultAvatarURL,
		GradeID:      grade.ID,
		Role:         models.RoleStudent,
		Status:       models.StatusEnabled,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email or phone is already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	user.Grade = grade

	if err := s.otps.DeleteByEmail(ctx, req.Email, models.OTPPurposeRegistration); err != nil {
		s.logger.Warn("failed to delete consumed otp", zap.String("email", req.Email), zap.Error(err))
	}

	if s.config.WelcomeTemplateID != "" {
		// Delivery failure must not fail the registration.
		go func(name, email string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.mailer.Send(ctx, mail.Message{
				ToName:     name,
				ToEmail:    email,
				TemplateID: s.config.WelcomeTemplateID,
				Data:       map[string]interface{}{"name": name},
			}); err != nil {
				s.logger.Warn("failed to send welcome email", zap.String("email", email), zap.Error(err))
			}
		}(user.Name, user.Email)
	}

	return user, nil
}

// Login authenticates by email or phone and returns a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmailOrPhone(ctx, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email, phone or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if user.Disabled() {
		return nil, appErrors.ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email, phone or password")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}

	s.attachGrade(ctx, user)

	return &models.LoginResponse{Token: token, User: user.PublicInfo()}, nil
}

// ForgotPasswordOTP emails a password reset code.
func (s *AuthService) ForgotPasswordOTP(ctx context.Context, req models.ForgotPasswordOTPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forgot password payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "email is not registered")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.Disabled() {
		return appErrors.ErrAccountDisabled
	}

	now := s.now()
	if _, err := s.otps.FindActive(ctx, req.Email, models.OTPPurposePasswordReset, now); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "an otp was already sent, please check your email")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending otp")
	}

	code, err := generateOTPCode()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate otp")
	}

	otp := &models.OTP{
		Name:      user.Name,
		Email:     user.Email,
		Code:      code,
		Purpose:   models.OTPPurposePasswordReset,
		ExpiresAt: now.Add(s.config.OTPTTL),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store otp")
	}

	if err := s.mailer.Send(ctx, mail.Message{
		ToName:     user.Name,
		ToEmail:    user.Email,
		TemplateID: s.config.ResetOTPTemplateID,
		Data: map[string]interface{}{
			"name": user.Name,
			"otp":  code,
		},
	}); err != nil {
		s.logger.Error("failed to send reset otp email", zap.String("email", user.Email), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to send otp email")
	}

	return nil
}

// ResetPassword sets a new password once the emailed code checks out.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	otp, err := s.otps.FindLatestByEmail(ctx, req.Email, models.OTPPurposePasswordReset)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrOTPNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify otp")
	}
	if otp.Code != req.OTP {
		return appErrors.ErrInvalidOTP
	}
	if otp.Expired(s.now()) {
		return appErrors.ErrOTPExpired
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "email is not registered")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	if err := s.otps.DeleteByEmail(ctx, req.Email, models.OTPPurposePasswordReset); err != nil {
		s.logger.Warn("failed to delete consumed otp", zap.String("email", req.Email), zap.Error(err))
	}

	return nil
}

// Profile returns the caller's account with its grade attached.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	s.attachGrade(ctx, user)
	return user, nil
}

// UpdateProfile mutates the caller's name, phone, answer, optional
// password and optional avatar in one read-validate-write pass.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input models.UpdateProfileInput, avatar io.Reader) (*models.User, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Disabled() {
		return nil, appErrors.ErrAccountDisabled
	}

	// Every profile edit re-proves the current password before any write.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "current password does not match")
	}

	if input.Phone != user.Phone {
		inUse, err := s.users.PhoneInUse(ctx, input.Phone, user.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone")
		}
		if inUse {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone is already registered")
		}
	}

	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	oldAvatarID := ""
	if avatar != nil {
		asset, err := s.store.Upload(ctx, avatar, "avatars")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to upload avatar")
		}
		oldAvatarID = user.AvatarPublicID
		user.Avatar = asset.URL
		user.AvatarPublicID = asset.PublicID
	}

	user.Name = input.Name
	user.Phone = input.Phone
	user.Answer = input.Answer

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if avatar != nil {
			if delErr := s.store.Delete(ctx, user.AvatarPublicID); delErr != nil {
				s.logger.Warn("failed to delete orphaned avatar", zap.String("public_id", user.AvatarPublicID), zap.Error(delErr))
			}
		}
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone is already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	if oldAvatarID != "" {
		if err := s.store.Delete(ctx, oldAvatarID); err != nil {
			s.logger.Warn("failed to delete replaced avatar", zap.String("public_id", oldAvatarID), zap.Error(err))
		}
	}

	s.attachGrade(ctx, user)
	return user, nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	issuedAt := s.now()
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.TokenSecret))
}

func (s *AuthService) attachGrade(ctx context.Context, user *models.User) {
	if user.GradeID == "" {
		return
	}
	grade, err := s.grades.FindByID(ctx, user.GradeID)
	if err != nil {
		s.logger.Warn("failed to load user grade", zap.String("grade_id", user.GradeID), zap.Error(err))
		return
	}
	user.Grade = grade
}

// generateOTPCode draws a uniform 6-digit code from crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
