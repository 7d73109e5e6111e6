package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clab/student-portal-api/internal/models"
	"github.com/clab/student-portal-api/internal/service"
	appErrors "github.com/clab/student-portal-api/pkg/errors"
	"github.com/clab/student-portal-api/pkg/response"
)

// AuthHandler wires the registration, session and profile endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{service: svc, logger: logger}
}

// RequestOTP godoc
// @Summary Request a registration OTP
// @Description Emails a 6-digit code used to complete registration
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RequestOTPRequest true "OTP request payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/verify-otp [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req models.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid otp request payload"))
		return
	}

	created, err := h.service.RequestOTP(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !created {
		response.JSON(c, http.StatusOK, "an otp was already sent, please check your email", nil)
		return
	}
	response.JSON(c, http.StatusOK, "otp sent, please check your email", nil)
}

// Register godoc
// @Summary Complete registration
// @Description Creates the account once the emailed OTP checks out
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "registration successful", user.PublicInfo())
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email or phone plus password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, "login successful", res)
}

// ForgotPasswordOTP godoc
// @Summary Request a password reset OTP
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ForgotPasswordOTPRequest true "Reset OTP payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/forgot-password-otp [post]
func (h *AuthHandler) ForgotPasswordOTP(c *gin.Context) {
	var req models.ForgotPasswordOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid forgot password payload"))
		return
	}

	if err := h.service.ForgotPasswordOTP(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, "otp sent, please check your email", nil)
}

// ResetPassword godoc
// @Summary Reset password with an OTP
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ResetPasswordRequest true "Reset payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reset password payload"))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, "password reset successful", nil)
}

// Profile godoc
// @Summary Get the caller's profile
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.service.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, "", user.PublicInfo())
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Description Multipart update of name, phone, answer, optional password and avatar
// @Tags Authentication
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/update-profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	input := models.UpdateProfileInput{
		Name:        c.PostForm("name"),
		Phone:       c.PostForm("phone"),
		Answer:      c.PostForm("answer"),
		Password:    c.PostForm("password"),
		OldPassword: c.PostForm("old_password"),
	}

	file, err := openFormFile(c, "avatar")
	if err != nil {
		response.Error(c, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	var user *models.User
	if file != nil {
		user, err = h.service.UpdateProfile(c.Request.Context(), claims.UserID, input, file)
	} else {
		user, err = h.service.UpdateProfile(c.Request.Context(), claims.UserID, input, nil)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, "profile updated", user.PublicInfo())
}

// UserAuth godoc
// @Summary Probe user authentication
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/user-auth [get]
func (h *AuthHandler) UserAuth(c *gin.Context) {
	response.JSON(c, http.StatusOK, "", gin.H{"ok": true})
}

// AdminAuth godoc
// @Summary Probe admin authentication
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/admin-auth [get]
func (h *AuthHandler) AdminAuth(c *gin.Context) {
	response.JSON(c, http.StatusOK, "", gin.H{"ok": true})
}

// openFormFile returns an opened multipart file or nil when the field
// is absent.
func openFormFile(c *gin.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		// No multipart body at all also means "no file".
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid file upload")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file")
	}
	return file, nil
}
