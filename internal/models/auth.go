package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// RequestOTPRequest initiates registration email verification.
type RequestOTPRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// RegisterRequest completes registration with a previously emailed code.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required,len=6"`
	Phone    string `json:"phone" validate:"required,len=11"`
	Password string `json:"password" validate:"required,min=6"`
	Answer   string `json:"answer" validate:"required"`
	GradeID  string `json:"grade_id" validate:"required"`
}

// LoginRequest authenticates by email or phone plus password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required_without=Phone,omitempty,email"`
	Phone    string `json:"phone" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the session token and public user fields.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo is the public projection of a user.
type UserInfo struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Phone  string   `json:"phone"`
	Avatar string   `json:"avatar"`
	Role   UserRole `json:"role"`
	Grade  *Grade   `json:"grade,omitempty"`
}

// ForgotPasswordOTPRequest initiates the password reset flow.
type ForgotPasswordOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password reset with an emailed code.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UpdateProfileInput carries the multipart fields of the self-service
// profile update. The avatar file travels separately. A password change
// is optional and must prove knowledge of the current one.
type UpdateProfileInput struct {
	Name        string `validate:"required"`
	Phone       string `validate:"required,len=11"`
	Answer      string `validate:"required"`
	Password    string `validate:"omitempty,min=6"`
	OldPassword string `validate:"required"`
}

// UpdateGradeRequest reassigns a user's grade (admin).
type UpdateGradeRequest struct {
	GradeID string `json:"grade_id" validate:"required"`
}

// UpdateStatusRequest enables or disables an account (admin).
type UpdateStatusRequest struct {
	Status UserStatus `json:"status" validate:"required,oneof=Enabled Disabled"`
}

// JWTClaims is the session token payload.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// PublicInfo projects the user for responses.
func (u *User) PublicInfo() UserInfo {
	return UserInfo{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		Avatar: u.Avatar,
		Role:   u.Role,
		Grade:  u.Grade,
	}
}
