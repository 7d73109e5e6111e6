package models

import "time"

// OTPPurpose tags what a one-time code is allowed to complete.
type OTPPurpose string

const (
	OTPPurposeRegistration  OTPPurpose = "registration"
	OTPPurposePasswordReset OTPPurpose = "password_reset"
)

// OTP is a pending email verification code. At most one unexpired row
// per email may exist; the row is deleted once consumed.
type OTP struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email"`
	Code      string     `db:"code" json:"-"`
	Purpose   OTPPurpose `db:"purpose" json:"purpose"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the code is past its window at the given instant.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
