package models

import "time"

// UserRole separates ordinary students from administrators.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleAdmin   UserRole = "ADMIN"
)

// UserStatus gates login and most mutating operations.
type UserStatus string

const (
	StatusEnabled  UserStatus = "Enabled"
	StatusDisabled UserStatus = "Disabled"
)

// DefaultAvatarURL is assigned when a user registers without a photo.
const DefaultAvatarURL = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// User represents a portal account stored in the users table.
type User struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Answer         string     `db:"answer" json:"-"`
	Avatar         string     `db:"avatar" json:"avatar"`
	AvatarPublicID string     `db:"avatar_public_id" json:"-"`
	GradeID        string     `db:"grade_id" json:"grade_id"`
	Role           UserRole   `db:"role" json:"role"`
	Status         UserStatus `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	Grade *Grade `db:"-" json:"grade,omitempty"`
}

// Disabled reports whether the account is blocked.
func (u *User) Disabled() bool {
	return u.Status == StatusDisabled
}
