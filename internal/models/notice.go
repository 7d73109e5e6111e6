package models

import "time"

// Notice is an announcement, either scoped to one grade or broadcast to
// all grades when GradeID is nil.
type Notice struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Body          string    `db:"body" json:"body"`
	Image         string    `db:"image" json:"image,omitempty"`
	ImagePublicID string    `db:"image_public_id" json:"-"`
	GradeID       *string   `db:"grade_id" json:"grade_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	Grade *Grade `db:"-" json:"grade,omitempty"`
}

// NoticeInput carries the multipart fields of create/update. The image
// file travels separately. GradeID empty or "null" means broadcast.
type NoticeInput struct {
	Title   string `validate:"required"`
	Body    string `validate:"required"`
	GradeID string ``
}
