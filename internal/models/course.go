package models

import "time"

// CourseStatus is the catalog lifecycle state.
type CourseStatus string

const (
	CourseActive   CourseStatus = "Active"
	CourseClosed   CourseStatus = "Closed"
	CourseUpcoming CourseStatus = "Upcoming"
)

// Course is a purchasable offering scoped to a grade.
type Course struct {
	ID             string       `db:"id" json:"id"`
	Title          string       `db:"title" json:"title"`
	Slug           string       `db:"slug" json:"slug"`
	GradeID        string       `db:"grade_id" json:"grade_id"`
	Price          float64      `db:"price" json:"price"`
	DateRange      string       `db:"date_range" json:"date_range"`
	Description    string       `db:"description" json:"description"`
	Status         CourseStatus `db:"status" json:"status"`
	Banner         string       `db:"banner" json:"banner"`
	BannerPublicID string       `db:"banner_public_id" json:"-"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`

	Grade *Grade `db:"-" json:"grade,omitempty"`
}

// CourseInput carries the multipart fields of create/update. The banner
// file travels separately.
type CourseInput struct {
	Title       string       `validate:"required"`
	GradeID     string       `validate:"required"`
	Price       float64      `validate:"required"`
	DateRange   string       `validate:"required"`
	Description string       ``
	Status      CourseStatus `validate:"required,oneof=Active Closed Upcoming"`
}
