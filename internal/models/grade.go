package models

import "time"

// Grade is a class/cohort grouping that scopes users, content, courses,
// notices, payments and results.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateGradeRequest is the create/update payload.
type CreateGradeRequest struct {
	Name string `json:"name" validate:"required"`
}
