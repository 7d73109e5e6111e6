package models

import "time"

// ContentType enumerates the supported study-material formats.
type ContentType string

const (
	ContentPDF         ContentType = "PDF"
	ContentDoc         ContentType = "Doc"
	ContentSlide       ContentType = "Slide"
	ContentSpreadsheet ContentType = "Spreadsheet"
	ContentVideo       ContentType = "Video"
	ContentAudio       ContentType = "Audio"
	ContentOnlineClass ContentType = "Online Class"
)

// Content is a study-material link, readable only by users of its grade.
type Content struct {
	ID        string      `db:"id" json:"id"`
	Subject   string      `db:"subject" json:"subject"`
	Remark    string      `db:"remark" json:"remark"`
	Type      ContentType `db:"type" json:"type"`
	Link      string      `db:"link" json:"link"`
	GradeID   string      `db:"grade_id" json:"grade_id"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`

	Grade *Grade `db:"-" json:"grade,omitempty"`
}

// ContentRequest is the create/update payload.
type ContentRequest struct {
	Subject string      `json:"subject" validate:"required"`
	Remark  string      `json:"remark" validate:"required"`
	Type    ContentType `json:"type" validate:"required,oneof=PDF Doc Slide Spreadsheet Video Audio 'Online Class'"`
	Link    string      `json:"link" validate:"required"`
	GradeID string      `json:"grade_id" validate:"required"`
}
