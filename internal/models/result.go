package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubjectMarks is one graded subject within a result sheet.
type SubjectMarks struct {
	Subject string  `json:"subject" validate:"required"`
	Marks   float64 `json:"marks" validate:"required"`
}

// SubjectMarksList stores the subject/marks pairs as a JSONB column.
type SubjectMarksList []SubjectMarks

// Value implements driver.Valuer.
func (l SubjectMarksList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *SubjectMarksList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("unsupported subjects column type %T", src)
	}
}

// Result is an exam result sheet for one user.
type Result struct {
	ID        string           `db:"id" json:"id"`
	ExamType  string           `db:"exam_type" json:"exam_type"`
	Subjects  SubjectMarksList `db:"subjects" json:"subjects"`
	ExamDate  time.Time        `db:"exam_date" json:"exam_date"`
	UserID    string           `db:"user_id" json:"user_id"`
	GradeID   string           `db:"grade_id" json:"grade_id"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`

	User  *User  `db:"-" json:"user,omitempty"`
	Grade *Grade `db:"-" json:"grade,omitempty"`
}

// ResultRequest is the create payload.
type ResultRequest struct {
	ExamType string         `json:"exam_type" validate:"required"`
	Subjects []SubjectMarks `json:"subjects" validate:"required,min=1,dive"`
	ExamDate time.Time      `json:"exam_date" validate:"required"`
	UserID   string         `json:"user_id" validate:"required"`
	GradeID  string         `json:"grade_id" validate:"required"`
}

// UpdateResultRequest mutates an existing sheet; user and grade are fixed.
type UpdateResultRequest struct {
	ExamType string         `json:"exam_type" validate:"required"`
	Subjects []SubjectMarks `json:"subjects" validate:"required,min=1,dive"`
	ExamDate time.Time      `json:"exam_date" validate:"required"`
}
